package domain

// broadcastBase is the offset Telegram's bot API applies to broadcast
// channel identifiers (the "-100" prefix in decimal form).
const broadcastBase int64 = 1_000_000_000_000

// CanonicalChatID normalizes a chat identifier for rule matching. The
// network reports broadcast channels either as a bare positive id or in
// the -100-prefixed form; rules always store the prefixed form.
// Applying it twice yields the same result as once.
func CanonicalChatID(id int64, broadcast bool) int64 {
	if broadcast && id > 0 {
		return -(broadcastBase + id)
	}
	return id
}
