package domain

import "time"

// ForwardingRule relays every new message from a source chat to a
// destination chat. Rules belong to one user and are addressed by their
// position in the user's ordered list.
type ForwardingRule struct {
	SourceID        int64
	SourceName      string
	DestinationID   int64
	DestinationName string
	Active          bool
	CreatedAt       time.Time
}

// User represents a bot user
type User struct {
	UserID    int64
	Language  string
	CreatedAt time.Time
}
