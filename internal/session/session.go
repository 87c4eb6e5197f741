// Package session owns the live authenticated connections: the registry of
// sessions, the per-session event dispatcher, and the startup restorer.
package session

import (
	"relaybot/internal/telegram"
)

// Session is one live authenticated connection on behalf of a user. It is
// exclusively owned by the registry entry for that user; the dispatcher
// holds a non-owning reference to the connection.
type Session struct {
	UserID     int64
	Conn       telegram.Conn
	dispatcher *Dispatcher
}

// New creates a session. The dispatcher is attached when the session is
// registered, not here.
func New(userID int64, conn telegram.Conn, dispatcher *Dispatcher) *Session {
	return &Session{
		UserID:     userID,
		Conn:       conn,
		dispatcher: dispatcher,
	}
}

func (s *Session) attach() {
	s.Conn.OnMessage(s.dispatcher.Handle)
}

func (s *Session) detach() {
	s.Conn.OnMessage(nil)
}
