// Package telegram abstracts the per-user MTProto connection. The rest of
// the application only sees the Conn and Dialer interfaces; the gotd-backed
// implementation lives in this package as well.
package telegram

import (
	"context"
	"errors"
)

var (
	// ErrPasswordNeeded is returned by SignIn when the account has a
	// second-factor password configured.
	ErrPasswordNeeded = errors.New("two-factor password required")

	// ErrUnknownPeer is returned by Forward when either chat has not been
	// seen on this connection yet.
	ErrUnknownPeer = errors.New("unknown peer")
)

// Inbound is one new-message notification from the network.
type Inbound struct {
	// ChatID is the originating chat in the network's native form:
	// positive for users and broadcast channels, negative for basic groups.
	ChatID    int64
	Broadcast bool

	// MessageID identifies the message within its chat, for forwarding.
	MessageID int
	Text      string
}

// MessageHandler consumes inbound messages for one connection.
type MessageHandler func(ctx context.Context, msg Inbound)

// Conn is one authenticated (or authenticating) connection to the
// messaging network on behalf of a single user.
type Conn interface {
	// SendCode requests a verification code for the phone number and
	// returns the correlation token required to redeem it.
	SendCode(ctx context.Context, phone string) (codeHash string, err error)

	// SignIn submits the verification code. ErrPasswordNeeded signals that
	// a second factor must follow via SignInPassword.
	SignIn(ctx context.Context, phone, code, codeHash string) error

	// SignInPassword submits the second-factor password.
	SignInPassword(ctx context.Context, password string) error

	// Authorized reports whether the stored credentials are still valid.
	Authorized(ctx context.Context) (bool, error)

	// Forward relays a message, media included, from one chat to another.
	// Both chat ids are given in canonical form.
	Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) error

	// OnMessage installs the inbound message handler. Passing nil detaches
	// the current handler.
	OnMessage(h MessageHandler)

	// LogOut invalidates the credentials on the server side.
	LogOut(ctx context.Context) error

	// Close disconnects and releases the connection.
	Close() error
}

// Dialer opens connections bound to a user's persisted credentials.
type Dialer interface {
	Dial(ctx context.Context, userID int64) (Conn, error)
}
