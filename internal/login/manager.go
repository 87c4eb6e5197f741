// Package login drives the phone → code → password authentication flow.
// Each in-progress attempt is an explicit state value keyed by user id, so
// every incoming message is handled by a plain transition, not a suspended
// conversation.
package login

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/session"
	"relaybot/internal/telegram"
)

var (
	// ErrAlreadyLoggedIn short-circuits Start when a live session exists
	ErrAlreadyLoggedIn = errors.New("already logged in")

	// ErrNoAttempt is returned when input arrives without a matching
	// in-progress attempt.
	ErrNoAttempt = errors.New("no login attempt in progress")

	// ErrEmptyPhone re-prompts without losing the attempt
	ErrEmptyPhone = errors.New("phone number is empty")

	// ErrInvalidCodeFormat re-prompts without losing the attempt
	ErrInvalidCodeFormat = errors.New("invalid verification code format")

	// ErrLoginFailed terminates the attempt; the pending connection is
	// already torn down when it is returned.
	ErrLoginFailed = errors.New("login failed")
)

// Verification codes are sent as the word "mycode" followed by the digits,
// so Telegram does not revoke the code for being pasted verbatim.
var codeRe = regexp.MustCompile(`(?i)^mycode(\d+)$`)

// Attempt is the transient state of one in-progress login
type Attempt struct {
	UserID   int64
	State    domain.LoginState
	Phone    string
	CodeHash string

	conn  telegram.Conn
	timer *time.Timer
}

// Manager holds at most one login attempt per user and promotes successful
// attempts into registered sessions.
type Manager struct {
	dialer   telegram.Dialer
	registry *session.Registry
	rules    session.RuleSource
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	attempts map[int64]*Attempt
	expired  func(userID int64)
}

// NewManager creates a login manager. timeout is the per-attempt inactivity
// limit; zero disables it.
func NewManager(
	dialer telegram.Dialer,
	registry *session.Registry,
	rules session.RuleSource,
	timeout time.Duration,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		dialer:   dialer,
		registry: registry,
		rules:    rules,
		timeout:  timeout,
		logger:   logger,
		attempts: make(map[int64]*Attempt),
	}
}

// OnExpired installs the callback invoked after an attempt times out
func (m *Manager) OnExpired(fn func(userID int64)) {
	m.mu.Lock()
	m.expired = fn
	m.mu.Unlock()
}

// State returns the current step of the user's attempt, if any
func (m *Manager) State(userID int64) (domain.LoginState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[userID]
	if !ok {
		return "", false
	}
	return a.State, true
}

// Start begins a login attempt in the phone step. A live session
// short-circuits with ErrAlreadyLoggedIn. An attempt already in progress is
// overwritten; its pending connection is disconnected so it cannot leak.
func (m *Manager) Start(userID int64) error {
	if _, err := m.registry.Get(userID); err == nil {
		return ErrAlreadyLoggedIn
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.attempts[userID]; ok {
		if old.timer != nil {
			old.timer.Stop()
		}
		if old.conn != nil {
			go old.conn.Close()
		}
		m.logger.Info("Replacing in-progress login attempt", zap.Int64("user_id", userID))
	}

	a := &Attempt{UserID: userID, State: domain.StatePhone}
	m.attempts[userID] = a
	m.resetTimerLocked(a)
	return nil
}

// SubmitPhone opens a pending connection and requests a verification code.
// A network failure terminates the attempt with ErrLoginFailed.
func (m *Manager) SubmitPhone(ctx context.Context, userID int64, phone string) error {
	phone = strings.TrimSpace(phone)

	m.mu.Lock()
	a, ok := m.attempts[userID]
	if !ok || a.State != domain.StatePhone {
		m.mu.Unlock()
		return ErrNoAttempt
	}
	if phone == "" {
		m.resetTimerLocked(a)
		m.mu.Unlock()
		return ErrEmptyPhone
	}
	m.mu.Unlock()

	conn, err := m.dialer.Dial(ctx, userID)
	if err != nil {
		m.drop(a)
		m.logger.Error("Failed to connect during login",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	hash, err := conn.SendCode(ctx, phone)
	if err != nil {
		conn.Close()
		m.drop(a)
		m.logger.Error("Failed to request verification code",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.attempts[userID]; !ok || cur != a {
		// Cancelled or replaced while the network call was in flight
		go conn.Close()
		return ErrNoAttempt
	}
	a.conn = conn
	a.Phone = phone
	a.CodeHash = hash
	a.State = domain.StateCode
	m.resetTimerLocked(a)
	return nil
}

// SubmitCode redeems the verification code. Input must be "mycode" followed
// by digits; anything else returns ErrInvalidCodeFormat with the attempt
// unchanged. Returns true when a second-factor password must follow.
func (m *Manager) SubmitCode(ctx context.Context, userID int64, input string) (bool, error) {
	m.mu.Lock()
	a, ok := m.attempts[userID]
	if !ok || a.State != domain.StateCode {
		m.mu.Unlock()
		return false, ErrNoAttempt
	}
	m.resetTimerLocked(a)

	match := codeRe.FindStringSubmatch(strings.TrimSpace(input))
	if match == nil {
		m.mu.Unlock()
		return false, ErrInvalidCodeFormat
	}
	conn, phone, hash := a.conn, a.Phone, a.CodeHash
	m.mu.Unlock()

	err := conn.SignIn(ctx, phone, match[1], hash)
	if errors.Is(err, telegram.ErrPasswordNeeded) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.attempts[userID]; !ok || cur != a {
			return false, ErrNoAttempt
		}
		a.State = domain.StatePassword
		m.resetTimerLocked(a)
		return true, nil
	}
	if err != nil {
		conn.Close()
		m.drop(a)
		m.logger.Error("Sign-in failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	return false, m.promote(a)
}

// SubmitPassword submits the second-factor password
func (m *Manager) SubmitPassword(ctx context.Context, userID int64, password string) error {
	m.mu.Lock()
	a, ok := m.attempts[userID]
	if !ok || a.State != domain.StatePassword {
		m.mu.Unlock()
		return ErrNoAttempt
	}
	m.resetTimerLocked(a)
	conn := a.conn
	m.mu.Unlock()

	if err := conn.SignInPassword(ctx, password); err != nil {
		conn.Close()
		m.drop(a)
		m.logger.Error("Password sign-in failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	return m.promote(a)
}

// Cancel discards the attempt and disconnects any pending connection.
// Reports whether an attempt existed.
func (m *Manager) Cancel(userID int64) bool {
	m.mu.Lock()
	a, ok := m.attempts[userID]
	if ok {
		delete(m.attempts, userID)
		if a.timer != nil {
			a.timer.Stop()
		}
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	if a.conn != nil {
		a.conn.Close()
	}
	return true
}

// promote turns the attempt's pending connection into a registered session
// with an attached dispatcher. A cancel or timeout that raced the sign-in
// network call has already torn the connection down; promoting anyway would
// resurrect a discarded attempt, so the currency check comes first.
func (m *Manager) promote(a *Attempt) error {
	m.mu.Lock()
	if cur, ok := m.attempts[a.UserID]; !ok || cur != a {
		m.mu.Unlock()
		return ErrNoAttempt
	}
	delete(m.attempts, a.UserID)
	if a.timer != nil {
		a.timer.Stop()
	}
	m.mu.Unlock()

	s := session.New(a.UserID, a.conn, session.NewDispatcher(a.UserID, a.conn, m.rules, m.logger))
	if err := m.registry.Register(s); err != nil {
		a.conn.Close()
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	m.logger.Info("Login successful", zap.Int64("user_id", a.UserID))
	return nil
}

// drop removes the attempt if it is still the current one for its user
func (m *Manager) drop(a *Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.attempts[a.UserID]; ok && cur == a {
		delete(m.attempts, a.UserID)
		if a.timer != nil {
			a.timer.Stop()
		}
	}
}

// resetTimerLocked is called with the manager lock held
func (m *Manager) resetTimerLocked(a *Attempt) {
	if a.timer != nil {
		a.timer.Stop()
	}
	if m.timeout <= 0 {
		return
	}
	a.timer = time.AfterFunc(m.timeout, func() { m.expire(a) })
}

// expire forces a cancel after the inactivity timeout
func (m *Manager) expire(a *Attempt) {
	m.mu.Lock()
	cur, ok := m.attempts[a.UserID]
	if !ok || cur != a {
		m.mu.Unlock()
		return
	}
	delete(m.attempts, a.UserID)
	notify := m.expired
	m.mu.Unlock()

	if a.conn != nil {
		a.conn.Close()
	}
	m.logger.Info("Login attempt timed out", zap.Int64("user_id", a.UserID))
	if notify != nil {
		notify(a.UserID)
	}
}
