package session

import (
	"context"
	"errors"
	"iter"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyActive is returned by Register when the user already has a
	// live session.
	ErrAlreadyActive = errors.New("session already active")

	// ErrNotFound is returned by Get when the user has no live session
	ErrNotFound = errors.New("no active session")
)

// Registry is the process-wide map from user id to live session. At most
// one session per user exists at any time.
type Registry struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		sessions: make(map[int64]*Session),
	}
}

// Register installs the session and attaches its dispatcher. Fails with
// ErrAlreadyActive if the user already has a live session.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	if _, ok := r.sessions[s.UserID]; ok {
		r.mu.Unlock()
		return ErrAlreadyActive
	}
	r.sessions[s.UserID] = s
	r.mu.Unlock()

	s.attach()
	return nil
}

// Get returns the user's live session or ErrNotFound
func (r *Registry) Get(userID int64) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove detaches the user's session, closes its connection and returns it.
// A failed disconnect is logged, never fatal to the removal. Removing an
// absent user returns nil.
func (r *Registry) Remove(userID int64) *Session {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	s.detach()
	if err := s.Conn.Close(); err != nil {
		r.logger.Warn("Failed to disconnect session",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	return s
}

// All returns a snapshot sequence of the current sessions. The snapshot is
// taken once, so iterating does not block registrations and replays the
// same pairs when restarted.
func (r *Registry) All() iter.Seq2[int64, *Session] {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	return func(yield func(int64, *Session) bool) {
		for _, s := range snapshot {
			if !yield(s.UserID, s) {
				return
			}
		}
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll removes every live session, best-effort. Stops early when ctx
// expires; remaining connections are abandoned to process exit.
func (r *Registry) CloseAll(ctx context.Context) {
	for userID := range r.All() {
		select {
		case <-ctx.Done():
			r.logger.Warn("Shutdown deadline reached before all sessions closed")
			return
		default:
		}
		r.Remove(userID)
		r.logger.Info("Disconnected session", zap.Int64("user_id", userID))
	}
}
