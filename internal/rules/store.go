// Package rules owns the per-user forwarding rule lists and the two-step
// setup wizard that creates them.
package rules

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/repository"
)

// ErrIndexOutOfRange is returned by Toggle and Delete for an invalid index
var ErrIndexOutOfRange = errors.New("rule index out of range")

// Store keeps every user's ordered rule list in memory and writes changes
// through to the repository. Each user has their own lock, so mutations and
// relays for different users never serialize on each other. A write-through
// failure keeps the in-memory state and is only logged.
type Store struct {
	repo   repository.RuleRepository
	logger *zap.Logger

	mu    sync.RWMutex
	users map[int64]*userRules
}

type userRules struct {
	mu    sync.Mutex
	rules []domain.ForwardingRule
}

// NewStore creates a new rule store
func NewStore(repo repository.RuleRepository, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger,
		users:  make(map[int64]*userRules),
	}
}

// Load populates the store from the repository. Called once at startup.
func (s *Store) Load() error {
	all, err := s.repo.ListAll()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, rules := range all {
		s.users[userID] = &userRules{rules: rules}
	}
	return nil
}

// List returns a copy of the user's rules in stored order
func (s *Store) List(userID int64) []domain.ForwardingRule {
	u := s.forUser(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]domain.ForwardingRule, len(u.rules))
	copy(out, u.rules)
	return out
}

// Append adds a rule to the end of the user's list
func (s *Store) Append(userID int64, rule domain.ForwardingRule) {
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	u := s.forUser(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.rules = append(u.rules, rule)
	s.persist(userID, u.rules)
}

// Toggle flips the active flag of the rule at index and returns the
// updated rule.
func (s *Store) Toggle(userID int64, index int) (domain.ForwardingRule, error) {
	u := s.forUser(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if index < 0 || index >= len(u.rules) {
		return domain.ForwardingRule{}, ErrIndexOutOfRange
	}
	u.rules[index].Active = !u.rules[index].Active
	s.persist(userID, u.rules)
	return u.rules[index], nil
}

// Delete removes the rule at index. Later rules shift down by one, so
// callers must not cache indices across a delete.
func (s *Store) Delete(userID int64, index int) error {
	u := s.forUser(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if index < 0 || index >= len(u.rules) {
		return ErrIndexOutOfRange
	}
	u.rules = append(u.rules[:index], u.rules[index+1:]...)
	s.persist(userID, u.rules)
	return nil
}

// Clear removes every rule of the user. Logout does not call this; rules
// survive until the user explicitly wipes their data.
func (s *Store) Clear(userID int64) {
	u := s.forUser(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.rules = nil
	s.persist(userID, nil)
}

// persist is called with the user lock held
func (s *Store) persist(userID int64, rules []domain.ForwardingRule) {
	snapshot := make([]domain.ForwardingRule, len(rules))
	copy(snapshot, rules)
	if err := s.repo.ReplaceAll(userID, snapshot); err != nil {
		s.logger.Warn("Failed to persist rules, keeping in-memory state",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

func (s *Store) forUser(userID int64) *userRules {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return u
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok = s.users[userID]; !ok {
		u = &userRules{}
		s.users[userID] = u
	}
	return u
}
