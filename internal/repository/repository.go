package repository

import "relaybot/internal/domain"

// RuleRepository persists per-user forwarding rules in list order
type RuleRepository interface {
	ListAll() (map[int64][]domain.ForwardingRule, error)
	ReplaceAll(userID int64, rules []domain.ForwardingRule) error
}

// UserRepository persists per-user preferences
type UserRepository interface {
	EnsureUser(userID int64) error
	SetLanguage(userID int64, lang string) error
	Language(userID int64) (string, error)
}
