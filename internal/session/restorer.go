package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relaybot/internal/telegram"
)

// Restorer reconnects persisted sessions at startup. One bad credential
// artifact never blocks restoration of the others.
type Restorer struct {
	dir      *telegram.SessionDir
	dialer   telegram.Dialer
	registry *Registry
	rules    RuleSource
	logger   *zap.Logger
}

// NewRestorer creates a restorer
func NewRestorer(dir *telegram.SessionDir, dialer telegram.Dialer, registry *Registry, rules RuleSource, logger *zap.Logger) *Restorer {
	return &Restorer{
		dir:      dir,
		dialer:   dialer,
		registry: registry,
		rules:    rules,
		logger:   logger,
	}
}

// Restore scans the session directory, reconnects every still-authorized
// session and attaches its dispatcher. Returns the number of sessions
// restored.
func (r *Restorer) Restore(ctx context.Context) (int, error) {
	users, err := r.dir.Users()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate sessions: %w", err)
	}

	r.logger.Info("Restoring persisted sessions", zap.Int("found", len(users)))

	restored := 0
	for _, userID := range users {
		conn, err := r.dialer.Dial(ctx, userID)
		if err != nil {
			r.logger.Error("Failed to reconnect session",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}

		authorized, err := conn.Authorized(ctx)
		if err != nil || !authorized {
			r.logger.Warn("Session is invalid or expired",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			conn.Close()
			continue
		}

		s := New(userID, conn, NewDispatcher(userID, conn, r.rules, r.logger))
		if err := r.registry.Register(s); err != nil {
			r.logger.Error("Failed to register restored session",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			conn.Close()
			continue
		}

		r.logger.Info("Restored session", zap.Int64("user_id", userID))
		restored++
	}

	return restored, nil
}
