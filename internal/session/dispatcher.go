package session

import (
	"context"

	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/telegram"
)

// RuleSource supplies a user's forwarding rules in stored order
type RuleSource interface {
	List(userID int64) []domain.ForwardingRule
}

// Dispatcher applies the owning user's forwarding rules to every inbound
// message of one connection. This is the steady-state hot path: one rule
// scan and at most one network call per message.
type Dispatcher struct {
	userID int64
	conn   telegram.Conn
	rules  RuleSource
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher for one user's connection
func NewDispatcher(userID int64, conn telegram.Conn, rules RuleSource, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		userID: userID,
		conn:   conn,
		rules:  rules,
		logger: logger,
	}
}

// Handle relays the message through the first active rule whose source
// matches the canonical chat id. The whole message is forwarded, media
// included. Relay failures are logged and never retried; the rule stays
// enabled.
func (d *Dispatcher) Handle(ctx context.Context, msg telegram.Inbound) {
	chatID := domain.CanonicalChatID(msg.ChatID, msg.Broadcast)

	for _, rule := range d.rules.List(d.userID) {
		if !rule.Active || rule.SourceID != chatID {
			continue
		}

		if err := d.conn.Forward(ctx, chatID, rule.DestinationID, msg.MessageID); err != nil {
			d.logger.Error("Failed to forward message",
				zap.Int64("user_id", d.userID),
				zap.String("source", rule.SourceName),
				zap.String("destination", rule.DestinationName),
				zap.Error(err),
			)
		} else {
			d.logger.Info("Forwarded message",
				zap.Int64("user_id", d.userID),
				zap.String("source", rule.SourceName),
				zap.String("destination", rule.DestinationName),
			)
		}
		// First match wins
		return
	}
}
