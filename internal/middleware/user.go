package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"relaybot/internal/repository"
)

// EnsureUser creates the user record before any handler runs, so language
// lookups and rule writes always have a row to attach to.
func EnsureUser(users repository.UserRepository, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			if err := users.EnsureUser(sender.ID); err != nil {
				// Not fatal: the handler may still serve the request
				logger.Error("Failed to ensure user exists",
					zap.Int64("user_id", sender.ID),
					zap.Error(err),
				)
			}
			return next(c)
		}
	}
}
