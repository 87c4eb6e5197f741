package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"relaybot/internal/domain"
	"relaybot/internal/i18n"
	"relaybot/internal/login"
)

// handleStart handles /start: entry point of the login flow
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	err := h.login.Start(userID)
	if errors.Is(err, login.ErrAlreadyLoggedIn) {
		return c.Send(i18n.T(lang, "already_logged_in"), menuMarkup(lang))
	}
	if err != nil {
		h.logger.Error("Failed to start login", zap.Error(err))
		return c.Send(i18n.T(lang, "error_generic"))
	}

	if err := c.Send(i18n.T(lang, "welcome"), &tele.ReplyMarkup{RemoveKeyboard: true}); err != nil {
		return err
	}
	return c.Send(i18n.T(lang, "phone_prompt"))
}

// handleCancel handles /cancel: aborts login and rule setup
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	h.login.Cancel(userID)
	h.wizard.Cancel(userID)

	return c.Send(i18n.T(lang, "login_cancelled"), menuMarkup(lang))
}

// handleText routes text messages: an in-progress login consumes them
// first, then the menu buttons, then the rule setup wizard.
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Commands are handled by their own handlers
	if strings.HasPrefix(text, "/") {
		return nil
	}

	if state, ok := h.login.State(userID); ok {
		return h.handleLoginInput(c, state, text)
	}

	if key := i18n.MenuKey(text); key != "" {
		return h.handleMenu(c, key)
	}

	if h.wizard.Active(userID) && isForwarded(c.Message()) {
		return h.handleForwardCapture(c)
	}

	return nil
}

// handleMedia feeds forwarded media into the rule setup wizard
func (h *Handler) handleMedia(c tele.Context) error {
	userID := c.Sender().ID
	if h.wizard.Active(userID) && isForwarded(c.Message()) {
		return h.handleForwardCapture(c)
	}
	return nil
}

func (h *Handler) handleLoginInput(c tele.Context, state domain.LoginState, text string) error {
	userID := c.Sender().ID
	lang := h.lang(userID)
	ctx := context.Background()

	switch state {
	case domain.StatePhone:
		err := h.login.SubmitPhone(ctx, userID, text)
		switch {
		case errors.Is(err, login.ErrNoAttempt):
			// Cancelled while the request was in flight
			return nil
		case errors.Is(err, login.ErrEmptyPhone):
			return c.Send(i18n.T(lang, "phone_prompt"))
		case errors.Is(err, login.ErrLoginFailed):
			return c.Send(i18n.T(lang, "login_failed"), menuMarkup(lang))
		case err != nil:
			return c.Send(i18n.T(lang, "error_generic"))
		}
		return c.Send(i18n.T(lang, "code_sent"))

	case domain.StateCode:
		needPassword, err := h.login.SubmitCode(ctx, userID, text)
		switch {
		case errors.Is(err, login.ErrNoAttempt):
			return nil
		case errors.Is(err, login.ErrInvalidCodeFormat):
			return c.Send(i18n.T(lang, "code_invalid_format"))
		case errors.Is(err, login.ErrLoginFailed):
			return c.Send(i18n.T(lang, "login_failed"), menuMarkup(lang))
		case err != nil:
			return c.Send(i18n.T(lang, "error_generic"))
		}
		if needPassword {
			return c.Send(i18n.T(lang, "password_prompt"))
		}
		return c.Send(i18n.T(lang, "login_success"), menuMarkup(lang))

	case domain.StatePassword:
		err := h.login.SubmitPassword(ctx, userID, text)
		switch {
		case errors.Is(err, login.ErrNoAttempt):
			return nil
		case errors.Is(err, login.ErrLoginFailed):
			return c.Send(i18n.T(lang, "login_failed"), menuMarkup(lang))
		case err != nil:
			return c.Send(i18n.T(lang, "error_generic"))
		}
		return c.Send(i18n.T(lang, "login_success"), menuMarkup(lang))
	}

	return nil
}

// handleLogout terminates the session and deletes the stored credentials.
// Forwarding rules are kept.
func (h *Handler) handleLogout(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	s, err := h.registry.Get(userID)
	if err != nil {
		return c.Send(i18n.T(lang, "not_logged_in"))
	}

	if err := c.Send(i18n.T(lang, "logging_out")); err != nil {
		return err
	}

	if err := s.Conn.LogOut(context.Background()); err != nil {
		h.logger.Warn("Server-side logout failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	h.registry.Remove(userID)

	if err := h.sessions.Remove(userID); err != nil {
		h.logger.Warn("Failed to delete session file",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	h.logger.Info("User logged out", zap.Int64("user_id", userID))
	return c.Send(i18n.T(lang, "logout_success"))
}

// notifyLoginExpired tells the user their login attempt timed out
func (h *Handler) notifyLoginExpired(userID int64) {
	lang := h.lang(userID)
	if _, err := h.bot.Send(&tele.User{ID: userID}, i18n.T(lang, "login_timeout"), menuMarkup(lang)); err != nil {
		h.logger.Warn("Failed to notify about login timeout",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
