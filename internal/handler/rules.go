package handler

import (
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"relaybot/internal/i18n"
	"relaybot/internal/rules"
)

// handleMenu dispatches a main-menu button press
func (h *Handler) handleMenu(c tele.Context, key string) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	switch key {
	case "menu_logout":
		return h.handleLogout(c)

	case "menu_languages":
		return c.Send(i18n.T(lang, "lang_header", i18n.Name(lang)), languageMarkup())

	case "menu_manage_rules":
		markup := h.rulesMarkup(userID)
		if markup == nil {
			return c.Send(i18n.T(lang, "no_rules"))
		}
		return c.Send(i18n.T(lang, "rules_header"), markup)

	case "menu_add_rule":
		h.wizard.Begin(userID)
		return c.Send(i18n.T(lang, "add_rule_source"), &tele.ReplyMarkup{RemoveKeyboard: true})
	}

	return nil
}

// handleForwardCapture feeds a forwarded message into the setup wizard
func (h *Handler) handleForwardCapture(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)
	msg := c.Message()

	var originID int64
	var originName string
	if msg.OriginalChat != nil {
		// Bot API chat ids are already in canonical form
		originID = msg.OriginalChat.ID
		originName = msg.OriginalChat.Title
		if originName == "" {
			originName = "Chat " + strconv.FormatInt(originID, 10)
		}
	}

	capture, err := h.wizard.Feed(userID, originID, originName)
	if errors.Is(err, rules.ErrInvalidForward) {
		return c.Send(i18n.T(lang, "invalid_forward"), menuMarkup(lang))
	}
	if err != nil {
		h.logger.Error("Failed to capture rule endpoint", zap.Error(err))
		return c.Send(i18n.T(lang, "error_generic"))
	}

	if !capture.Done {
		return c.Send(i18n.T(lang, "source_set", capture.ChatName))
	}

	h.logger.Info("Rule created",
		zap.Int64("user_id", userID),
		zap.String("source", capture.Rule.SourceName),
		zap.String("destination", capture.Rule.DestinationName),
	)

	if err := c.Send(i18n.T(lang, "rule_created"), menuMarkup(lang)); err != nil {
		return err
	}
	if markup := h.rulesMarkup(userID); markup != nil {
		return c.Send(i18n.T(lang, "rules_header"), markup)
	}
	return nil
}

// handleToggleRule flips a rule's active flag from the inline list
func (h *Handler) handleToggleRule(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	index, err := strconv.Atoi(strings.TrimSpace(c.Data()))
	if err != nil {
		return c.Respond()
	}

	if _, err := h.store.Toggle(userID, index); err != nil {
		// The list on screen is stale, redraw it
		h.logger.Warn("Toggle on invalid rule index",
			zap.Int64("user_id", userID),
			zap.Int("index", index),
		)
		return h.redrawRules(c, lang)
	}
	return h.redrawRules(c, lang)
}

// handleDeleteRule removes a rule from the inline list
func (h *Handler) handleDeleteRule(c tele.Context) error {
	userID := c.Sender().ID
	lang := h.lang(userID)

	index, err := strconv.Atoi(strings.TrimSpace(c.Data()))
	if err != nil {
		return c.Respond()
	}

	if err := h.store.Delete(userID, index); err != nil {
		h.logger.Warn("Delete on invalid rule index",
			zap.Int64("user_id", userID),
			zap.Int("index", index),
		)
		return h.redrawRules(c, lang)
	}

	h.logger.Info("Rule deleted",
		zap.Int64("user_id", userID),
		zap.Int("index", index),
	)
	return h.redrawRules(c, lang)
}

// redrawRules refreshes the inline rule list after a mutation
func (h *Handler) redrawRules(c tele.Context, lang string) error {
	if err := c.Respond(); err != nil {
		h.logger.Debug("Failed to acknowledge callback", zap.Error(err))
	}

	markup := h.rulesMarkup(c.Sender().ID)
	var err error
	if markup == nil {
		err = c.Edit(i18n.T(lang, "rules_deleted"))
	} else {
		err = c.Edit(i18n.T(lang, "rules_header"), markup)
	}
	if err != nil {
		// "message is not modified" when the list on screen was already
		// current; nothing to do either way
		h.logger.Debug("Failed to edit rule list", zap.Error(err))
	}
	return nil
}

// handleSetLanguage stores the user's language preference
func (h *Handler) handleSetLanguage(c tele.Context) error {
	userID := c.Sender().ID
	code := strings.TrimSpace(c.Data())

	if err := h.users.SetLanguage(userID, code); err != nil {
		h.logger.Error("Failed to set language",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		if err := c.Respond(); err == nil {
			return c.Send(i18n.T(h.lang(userID), "error_generic"))
		}
		return nil
	}

	if err := c.Respond(); err != nil {
		h.logger.Debug("Failed to acknowledge callback", zap.Error(err))
	}
	if err := c.Edit(i18n.T(code, "lang_selected", i18n.Name(code))); err != nil {
		h.logger.Debug("Failed to edit language message", zap.Error(err))
	}
	// Redraw the menu with the new labels
	return c.Send(i18n.T(code, "menu_header"), menuMarkup(code))
}
