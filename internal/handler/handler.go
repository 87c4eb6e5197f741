package handler

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"relaybot/internal/i18n"
	"relaybot/internal/login"
	"relaybot/internal/repository"
	"relaybot/internal/rules"
	"relaybot/internal/session"
	"relaybot/internal/telegram"
)

// Handler manages all bot interactions
type Handler struct {
	bot      *tele.Bot
	login    *login.Manager
	wizard   *rules.Wizard
	store    *rules.Store
	registry *session.Registry
	users    repository.UserRepository
	sessions *telegram.SessionDir
	logger   *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	loginMgr *login.Manager,
	wizard *rules.Wizard,
	store *rules.Store,
	registry *session.Registry,
	users repository.UserRepository,
	sessions *telegram.SessionDir,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:      bot,
		login:    loginMgr,
		wizard:   wizard,
		store:    store,
		registry: registry,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Inline keyboard buttons
var (
	btnToggle  = tele.Btn{Unique: "toggle"}
	btnDelete  = tele.Btn{Unique: "delete"}
	btnSetLang = tele.Btn{Unique: "setlang"}
)

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/cancel", h.handleCancel)

	h.bot.Handle(tele.OnText, h.handleText)
	// Forwarded media also qualifies for rule setup
	h.bot.Handle(tele.OnMedia, h.handleMedia)

	h.bot.Handle(&btnToggle, h.handleToggleRule)
	h.bot.Handle(&btnDelete, h.handleDeleteRule)
	h.bot.Handle(&btnSetLang, h.handleSetLanguage)

	h.login.OnExpired(h.notifyLoginExpired)
}

// lang returns the user's preferred language, defaulting on lookup errors
func (h *Handler) lang(userID int64) string {
	lang, err := h.users.Language(userID)
	if err != nil {
		h.logger.Warn("Failed to load user language",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return i18n.Default
	}
	return lang
}

// menuMarkup returns the main menu reply keyboard in the user's language
func menuMarkup(lang string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(
			menu.Text(i18n.T(lang, "menu_manage_rules")),
			menu.Text(i18n.T(lang, "menu_add_rule")),
		),
		menu.Row(
			menu.Text(i18n.T(lang, "menu_languages")),
			menu.Text(i18n.T(lang, "menu_logout")),
		),
	)
	return menu
}

// rulesMarkup returns the inline rule list, nil when the user has no rules
func (h *Handler) rulesMarkup(userID int64) *tele.ReplyMarkup {
	list := h.store.List(userID)
	if len(list) == 0 {
		return nil
	}

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(list))
	for i, rule := range list {
		status := "✅"
		if !rule.Active {
			status = "❌"
		}
		label := fmt.Sprintf("%s %s ➡️ %s", status, rule.SourceName, rule.DestinationName)
		rows = append(rows, markup.Row(
			markup.Data(label, btnToggle.Unique, strconv.Itoa(i)),
			markup.Data("🗑️", btnDelete.Unique, strconv.Itoa(i)),
		))
	}
	markup.Inline(rows...)
	return markup
}

// languageMarkup returns the inline language picker, two languages per row
func languageMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	var row []tele.Btn
	for _, l := range i18n.Languages {
		row = append(row, markup.Data(l.Name, btnSetLang.Unique, l.Code))
		if len(row) == 2 {
			rows = append(rows, markup.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, markup.Row(row...))
	}
	markup.Inline(rows...)
	return markup
}

// isForwarded reports whether the message was forwarded from somewhere
func isForwarded(msg *tele.Message) bool {
	return msg.OriginalChat != nil ||
		msg.OriginalSender != nil ||
		msg.OriginalSenderName != "" ||
		msg.OriginalUnixtime != 0
}
