// Package bot принимает обновления Telegram и отвечает пользователю.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/services/journal"
)

// BotAPI часть *tgbotapi.BotAPI, которой пользуется обработчик.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Journal сценарии дневника (см. journal.Service).
type Journal interface {
	Register(ctx context.Context, userID int64, username *string) error
	HandleText(ctx context.Context, userID int64, text string) (journal.TextResult, error)
	Wipe(ctx context.Context, userID int64) (journal.WipeResult, error)
	Plans() []config.Plan
	ActivateSubscription(ctx context.Context, userID int64, amount int) (time.Time, error)
}

type Handler struct {
	api       BotAPI
	journal   Journal
	payment   config.Payment
	trialDays int
	log       *slog.Logger
}

func NewHandler(api BotAPI, j Journal, payment config.Payment, trialPeriod time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		api:       api,
		journal:   j,
		payment:   payment,
		trialDays: int(trialPeriod / (24 * time.Hour)),
		log:       log,
	}
}

// Run читает обновления до закрытия канала или отмены ctx.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.PreCheckoutQuery != nil {
		h.handlePreCheckout(upd.PreCheckoutQuery)
		return
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	// работаем только в личке
	if !msg.Chat.IsPrivate() {
		return
	}

	if msg.SuccessfulPayment != nil {
		h.handlePayment(ctx, msg)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if text == confirmDeleteButton {
		h.handleDeleteConfirm(ctx, msg.Chat.ID, msg.From.ID)
		return
	}
	h.handleText(ctx, msg.Chat.ID, msg.From.ID, text)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		var username *string
		if msg.From.UserName != "" {
			u := msg.From.UserName
			username = &u
		}
		if err := h.journal.Register(ctx, msg.From.ID, username); err != nil {
			h.log.Error("failed to register user", sl.UserID(msg.From.ID), sl.Err(err))
			h.reply(chatID, textFailure, false)
			return
		}
		h.reply(chatID, textStart, true)
	case "terms":
		h.reply(chatID, termsText(h.trialDays), true)
	case "privacy":
		h.reply(chatID, textPrivacy, true)
	case "delete_all":
		m := tgbotapi.NewMessage(chatID, textDeleteConfirm)
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(confirmDeleteButton)),
		)
		keyboard.OneTimeKeyboard = true
		keyboard.ResizeKeyboard = true
		m.ReplyMarkup = keyboard
		h.send(m)
	case "subscribe":
		h.sendInvoice(chatID)
	default:
		h.reply(chatID, textUnknownCommand, false)
	}
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) {
	res, err := h.journal.HandleText(ctx, userID, text)
	if err != nil {
		h.log.Error("failed to handle text", sl.UserID(userID), sl.Err(err))
		h.reply(chatID, textFailure, false)
		return
	}

	switch res.Outcome {
	case journal.OutcomeEntrySaved:
		h.reply(chatID, textEntrySaved, false)
	case journal.OutcomeAgreed:
		h.reply(chatID, textAgreed, true)
	case journal.OutcomeSoftNameSet:
		h.reply(chatID, softNameText(journal.Addressing(res.SoftName)), false)
	case journal.OutcomeNeedsStart:
		h.reply(chatID, textNeedsStart, false)
	case journal.OutcomeNeedsAgreement:
		h.reply(chatID, textNeedsAgreement, false)
	case journal.OutcomeAccessDenied:
		h.reply(chatID, textAccessDenied, false)
	}
}

func (h *Handler) handleDeleteConfirm(ctx context.Context, chatID, userID int64) {
	m := tgbotapi.NewMessage(chatID, "")
	m.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)

	res, err := h.journal.Wipe(ctx, userID)
	switch {
	case err != nil:
		h.log.Error("failed to wipe journal", sl.UserID(userID), sl.Err(err))
		m.Text = textFailure
	case !res.Decision.Granted:
		m.Text = textAccessDenied
	default:
		m.Text = textDeleted
	}
	h.send(m)
}

func (h *Handler) sendInvoice(chatID int64) {
	plans := h.journal.Plans()
	prices := make([]tgbotapi.LabeledPrice, 0, len(plans))
	for _, p := range plans {
		prices = append(prices, tgbotapi.LabeledPrice{Label: p.Label, Amount: p.Amount})
	}
	invoice := tgbotapi.NewInvoice(chatID, invoiceTitle, invoiceDescription, invoicePayload,
		h.payment.ProviderToken, invoicePayload, h.payment.Currency, prices)
	// Telegram отклоняет suggested_tip_amounts = null.
	invoice.SuggestedTipAmounts = []int{}
	h.send(invoice)
}

func (h *Handler) handlePreCheckout(q *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: q.ID,
		OK:                 true,
	}
	if _, err := h.api.Request(answer); err != nil {
		h.log.Error("failed to answer pre-checkout query", slog.String("query_id", q.ID), sl.Err(err))
	}
}

func (h *Handler) handlePayment(ctx context.Context, msg *tgbotapi.Message) {
	payment := msg.SuccessfulPayment
	_, err := h.journal.ActivateSubscription(ctx, msg.From.ID, payment.TotalAmount)
	if err != nil {
		if errors.Is(err, journal.ErrNotRegistered) {
			h.log.Warn("payment from unregistered user",
				sl.UserID(msg.From.ID),
				slog.String("charge_id", payment.TelegramPaymentChargeID),
			)
		} else {
			h.log.Error("failed to activate subscription",
				sl.UserID(msg.From.ID),
				slog.String("charge_id", payment.TelegramPaymentChargeID),
				sl.Err(err),
			)
		}
		h.reply(msg.Chat.ID, textFailure, false)
		return
	}
	h.reply(msg.Chat.ID, textPaymentThanks, false)
}

func (h *Handler) reply(chatID int64, text string, html bool) {
	m := tgbotapi.NewMessage(chatID, text)
	if html {
		m.ParseMode = tgbotapi.ModeHTML
		m.DisableWebPagePreview = true
	}
	h.send(m)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Error("failed to send message", sl.Err(err))
	}
}
