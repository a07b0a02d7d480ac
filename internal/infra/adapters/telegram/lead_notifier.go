package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tnt-services-site/internal/config"
	"tnt-services-site/internal/domain/ports/adapter"
)

var _ adapter.StaffNotifier = (*LeadNotifier)(nil)

// LeadNotifier posts new-lead messages to the shop's Telegram chat.
type LeadNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewLeadNotifier authenticates the bot (getMe) and returns a notifier bound
// to cfg.ChatID.
func NewLeadNotifier(cfg config.TelegramConfig) (*LeadNotifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	return &LeadNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *LeadNotifier) Name() string { return "telegram" }

func (n *LeadNotifier) NotifyLead(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}
