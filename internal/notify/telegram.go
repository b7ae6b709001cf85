package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"daily_quest/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramConfig struct {
	BotToken string
	ChatID   int64
	Debug    bool

	// Endpoint overrides the Bot API URL template, e.g. for tests.
	Endpoint string
	Client   *http.Client
}

// Telegram sends feedback as a plain text message to a chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.BotToken) == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: %w", ErrNotConfigured)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = cfg.Debug

	return &Telegram{
		bot:    bot,
		chatID: cfg.ChatID,
	}, nil
}

func telegramText(feedback model.Feedback) string {
	return fmt.Sprintf("%s\nSession: %s\n\n%s\n\n%s",
		feedbackTitle,
		sessionLabel(feedback),
		truncate(feedback.Message, MaxMessageLength),
		feedbackFooter,
	)
}

// Notify returns as soon as ctx is done. The bot client has no per-call
// context, so an abandoned send still runs until the client timeout.
func (t *Telegram) Notify(ctx context.Context, feedback model.Feedback) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, telegramText(feedback))
	msg.DisableWebPagePreview = true

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram: %w", ctx.Err())
	}
}
