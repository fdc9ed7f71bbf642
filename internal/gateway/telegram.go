package gateway

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramAPI is the slice of the Bot API client the adapter needs; the
// concrete *tgbotapi.BotAPI satisfies it, and tests substitute a stub.
type telegramAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram adapts the Bot API to the Gateway interface, classifying API
// errors into transient and permanent failures.
type Telegram struct {
	api telegramAPI
}

// NewTelegram authenticates against the Bot API with the given token.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: bot}, nil
}

// newTelegramWithAPI is the test seam.
func newTelegramWithAPI(api telegramAPI) *Telegram {
	return &Telegram{api: api}
}

// Send delivers text to chatID. Context cancellation is honored before the
// request is issued; the Bot API client itself does not take a context.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return Transient(err)
	}
	_, err := t.api.Request(tgbotapi.NewMessage(chatID, text))
	if err == nil {
		return nil
	}
	return classify(err)
}

// classify maps Bot API errors to the gateway failure taxonomy. The API
// reports a blocked or deleted recipient as a 403 with a descriptive
// message; everything else (429 throttling, 5xx, network) is retryable.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		low := strings.ToLower(apiErr.Message)
		if apiErr.Code == 403 ||
			strings.Contains(low, "blocked") ||
			strings.Contains(low, "deactivated") ||
			strings.Contains(low, "chat not found") {
			return Permanent(err)
		}
	}
	return Transient(err)
}
