package channel

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"datapact/internal/config"
	"datapact/internal/logging"
	"datapact/internal/models"
)

// TelegramChannel delivers notifications to a configured chat via the
// Telegram bot API. Telegram caps bots around 30 messages per second, so
// sends go through a limiter.
type TelegramChannel struct {
	token   string
	chatID  int64
	logger  *logging.Logger
	limiter *rate.Limiter
}

// NewTelegramChannel constructs a TelegramChannel from the process config.
func NewTelegramChannel(cfg config.Config, logger *logging.Logger) *TelegramChannel {
	return &TelegramChannel{
		token:   cfg.Telegram.BotToken,
		chatID:  cfg.Telegram.ChatID,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(25), 25),
	}
}

// Send delivers one notification as a text message.
func (c *TelegramChannel) Send(ctx context.Context, n models.Notification) (bool, string) {
	if c.token == "" {
		return false, "missing bot_token in Telegram configuration"
	}
	if c.chatID == 0 {
		return false, "missing chat_id in Telegram configuration"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Sprintf("send rate limiter: %v", err)
	}

	b, err := bot.New(c.token)
	if err != nil {
		return false, fmt.Sprintf("failed to initialize Telegram bot: %v", err)
	}

	text := fmt.Sprintf("*%s*\n\n%s", n.Subject, n.BodyText)
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		c.logger.Errorf("Failed to send Telegram message to chat_id %d: %v", c.chatID, err)
		return false, fmt.Sprintf("telegram error: %v", err)
	}

	c.logger.Infof("Sent Telegram message for notification %s", n.ID)
	return true, ""
}

// SendBatch delivers notifications sequentially.
func (c *TelegramChannel) SendBatch(ctx context.Context, ns []models.Notification) []SendResult {
	return sendEach(ctx, c, ns)
}

// Close releases resources.
func (c *TelegramChannel) Close() error {
	return nil
}
