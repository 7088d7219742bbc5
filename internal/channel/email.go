package channel

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"datapact/internal/config"
	"datapact/internal/logging"
	"datapact/internal/models"
	"datapact/pkg/email"
)

// EmailChannel delivers notifications over SMTP as multipart text+HTML
// mail, throttled by a shared outbound rate limiter.
type EmailChannel struct {
	cfg     config.Config
	logger  *logging.Logger
	limiter *rate.Limiter
}

// NewEmailChannel constructs an EmailChannel from the process config.
func NewEmailChannel(cfg config.Config, logger *logging.Logger) *EmailChannel {
	perSecond := cfg.Notification.SendRatePerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	return &EmailChannel{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(perSecond)), perSecond),
	}
}

// Send delivers one notification.
func (c *EmailChannel) Send(ctx context.Context, n models.Notification) (bool, string) {
	if c.cfg.Email.SMTPServer == "" {
		return false, "missing Email configuration: SMTPServer is empty"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Sprintf("send rate limiter: %v", err)
	}

	err := email.Send(c.cfg.Email.SMTPServer, c.cfg.Email.SMTPPort,
		c.cfg.Email.Username, c.cfg.Email.Password, email.Message{
			From:     c.cfg.Email.FromEmail,
			FromName: c.cfg.Email.FromName,
			To:       n.RecipientEmail,
			Subject:  n.Subject,
			BodyText: n.BodyText,
			BodyHTML: n.BodyHTML,
		})
	if err != nil {
		c.logger.Errorf("Failed to send email to %s: %v", n.RecipientEmail, err)
		return false, fmt.Sprintf("SMTP error: %v", err)
	}

	c.logger.Infof("Sent email to %s", n.RecipientEmail)
	return true, ""
}

// SendBatch delivers notifications sequentially.
func (c *EmailChannel) SendBatch(ctx context.Context, ns []models.Notification) []SendResult {
	return sendEach(ctx, c, ns)
}

// Close releases resources. SMTP connections are per-send, so nothing to
// close.
func (c *EmailChannel) Close() error {
	return nil
}
