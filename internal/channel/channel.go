// Package channel abstracts "send one notification" over concrete
// delivery mechanisms. Email is the primary channel; Telegram serves as
// the secondary one.
package channel

import (
	"context"

	"datapact/internal/models"
)

// SendResult is the per-notification outcome of a batch send.
type SendResult struct {
	Notification models.Notification
	Success      bool
	ErrorMessage string
}

// Channel delivers notifications. Send reports (success, errorMessage)
// rather than an error: delivery failure is expected bookkeeping, not a
// caller fault.
type Channel interface {
	Send(ctx context.Context, n models.Notification) (bool, string)
	SendBatch(ctx context.Context, ns []models.Notification) []SendResult
	Close() error
}

// sendEach implements SendBatch as sequential Sends; shared by channels
// without a native batch API.
func sendEach(ctx context.Context, ch Channel, ns []models.Notification) []SendResult {
	results := make([]SendResult, 0, len(ns))
	for _, n := range ns {
		ok, errMsg := ch.Send(ctx, n)
		results = append(results, SendResult{Notification: n, Success: ok, ErrorMessage: errMsg})
	}
	return results
}
