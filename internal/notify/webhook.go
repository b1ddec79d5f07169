package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/doceeser/orderboard/internal/version"
)

// WebhookNotifier отправляет уведомления POST-запросом с JSON-телом.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier создаёт получателя с таймаутом и двумя повторами.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", version.UserAgent())
	return &WebhookNotifier{client: client, url: url}
}

// RequestPermission реализует SystemNotifier.
func (w *WebhookNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

// Show реализует SystemNotifier.
func (w *WebhookNotifier) Show(ctx context.Context, notification Notification) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(notification).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode())
	}
	return nil
}
