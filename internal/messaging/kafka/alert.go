package kafka

import (
	"context"
	"fmt"

	"github.com/doceeser/orderboard/internal/notify"
)

// AlertNotifier публикует уведомления о новых заказах в топик алертов.
// Реализует notify.SystemNotifier; разрешение всегда выдано.
type AlertNotifier struct {
	publisher EventPublisher
	topic     string
}

var _ notify.SystemNotifier = (*AlertNotifier)(nil)

// NewAlertNotifier создает AlertNotifier. Пустой topic заменяется на TopicOrderAlerts.
func NewAlertNotifier(publisher EventPublisher, topic string) *AlertNotifier {
	if topic == "" {
		topic = TopicOrderAlerts
	}
	return &AlertNotifier{publisher: publisher, topic: topic}
}

// RequestPermission реализует notify.SystemNotifier.
func (a *AlertNotifier) RequestPermission(context.Context) (notify.Permission, error) {
	return notify.PermissionGranted, nil
}

// Show публикует событие order.alert с ключом по ID заказа.
func (a *AlertNotifier) Show(ctx context.Context, n notify.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.publisher.PublishEvent(a.topic, n.OrderID, NewOrderAlertEvent(n)); err != nil {
		return fmt.Errorf("publish order alert: %w", err)
	}
	return nil
}
