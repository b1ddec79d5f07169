package notify

import (
	"context"
	"fmt"

	"github.com/doceeser/orderboard/internal/domain"
)

// Title — заголовок оповещения о новом заказе.
const Title = "Novo pedido recebido!"

// Permission — ответ пользователя на запрос разрешения системных уведомлений.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// ParsePermission приводит строку к Permission; неизвестные значения дают PermissionDefault.
func ParsePermission(raw string) Permission {
	switch Permission(raw) {
	case PermissionGranted, PermissionDenied:
		return Permission(raw)
	default:
		return PermissionDefault
	}
}

// Notification — системное уведомление о заказе.
// Tag совпадает с ID заказа: получатель может схлопывать повторы.
type Notification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Tag     string `json:"tag"`
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
}

// ForOrder строит уведомление для нового заказа.
func ForOrder(order domain.Order) Notification {
	total := domain.FormatTotal(order.Total)
	return Notification{
		Title:   Title,
		Body:    fmt.Sprintf("Pedido #%s - R$ %s", order.ID, total),
		Tag:     order.ID,
		OrderID: order.ID,
		Total:   total,
	}
}

// SystemNotifier доставляет системные уведомления.
type SystemNotifier interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, n Notification) error
}

// SoundPlayer проигрывает звук оповещения.
type SoundPlayer interface {
	Play(ctx context.Context) error
}
