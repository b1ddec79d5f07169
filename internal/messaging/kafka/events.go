package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/notify"
)

// EventType определяет тип события
type EventType string

const (
	// EventTypeOrderPlaced — витрина приняла заказ.
	EventTypeOrderPlaced EventType = "order.placed"
	// EventTypeOrderAlert — доска объявила о новом заказе.
	EventTypeOrderAlert EventType = "order.alert"
)

// Topics для Kafka
const (
	TopicOrderIntake     = "doceeser.orders.intake"
	TopicOrderAlerts     = "doceeser.orders.alerts"
	TopicDeadLetterQueue = "doceeser.orders.dlq"
)

// Kafka headers для retry логики
const (
	HeaderRetryCount = "x-retry-count"
)

// PlacedCustomer — данные клиента в событии order.placed.
type PlacedCustomer struct {
	Name         string `json:"name,omitempty" validate:"max=120"`
	Phone        string `json:"phone,omitempty" validate:"max=32"`
	Street       string `json:"street,omitempty" validate:"max=160"`
	Number       string `json:"number,omitempty" validate:"max=16"`
	Neighborhood string `json:"neighborhood,omitempty" validate:"max=120"`
}

// PlacedItem — позиция заказа в событии order.placed.
type PlacedItem struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Quantity int      `json:"quantity,omitempty" validate:"gte=0,lte=999"`
	Toppings []string `json:"toppings,omitempty" validate:"dive,required,max=80"`
}

// OrderPlacedEvent публикуется витриной при оформлении заказа.
type OrderPlacedEvent struct {
	EventType EventType       `json:"event_type" validate:"required,eq=order.placed"`
	OrderID   string          `json:"order_id,omitempty" validate:"omitempty,max=64"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total" validate:"gte=0"`
	Customer  PlacedCustomer  `json:"customer"`
	Items     []PlacedItem    `json:"items" validate:"required,min=1,dive"`
}

// Order переводит событие в доменный заказ в статусе new.
func (e *OrderPlacedEvent) Order() domain.Order {
	order := domain.Order{
		ID:        e.OrderID,
		Status:    domain.OrderStatusNew,
		CreatedAt: e.CreatedAt.UTC(),
		Total:     e.Total,
		Customer: domain.Customer{
			Name:         e.Customer.Name,
			Phone:        e.Customer.Phone,
			Street:       e.Customer.Street,
			Number:       e.Customer.Number,
			Neighborhood: e.Customer.Neighborhood,
		},
		Items: make([]domain.OrderItem, 0, len(e.Items)),
	}
	for _, item := range e.Items {
		order.Items = append(order.Items, domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Toppings: append([]string(nil), item.Toppings...),
		})
	}
	return order
}

// NewOrderPlacedEvent строит событие order.placed из заказа.
func NewOrderPlacedEvent(order domain.Order) *OrderPlacedEvent {
	event := &OrderPlacedEvent{
		EventType: EventTypeOrderPlaced,
		OrderID:   order.ID,
		CreatedAt: order.CreatedAt,
		Total:     order.Total,
		Customer: PlacedCustomer{
			Name:         order.Customer.Name,
			Phone:        order.Customer.Phone,
			Street:       order.Customer.Street,
			Number:       order.Customer.Number,
			Neighborhood: order.Customer.Neighborhood,
		},
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, PlacedItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Toppings: append([]string(nil), item.Toppings...),
		})
	}
	return event
}

// OrderAlertEvent дублирует системное уведомление о новом заказе в Kafka.
type OrderAlertEvent struct {
	EventType EventType `json:"event_type"`
	OrderID   string    `json:"order_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderAlertEvent создает событие order.alert из уведомления.
func NewOrderAlertEvent(n notify.Notification) *OrderAlertEvent {
	return &OrderAlertEvent{
		EventType: EventTypeOrderAlert,
		OrderID:   n.OrderID,
		Title:     n.Title,
		Body:      n.Body,
		Total:     n.Total,
		Timestamp: time.Now().UTC(),
	}
}

// ParseOrderPlacedEvent парсит OrderPlacedEvent из сообщения
func ParseOrderPlacedEvent(message *sarama.ConsumerMessage) (*OrderPlacedEvent, error) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order placed event: %w", err)
	}
	return &event, nil
}

// ParseOrderAlertEvent парсит OrderAlertEvent из сообщения
func ParseOrderAlertEvent(message *sarama.ConsumerMessage) (*OrderAlertEvent, error) {
	var event OrderAlertEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order alert event: %w", err)
	}
	return &event, nil
}
