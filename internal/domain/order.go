package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает стадию заказа на доске администратора.
type OrderStatus string

const (
	// OrderStatusNew — заказ только что поступил.
	OrderStatusNew OrderStatus = "new"
	// OrderStatusPreparing — заказ готовится.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusReady — заказ готов к выдаче.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusDelivered — заказ передан клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
)

// FilterAll — значение фильтра, при котором доска показывает все заказы.
const FilterAll = "all"

var statusLabels = map[OrderStatus]string{
	OrderStatusNew:       "Novo",
	OrderStatusPreparing: "Preparando",
	OrderStatusReady:     "Pronto",
	OrderStatusDelivered: "Entregue",
}

// OrderStatuses возвращает статусы в порядке прохождения заказа.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusNew, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered}
}

// Valid сообщает, входит ли значение в допустимый набор статусов.
func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label возвращает подпись статуса для оператора.
// Неизвестные значения отображаются как есть.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseOrderStatus приводит строку к OrderStatus. Регистр и пробелы по краям игнорируются.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Customer — контактные данные клиента. Все поля необязательные.
type Customer struct {
	Name         string
	Phone        string
	Street       string
	Number       string
	Neighborhood string
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	Name string
	// Quantity == 0 трактуется как одна единица.
	Quantity int
	Toppings []string
}

// EffectiveQuantity возвращает количество с учётом значения по умолчанию.
func (i OrderItem) EffectiveQuantity() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// Order — запись заказа в хранилище.
type Order struct {
	ID        string
	Status    OrderStatus
	CreatedAt time.Time
	Total     decimal.Decimal
	Customer  Customer
	Items     []OrderItem
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if o.Status != "" && !o.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if o.Total.IsNegative() {
		errs = append(errs, ErrTotalNegative)
	}
	for _, item := range o.Items {
		if item.Quantity < 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}

	return errs
}

// SortByCreatedDesc сортирует заказы по CreatedAt от новых к старым.
// При равном времени порядок определяется ID по убыванию.
func SortByCreatedDesc(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

// FilterByStatus возвращает заказы с указанным статусом, сохраняя порядок.
// Для FilterAll возвращается копия всего списка.
func FilterByStatus(orders []Order, filter string) []Order {
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		if filter == FilterAll || string(order.Status) == filter {
			result = append(result, order)
		}
	}
	return result
}

// ValidFilter проверяет значение фильтра доски.
func ValidFilter(filter string) bool {
	return filter == FilterAll || OrderStatus(filter).Valid()
}
