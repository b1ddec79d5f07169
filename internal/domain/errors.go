package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order id is required")
	// Ошибка статуса вне допустимого набора.
	ErrInvalidStatus = errors.New("invalid order status")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("order total must be non-negative")
	// Ошибка при отрицательном количестве товара.
	ErrItemQtyInvalid = errors.New("item quantity must not be negative")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при повторном создании заказа с тем же ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrStoreUnavailable — хранилище не отвечает или отказало в доступе.
	ErrStoreUnavailable = errors.New("order store unavailable")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
