package domain

import "context"

// Snapshot — полный список заказов в момент изменения коллекции.
// Непустой Err означает, что подписка завершилась с ошибкой и других снимков не будет.
type Snapshot struct {
	Orders []Order
	Err    error
}

// OrderWatcher — живая подписка на коллекцию заказов.
type OrderWatcher interface {
	// Watch отдаёт начальный снимок, затем по снимку на каждое изменение.
	// Канал закрывается после отмены ctx или после снимка с ошибкой.
	Watch(ctx context.Context) (<-chan Snapshot, error)
}

// StatusWriter меняет только поле status у заказа.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

// OrderStore описывает требования к хранилищу заказов.
type OrderStore interface {
	OrderWatcher
	StatusWriter
	// Create сохраняет новый заказ. Пустой ID и нулевой CreatedAt заполняет хранилище.
	Create(ctx context.Context, order Order) (Order, error)
	// List возвращает все заказы, отсортированные по CreatedAt по убыванию.
	List(ctx context.Context) ([]Order, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}
