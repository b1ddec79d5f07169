package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doceeser/orderboard/internal/domain"
)

// orderStoreInMemory — in-memory реализация OrderStore с живыми подписками.
type orderStoreInMemory struct {
	mu       sync.RWMutex
	items    map[string]domain.Order
	watchers map[*watcher]struct{}
	now      func() time.Time
}

// watcher получает сигнал об изменении коллекции. Буфер на один сигнал:
// несколько изменений подряд схлопываются в один снимок.
type watcher struct {
	signal chan struct{}
}

// Option настраивает in-memory хранилище.
type Option func(*orderStoreInMemory)

// WithClock подменяет источник времени для CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *orderStoreInMemory) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOrderStore возвращает in-memory хранилище для локальной разработки и тестов.
func NewOrderStore(opts ...Option) domain.OrderStore {
	s := &orderStoreInMemory{
		items:    make(map[string]domain.Order),
		watchers: make(map[*watcher]struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (s *orderStoreInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusNew
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderExists
	}
	s.items[order.ID] = cloneOrder(order)
	s.broadcastLocked()
	return cloneOrder(order), nil
}

// List возвращает все заказы от новых к старым.
func (s *orderStoreInMemory) List(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(), nil
}

// UpdateStatus перезаписывает только статус заказа.
func (s *orderStoreInMemory) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	s.items[id] = order
	s.broadcastLocked()
	return nil
}

// Watch отдаёт текущий список и затем новый список после каждого изменения.
func (s *orderStoreInMemory) Watch(ctx context.Context) (<-chan domain.Snapshot, error) {
	w := &watcher{signal: make(chan struct{}, 1)}
	// Первый снимок отдаём сразу.
	w.signal <- struct{}{}

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	out := make(chan domain.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.watchers, w)
			s.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
			}

			s.mu.RLock()
			orders := s.listLocked()
			s.mu.RUnlock()

			select {
			case <-ctx.Done():
				return
			case out <- domain.Snapshot{Orders: orders}:
			}
		}
	}()

	return out, nil
}

// Ping всегда успешен.
func (s *orderStoreInMemory) Ping(context.Context) error {
	return nil
}

func (s *orderStoreInMemory) listLocked() []domain.Order {
	result := make([]domain.Order, 0, len(s.items))
	for _, order := range s.items {
		result = append(result, cloneOrder(order))
	}
	domain.SortByCreatedDesc(result)
	return result
}

func (s *orderStoreInMemory) broadcastLocked() {
	for w := range s.watchers {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

func cloneOrder(order domain.Order) domain.Order {
	if order.Items != nil {
		items := make([]domain.OrderItem, len(order.Items))
		for i, item := range order.Items {
			item.Toppings = append([]string(nil), item.Toppings...)
			items[i] = item
		}
		order.Items = items
	}
	return order
}

var _ domain.OrderStore = (*orderStoreInMemory)(nil)
