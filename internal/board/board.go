package board

import (
	"sync"

	"github.com/doceeser/orderboard/internal/domain"
)

// Board — состояние доски одной сессии: последний опубликованный список,
// индикатор загрузки, видимость баннера и выбранный фильтр.
type Board struct {
	mu      sync.RWMutex
	orders  []domain.Order
	loading bool
	banner  bool
	filter  string
	changes chan struct{}
}

// New создаёт пустую доску с фильтром "all".
func New() *Board {
	return &Board{
		filter:  domain.FilterAll,
		changes: make(chan struct{}, 1),
	}
}

// Publish заменяет список заказов целиком.
func (b *Board) Publish(orders []domain.Order) {
	list := make([]domain.Order, len(orders))
	copy(list, orders)

	b.mu.Lock()
	b.orders = list
	b.mu.Unlock()
	b.notify()
}

// SetLoading включает или выключает индикатор загрузки.
func (b *Board) SetLoading(loading bool) {
	b.mu.Lock()
	changed := b.loading != loading
	b.loading = loading
	b.mu.Unlock()
	if changed {
		b.notify()
	}
}

// SetBanner отражает видимость баннера о новом заказе.
func (b *Board) SetBanner(visible bool) {
	b.mu.Lock()
	changed := b.banner != visible
	b.banner = visible
	b.mu.Unlock()
	if changed {
		b.notify()
	}
}

// SetFilter выбирает статус для отображения. Запрос в хранилище не выполняется.
func (b *Board) SetFilter(filter string) error {
	if !domain.ValidFilter(filter) {
		return domain.ErrInvalidStatus
	}
	b.mu.Lock()
	changed := b.filter != filter
	b.filter = filter
	b.mu.Unlock()
	if changed {
		b.notify()
	}
	return nil
}

// Filter возвращает выбранный фильтр.
func (b *Board) Filter() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Orders возвращает полный опубликованный список.
func (b *Board) Orders() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Order(nil), b.orders...)
}

// Filtered возвращает заказы, попадающие под текущий фильтр.
func (b *Board) Filtered() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.FilterByStatus(b.orders, b.filter)
}

// Loading сообщает, идёт ли первая загрузка.
func (b *Board) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// BannerVisible сообщает, показан ли баннер.
func (b *Board) BannerVisible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.banner
}

// Changes сигнализирует об изменениях. Несколько изменений подряд дают один сигнал.
func (b *Board) Changes() <-chan struct{} {
	return b.changes
}

// View строит модель отображения текущего состояния.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return buildView(domain.FilterByStatus(b.orders, b.filter), b.filter, b.loading, b.banner)
}

func (b *Board) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}
