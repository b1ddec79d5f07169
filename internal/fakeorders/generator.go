// Package fakeorders генерирует правдоподобные заказы витрины для
// локального запуска доски и нагрузочного продюсера.
package fakeorders

import (
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/doceeser/orderboard/internal/domain"
)

var (
	sweets   = []string{"Brigadeiro", "Beijinho", "Bolo de pote", "Brownie", "Cupcake", "Pudim", "Trufa", "Cajuzinho"}
	toppings = []string{"granulado", "coco ralado", "morango", "leite ninho", "nutella", "castanha"}
)

// Generator выдаёт случайные заказы. Безопасен для конкурентного использования.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	now   func() time.Time
}

// New создаёт генератор. seed=0 выбирает случайное зерно.
func New(seed uint64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// Order возвращает новый заказ в статусе new с текущим временем.
func (g *Generator) Order() domain.Order {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := g.faker
	order := domain.Order{
		ID:        f.UUID(),
		Status:    domain.OrderStatusNew,
		CreatedAt: g.now().UTC(),
		Customer: domain.Customer{
			Name:         f.Name(),
			Phone:        f.Phone(),
			Street:       f.StreetName(),
			Number:       f.StreetNumber(),
			Neighborhood: f.City(),
		},
	}

	total := decimal.Zero
	lines := f.IntRange(1, 4)
	for i := 0; i < lines; i++ {
		item := domain.OrderItem{
			Name:     f.RandomString(sweets),
			Quantity: f.IntRange(1, 6),
		}
		for j := f.IntRange(0, 2); j > 0; j-- {
			item.Toppings = append(item.Toppings, f.RandomString(toppings))
		}
		price := decimal.NewFromFloat(f.Price(3, 25)).Round(2)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		order.Items = append(order.Items, item)
	}
	order.Total = total.Round(2)

	return order
}

// Orders возвращает n заказов; каждый следующий создан на step раньше предыдущего.
func (g *Generator) Orders(n int, step time.Duration) []domain.Order {
	orders := make([]domain.Order, 0, n)
	for i := 0; i < n; i++ {
		order := g.Order()
		order.CreatedAt = order.CreatedAt.Add(-time.Duration(i) * step)
		order.Status = domain.OrderStatuses()[i%len(domain.OrderStatuses())]
		orders = append(orders, order)
	}
	return orders
}
