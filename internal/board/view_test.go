package board

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/doceeser/orderboard/internal/domain"
)

func TestNewCard_Fallbacks(t *testing.T) {
	card := NewCard(domain.Order{ID: "A", Status: domain.OrderStatusNew})

	assert.Equal(t, "Novo", card.StatusLabel)
	assert.Equal(t, "—", card.Customer)
	assert.Empty(t, card.Phone)
	assert.Empty(t, card.Address)
	assert.Empty(t, card.Total)
	assert.Empty(t, card.CreatedAt)
	assert.Len(t, card.Actions, 3)
}

func TestNewCard_Full(t *testing.T) {
	order := domain.Order{
		ID:        "A",
		Status:    domain.OrderStatusReady,
		CreatedAt: time.Date(2024, 12, 7, 18, 30, 0, 0, time.Local),
		Total:     decimal.RequireFromString("42.5"),
		Customer: domain.Customer{
			Name:         "Maria",
			Phone:        "11 99999-0000",
			Street:       "Rua das Flores",
			Number:       "12",
			Neighborhood: "Centro",
		},
		Items: []domain.OrderItem{
			{Name: "Brigadeiro", Quantity: 3, Toppings: []string{"granulado", "morango"}},
			{Name: "Bolo de pote"},
		},
	}

	card := NewCard(order)
	assert.Equal(t, "Pronto", card.StatusLabel)
	assert.Equal(t, "R$ 42,50", card.Total)
	assert.Equal(t, "07/12/2024 18:30", card.CreatedAt)
	assert.Equal(t, "Rua das Flores, 12 — Centro", card.Address)
	assert.Equal(t, []string{"3x Brigadeiro (+granulado, morango)", "1x Bolo de pote"}, card.Items)
}

func TestNewCard_UnknownStatusShownAsIs(t *testing.T) {
	card := NewCard(domain.Order{ID: "A", Status: "novo"})
	assert.Equal(t, "novo", card.StatusLabel)
}
