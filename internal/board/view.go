package board

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/doceeser/orderboard/internal/domain"
)

const (
	placeholder  = "—"
	timeLayout   = "02/01/2006 15:04"
	emptyMessage = "Nenhum pedido encontrado."
	loadingLabel = "Carregando pedidos..."
	bannerText   = "Novo pedido recebido!"
)

// View — модель отображения доски.
type View struct {
	Filter        string         `json:"filter"`
	Filters       []FilterOption `json:"filters"`
	Loading       bool           `json:"loading"`
	BannerVisible bool           `json:"banner_visible"`
	BannerText    string         `json:"banner_text"`
	Cards         []Card         `json:"cards"`
	EmptyMessage  string         `json:"empty_message,omitempty"`
	LoadingLabel  string         `json:"loading_label,omitempty"`
}

// FilterOption — вариант переключателя фильтра.
type FilterOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Card — карточка заказа.
type Card struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	StatusLabel string       `json:"status_label"`
	CreatedAt   string       `json:"created_at"`
	Total       string       `json:"total"`
	Customer    string       `json:"customer"`
	Phone       string       `json:"phone"`
	Address     string       `json:"address"`
	Items       []string     `json:"items"`
	Actions     []CardAction `json:"actions"`
}

// CardAction — кнопка перевода заказа в другой статус.
type CardAction struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// transitionActions — кнопки на карточке. Переход из любого статуса в любой
// разрешён, кнопка "Novo" не выводится.
var transitionActions = []CardAction{
	{Status: string(domain.OrderStatusPreparing), Label: domain.OrderStatusPreparing.Label()},
	{Status: string(domain.OrderStatusReady), Label: domain.OrderStatusReady.Label()},
	{Status: string(domain.OrderStatusDelivered), Label: domain.OrderStatusDelivered.Label()},
}

func buildView(orders []domain.Order, filter string, loading, banner bool) View {
	view := View{
		Filter:        filter,
		Filters:       filterOptions(filter),
		Loading:       loading,
		BannerVisible: banner,
		BannerText:    bannerText,
		Cards:         make([]Card, 0, len(orders)),
	}
	if loading {
		view.LoadingLabel = loadingLabel
	}
	for _, order := range orders {
		view.Cards = append(view.Cards, NewCard(order))
	}
	if !loading && len(view.Cards) == 0 {
		view.EmptyMessage = emptyMessage
	}
	return view
}

func filterOptions(selected string) []FilterOption {
	options := []FilterOption{{Value: domain.FilterAll, Label: "Todos", Selected: selected == domain.FilterAll}}
	for _, status := range domain.OrderStatuses() {
		options = append(options, FilterOption{
			Value:    string(status),
			Label:    status.Label(),
			Selected: selected == string(status),
		})
	}
	return options
}

// NewCard строит карточку заказа с подстановкой "—" для пустых полей.
func NewCard(order domain.Order) Card {
	card := Card{
		ID:          order.ID,
		Status:      string(order.Status),
		StatusLabel: order.Status.Label(),
		Total:       formatTotal(order.Total),
		Customer:    orPlaceholder(order.Customer.Name),
		Phone:       order.Customer.Phone,
		Address:     formatAddress(order.Customer),
		Items:       make([]string, 0, len(order.Items)),
		Actions:     transitionActions,
	}
	if order.CreatedAt.IsZero() {
		card.CreatedAt = ""
	} else {
		card.CreatedAt = order.CreatedAt.Local().Format(timeLayout)
	}
	for _, item := range order.Items {
		card.Items = append(card.Items, FormatItem(item))
	}
	return card
}

// FormatItem возвращает строку вида "2x Brigadeiro (+granulado, morango)".
func FormatItem(item domain.OrderItem) string {
	line := fmt.Sprintf("%dx %s", item.EffectiveQuantity(), item.Name)
	if len(item.Toppings) > 0 {
		line += " (+" + strings.Join(item.Toppings, ", ") + ")"
	}
	return line
}

// formatAddress возвращает пустую строку, если улица не указана.
func formatAddress(c domain.Customer) string {
	if strings.TrimSpace(c.Street) == "" {
		return ""
	}
	return fmt.Sprintf("%s, %s — %s", c.Street, c.Number, c.Neighborhood)
}

// formatTotal не выводит нулевую сумму.
func formatTotal(total decimal.Decimal) string {
	if total.IsZero() {
		return ""
	}
	return domain.FormatBRL(total)
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
