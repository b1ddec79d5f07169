package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/doceeser/orderboard/internal/domain"
)

// orderDocument повторяет форму документа в коллекции заказов витрины.
type orderDocument struct {
	ID        string           `bson:"_id"`
	Status    string           `bson:"status"`
	CreatedAt time.Time        `bson:"createdAt"`
	Total     documentTotal    `bson:"total"`
	Customer  customerDocument `bson:"customer"`
	Items     []itemDocument   `bson:"items"`
}

type customerDocument struct {
	Name         string `bson:"nome,omitempty"`
	Phone        string `bson:"telefone,omitempty"`
	Street       string `bson:"rua,omitempty"`
	Number       string `bson:"numero,omitempty"`
	Neighborhood string `bson:"bairro,omitempty"`
}

// documentTotal пишется как decimal128, а читается из любого числового типа:
// витрина сохраняет сумму обычным числом.
type documentTotal struct {
	decimal.Decimal
}

func (t documentTotal) MarshalBSONValue() (bsontype.Type, []byte, error) {
	value, err := primitive.ParseDecimal128(t.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(value)
}

func (t *documentTotal) UnmarshalBSONValue(kind bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: kind, Value: data}
	switch kind {
	case bson.TypeDouble:
		t.Decimal = decimal.NewFromFloat(raw.Double())
	case bson.TypeInt32:
		t.Decimal = decimal.NewFromInt32(raw.Int32())
	case bson.TypeInt64:
		t.Decimal = decimal.NewFromInt(raw.Int64())
	case bson.TypeDecimal128:
		return t.parse(raw.Decimal128().String())
	case bson.TypeString:
		return t.parse(raw.StringValue())
	case bson.TypeNull, bson.TypeUndefined:
		t.Decimal = decimal.Zero
	default:
		return fmt.Errorf("unsupported total type %s", kind)
	}
	return nil
}

func (t *documentTotal) parse(raw string) error {
	if raw == "" || raw == "NaN" {
		t.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("decode total %q: %w", raw, err)
	}
	t.Decimal = parsed
	return nil
}

type itemDocument struct {
	Name     string   `bson:"name"`
	Quantity int      `bson:"quantity,omitempty"`
	Toppings []string `bson:"toppings,omitempty"`
}

func toDocument(order domain.Order) (orderDocument, error) {
	if _, err := primitive.ParseDecimal128(order.Total.String()); err != nil {
		return orderDocument{}, fmt.Errorf("encode total of %s: %w", order.ID, err)
	}

	doc := orderDocument{
		ID:        order.ID,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt.UTC(),
		Total:     documentTotal{order.Total},
		Customer: customerDocument{
			Name:         order.Customer.Name,
			Phone:        order.Customer.Phone,
			Street:       order.Customer.Street,
			Number:       order.Customer.Number,
			Neighborhood: order.Customer.Neighborhood,
		},
		Items: make([]itemDocument, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, itemDocument{
			Name:     item.Name,
			Quantity: item.Quantity,
			Toppings: append([]string(nil), item.Toppings...),
		})
	}
	return doc, nil
}

func fromDocument(doc orderDocument) domain.Order {
	order := domain.Order{
		ID:        doc.ID,
		Status:    domain.OrderStatus(doc.Status),
		CreatedAt: doc.CreatedAt.UTC(),
		Total:     doc.Total.Decimal,
		Customer: domain.Customer{
			Name:         doc.Customer.Name,
			Phone:        doc.Customer.Phone,
			Street:       doc.Customer.Street,
			Number:       doc.Customer.Number,
			Neighborhood: doc.Customer.Neighborhood,
		},
	}
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Toppings: append([]string(nil), item.Toppings...),
		})
	}
	return order
}
