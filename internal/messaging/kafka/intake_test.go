package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/metrics"
)

type recordingCreator struct {
	mu      sync.Mutex
	created []domain.Order
	err     error
}

func (r *recordingCreator) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.Order{}, r.err
	}
	r.created = append(r.created, order)
	return order, nil
}

func intakeCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "board_intake_orders_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func newIntakeForTest(creator OrderCreator) (*IntakeHandler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewIntakeHandler(creator, metrics.NewBoardMetricsWithRegisterer(reg), nil), reg
}

func TestIntakeHandler_AcceptsValidOrder(t *testing.T) {
	creator := &recordingCreator{}
	handler, reg := newIntakeForTest(creator)

	msg := &sarama.ConsumerMessage{Value: []byte(`{
		"event_type": "order.placed",
		"order_id": "A",
		"total": "25.90",
		"customer": {"name": "Ana", "street": "Rua 1", "number": "10"},
		"items": [{"name": "Brigadeiro", "quantity": 3, "toppings": ["granulado"]}]
	}`)}

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Len(t, creator.created, 1)

	order := creator.created[0]
	require.Equal(t, "A", order.ID)
	require.Equal(t, domain.OrderStatusNew, order.Status)
	require.Equal(t, "25.90", domain.FormatTotal(order.Total))
	require.Equal(t, 3, order.Items[0].Quantity)
	require.Equal(t, 1.0, intakeCount(t, reg, IntakeAccepted))
}

func TestIntakeHandler_RejectsInvalidEvents(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{`,
		"wrong type":     `{"event_type":"order.alert","items":[{"name":"Bolo"}]}`,
		"no items":       `{"event_type":"order.placed","items":[]}`,
		"unnamed item":   `{"event_type":"order.placed","items":[{"quantity":1}]}`,
		"negative total": `{"event_type":"order.placed","total":"-1","items":[{"name":"Bolo"}]}`,
		"negative qty":   `{"event_type":"order.placed","items":[{"name":"Bolo","quantity":-2}]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			creator := &recordingCreator{}
			handler, reg := newIntakeForTest(creator)

			err := handler.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(payload)})
			require.ErrorIs(t, err, ErrPermanent)
			require.Empty(t, creator.created)
			require.Equal(t, 1.0, intakeCount(t, reg, IntakeInvalid))
		})
	}
}

func TestIntakeHandler_DuplicateIsAcknowledged(t *testing.T) {
	handler, reg := newIntakeForTest(&recordingCreator{err: domain.ErrOrderExists})

	msg := &sarama.ConsumerMessage{Value: []byte(`{"event_type":"order.placed","order_id":"A","items":[{"name":"Bolo"}]}`)}
	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Equal(t, 1.0, intakeCount(t, reg, IntakeDuplicate))
}

func TestIntakeHandler_StoreFailureIsRetryable(t *testing.T) {
	handler, reg := newIntakeForTest(&recordingCreator{err: domain.ErrStoreUnavailable})

	msg := &sarama.ConsumerMessage{Value: []byte(`{"event_type":"order.placed","items":[{"name":"Bolo"}]}`)}
	err := handler.Handle(context.Background(), msg)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrPermanent))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.Equal(t, 1.0, intakeCount(t, reg, IntakeFailed))
}

func TestIntakeHandler_NilMetrics(t *testing.T) {
	handler := NewIntakeHandler(&recordingCreator{}, nil, nil)
	msg := &sarama.ConsumerMessage{Value: []byte(`{"event_type":"order.placed","items":[{"name":"Bolo"}]}`)}
	require.NoError(t, handler.Handle(context.Background(), msg))
}

