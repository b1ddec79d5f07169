package kafka

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/metrics"
)

// Результаты приёма заказа для метрик.
const (
	IntakeAccepted  = "accepted"
	IntakeDuplicate = "duplicate"
	IntakeInvalid   = "invalid"
	IntakeFailed    = "failed"
)

// OrderCreator сохраняет новый заказ.
type OrderCreator interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
}

// IntakeHandler принимает события order.placed и записывает заказы в хранилище,
// откуда их подхватывает живая подписка доски.
type IntakeHandler struct {
	store    OrderCreator
	validate *validator.Validate
	metrics  *metrics.BoardMetrics
	logger   *log.Entry
}

// NewIntakeHandler создает обработчик входящих заказов.
func NewIntakeHandler(store OrderCreator, m *metrics.BoardMetrics, logger *log.Entry) *IntakeHandler {
	if logger == nil {
		logger = log.WithField("component", "order-intake")
	}
	return &IntakeHandler{
		store:    store,
		validate: newValidator(),
		metrics:  m,
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate проверяет событие и доменные инварианты заказа.
func (h *IntakeHandler) Validate(event *OrderPlacedEvent) error {
	if err := h.validate.Struct(event); err != nil {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	order := event.Order()
	order.ID = "pending"
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPermanent, errors.Join(errs...))
	}
	return nil
}

// Handle реализует MessageHandler.
func (h *IntakeHandler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := ParseOrderPlacedEvent(message)
	if err != nil {
		h.metrics.RecordIntake(IntakeInvalid)
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	if err := h.Validate(event); err != nil {
		h.metrics.RecordIntake(IntakeInvalid)
		h.logger.WithError(err).WithField("order_id", event.OrderID).Warn("rejected invalid order event")
		return err
	}

	order, err := h.store.Create(ctx, event.Order())
	switch {
	case errors.Is(err, domain.ErrOrderExists):
		h.metrics.RecordIntake(IntakeDuplicate)
		h.logger.WithField("order_id", event.OrderID).Debug("order already stored")
		return nil
	case err != nil:
		h.metrics.RecordIntake(IntakeFailed)
		return fmt.Errorf("store order: %w", err)
	}

	h.metrics.RecordIntake(IntakeAccepted)
	h.logger.WithFields(log.Fields{
		"order_id":  order.ID,
		"partition": message.Partition,
		"offset":    message.Offset,
	}).Info("order accepted from kafka")
	return nil
}
