package board

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/metrics"
)

// StatusUpdateFailedMessage — текст блокирующего сообщения оператору.
const StatusUpdateFailedMessage = "Erro ao atualizar status."

// OperatorAlert — ошибка, которую нужно показать оператору как блокирующее сообщение.
type OperatorAlert struct {
	Message string
	Err     error
}

func (a *OperatorAlert) Error() string {
	if a.Err == nil {
		return a.Message
	}
	return a.Message + ": " + a.Err.Error()
}

func (a *OperatorAlert) Unwrap() error {
	return a.Err
}

// StatusMutator записывает новый статус заказа в хранилище.
// Текущий статус не проверяется: разрешён любой переход. Локальное состояние
// доски не меняется, новый статус придёт следующим снимком ленты.
type StatusMutator struct {
	store   domain.StatusWriter
	logger  *log.Entry
	metrics *metrics.BoardMetrics
	timeout time.Duration
}

// NewStatusMutator создаёт StatusMutator. timeout <= 0 отключает собственный таймаут.
func NewStatusMutator(store domain.StatusWriter, logger *log.Entry, m *metrics.BoardMetrics, timeout time.Duration) *StatusMutator {
	if logger == nil {
		logger = log.WithField("component", "status-mutator")
	}
	return &StatusMutator{store: store, logger: logger, metrics: m, timeout: timeout}
}

// SetStatus записывает статус. Отказ хранилища возвращается как *OperatorAlert,
// повтор не выполняется.
func (m *StatusMutator) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if orderID == "" {
		return domain.ErrOrderIDRequired
	}
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	err := m.store.UpdateStatus(ctx, orderID, status)
	m.metrics.RecordStatusUpdate(err, time.Since(start))

	entry := m.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   status,
	})
	if err != nil {
		entry.WithError(err).Error("failed to update order status")
		return &OperatorAlert{Message: StatusUpdateFailedMessage, Err: err}
	}
	entry.Info("order status updated")
	return nil
}
