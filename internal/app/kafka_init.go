package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/feed"
	"github.com/doceeser/orderboard/internal/messaging/kafka"
	"github.com/doceeser/orderboard/internal/metrics"
	"github.com/doceeser/orderboard/internal/notify"
)

const (
	intakeMaxRetries = 3
	webhookTimeout   = 3 * time.Second
)

// intakeConsumer — consumer группы приёма заказов.
type intakeConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

// errIntakeUnavailable отдаёт проверка готовности, пока приём заказов не запущен.
var errIntakeUnavailable = errors.New("intake consumer is not running")

// kafkaComponents — подключённые к Kafka части приложения.
type kafkaComponents struct {
	producer *kafka.Producer
	consumer intakeConsumer

	mu       sync.Mutex
	started  bool
	startErr error
}

// initKafka создаёт producer и consumer приёма заказов. Без брокеров возвращает nil.
// Ошибка подключения не останавливает доску: приложение продолжает работу без Kafka.
func initKafka(cfg Config, store domain.OrderStore, m *metrics.BoardMetrics, logger *log.Entry) *kafkaComponents {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	kafkaLogger := logger.WithField("brokers", cfg.KafkaBrokers)

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		kafkaLogger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil
	}

	intake := kafka.NewIntakeHandler(store, m, logger.WithField("component", "order-intake"))
	consumer, err := kafka.NewConsumerWithDLQ(
		cfg.KafkaBrokers,
		cfg.KafkaGroupID,
		[]string{cfg.KafkaIntakeTopic},
		intake.Handle,
		producer,
		intakeMaxRetries,
	)
	k := &kafkaComponents{producer: producer}
	if err != nil {
		kafkaLogger.WithError(err).Warn("failed to create intake consumer, intake disabled")
	} else {
		k.consumer = consumer
	}

	kafkaLogger.Info("kafka initialized")
	return k
}

// startIntake запускает consumer и запоминает результат для проверки готовности.
func (k *kafkaComponents) startIntake(ctx context.Context, logger *log.Entry) {
	if k == nil || k.consumer == nil {
		return
	}
	err := k.consumer.Start(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed to start intake consumer")
	}

	k.mu.Lock()
	k.started = err == nil
	k.startErr = err
	k.mu.Unlock()
}

// intakeReady — проверка готовности приёма заказов.
func (k *kafkaComponents) intakeReady(context.Context) error {
	if k.consumer == nil {
		return errIntakeUnavailable
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.startErr != nil {
		return fmt.Errorf("%w: %w", errIntakeUnavailable, k.startErr)
	}
	if !k.started {
		return errIntakeUnavailable
	}
	return nil
}

func (k *kafkaComponents) close(logger *log.Entry) {
	if k == nil {
		return
	}
	if k.consumer != nil {
		if err := k.consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop intake consumer")
		}
	}
	if k.producer == nil {
		return
	}
	if err := k.producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// alertSinks собирает внешние каналы оповещений о новых заказах.
func alertSinks(cfg Config, k *kafkaComponents) notify.Fanout {
	var sinks notify.Fanout
	if k != nil {
		sinks = append(sinks, kafka.NewAlertNotifier(k.producer, cfg.KafkaAlertTopic))
	}
	if cfg.AlertWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(cfg.AlertWebhookURL, webhookTimeout))
	}
	return sinks
}

// discardPublisher принимает снимки ленты и ничего с ними не делает:
// фоновому оповещателю нужна только реакция на новые заказы.
type discardPublisher struct{}

func (discardPublisher) Publish([]domain.Order) {}
func (discardPublisher) SetLoading(bool)        {}

// newAnnouncer создаёт фоновую подписку, которая рассылает каждый новый заказ во
// внешние каналы. Заказы, существовавшие при старте, не объявляются повторно.
func newAnnouncer(store domain.OrderWatcher, sinks notify.Fanout, m *metrics.BoardMetrics, logger *log.Entry) *feed.Subscriber {
	emitter := notify.NewEmitter(sinks, nil, nil,
		notify.WithLogger(logger),
		notify.WithMetrics(m),
	)
	return feed.NewSubscriber(store, discardPublisher{}, emitter,
		feed.WithLogger(logger),
		feed.WithMetrics(m),
		feed.WithAnnounceInitial(false),
	)
}

// runAnnouncer держит подписку оповещателя до отмены ctx. Обрыв подписки не
// перезапускается и не останавливает приложение.
func runAnnouncer(ctx context.Context, announcer *feed.Subscriber, logger *log.Entry) {
	if err := announcer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("alert announcer stopped")
	}
}
