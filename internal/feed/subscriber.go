package feed

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/metrics"
)

// ErrSubscriptionFailed возвращается из Run, если хранилище оборвало подписку.
var ErrSubscriptionFailed = errors.New("order subscription failed")

// Publisher получает полный список заказов после каждого снимка.
type Publisher interface {
	Publish(orders []domain.Order)
	SetLoading(loading bool)
}

// Notifier оповещает о новом заказе. Реализация не должна блокировать вызывающего.
type Notifier interface {
	Notify(ctx context.Context, order domain.Order)
}

// Options задаёт параметры подписчика.
type Options struct {
	Logger          *log.Entry
	Metrics         *metrics.BoardMetrics
	AnnounceInitial bool
}

// Option настраивает Subscriber.
type Option func(*Options)

// WithLogger задаёт logger подписчика.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики ленты.
func WithMetrics(m *metrics.BoardMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithAnnounceInitial определяет, оповещать ли о заказах из первого снимка.
// По умолчанию оповещение идёт для каждого заказа, найденного при открытии сессии.
func WithAnnounceInitial(announce bool) Option {
	return func(opts *Options) {
		opts.AnnounceInitial = announce
	}
}

// Subscriber держит одну живую подписку на коллекцию заказов.
type Subscriber struct {
	watcher   domain.OrderWatcher
	publisher Publisher
	notifier  Notifier
	logger    *log.Entry
	metrics   *metrics.BoardMetrics
	announce  bool
}

// NewSubscriber создаёт подписчика. notifier может быть nil.
func NewSubscriber(watcher domain.OrderWatcher, publisher Publisher, notifier Notifier, options ...Option) *Subscriber {
	opts := Options{AnnounceInitial: true}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-feed")
	}

	return &Subscriber{
		watcher:   watcher,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		metrics:   opts.Metrics,
		announce:  opts.AnnounceInitial,
	}
}

// Run подписывается на хранилище и обрабатывает снимки до отмены ctx.
// Ошибка подписки не повторяется: Run возвращает её, и лента остаётся мёртвой
// до следующей сессии.
func (s *Subscriber) Run(ctx context.Context) error {
	s.publisher.SetLoading(true)

	snapshots, err := s.watcher.Watch(ctx)
	if err != nil {
		return s.fail(err)
	}

	seen := NewSeenSet()
	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				// Канал закрыт без ошибки: подписку отменили.
				if first {
					s.publisher.SetLoading(false)
				}
				return nil
			}
			if snap.Err != nil {
				return s.fail(snap.Err)
			}

			s.apply(ctx, seen, snap.Orders, first)
			if first {
				s.publisher.SetLoading(false)
				first = false
			}
		}
	}
}

// apply обрабатывает один снимок: вычисляет новые заказы, отмечает весь
// снимок как увиденный, публикует список и только потом оповещает.
func (s *Subscriber) apply(ctx context.Context, seen *SeenSet, orders []domain.Order, initial bool) {
	list := make([]domain.Order, len(orders))
	copy(list, orders)
	domain.SortByCreatedDesc(list)

	var arrivals []domain.Order
	for _, order := range list {
		if !seen.Contains(order.ID) {
			arrivals = append(arrivals, order)
		}
	}
	for _, order := range list {
		seen.Insert(order.ID)
	}

	s.publisher.Publish(list)

	if initial && !s.announce {
		s.logger.WithField("orders", len(list)).Debug("initial snapshot loaded without announcements")
		s.metrics.RecordSnapshot(0)
		return
	}

	s.metrics.RecordSnapshot(len(arrivals))
	if len(arrivals) > 0 {
		s.logger.WithFields(log.Fields{
			"orders":   len(list),
			"arrivals": len(arrivals),
		}).Debug("new orders observed")
	}
	if s.notifier == nil {
		return
	}
	for _, order := range arrivals {
		s.notifier.Notify(ctx, order)
	}
}

func (s *Subscriber) fail(err error) error {
	s.publisher.SetLoading(false)
	s.metrics.RecordSubscriptionFailure()
	s.logger.WithError(err).Error("order subscription terminated")
	return fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)
}
