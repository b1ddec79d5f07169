package notify

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/metrics"
)

const (
	channelSystem = "system"
	channelBanner = "banner"
	channelSound  = "sound"
)

// Options задаёт параметры Emitter.
type Options struct {
	Logger  *log.Entry
	Metrics *metrics.BoardMetrics
}

// Option настраивает Emitter.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики оповещений.
func WithMetrics(m *metrics.BoardMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// Emitter оповещает о новых заказах тремя независимыми способами:
// системное уведомление, баннер и звук. Каждый запускается отдельной
// горутиной, Notify их не ждёт, ошибки только логируются.
type Emitter struct {
	system  SystemNotifier
	sound   SoundPlayer
	banner  *Banner
	logger  *log.Entry
	metrics *metrics.BoardMetrics

	permOnce   sync.Once
	permission Permission

	wg sync.WaitGroup
}

// NewEmitter создаёт Emitter. Любой из каналов может быть nil.
func NewEmitter(system SystemNotifier, sound SoundPlayer, banner *Banner, options ...Option) *Emitter {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "notification-emitter")
	}

	return &Emitter{
		system:     system,
		sound:      sound,
		banner:     banner,
		logger:     logger,
		metrics:    opts.Metrics,
		permission: PermissionDefault,
	}
}

// Prepare запрашивает разрешение на системные уведомления.
// Запрос выполняется один раз за жизнь Emitter.
func (e *Emitter) Prepare(ctx context.Context) Permission {
	e.permOnce.Do(func() {
		if e.system == nil {
			e.permission = PermissionDenied
			return
		}
		permission, err := e.system.RequestPermission(ctx)
		if err != nil {
			e.logger.WithError(err).Debug("notification permission request failed")
			permission = PermissionDenied
		}
		e.permission = permission
	})
	return e.permission
}

// Notify запускает оповещения о заказе и сразу возвращает управление.
func (e *Emitter) Notify(ctx context.Context, order domain.Order) {
	permission := e.Prepare(ctx)

	if permission == PermissionGranted {
		n := ForOrder(order)
		e.spawn(channelSystem, order.ID, func() error {
			return e.system.Show(ctx, n)
		})
	} else {
		e.metrics.RecordNotification(channelSystem, "skipped")
	}

	if e.banner != nil {
		e.spawn(channelBanner, order.ID, func() error {
			e.banner.Show()
			return nil
		})
	}

	if e.sound != nil {
		e.spawn(channelSound, order.ID, func() error {
			return e.sound.Play(ctx)
		})
	}
}

// Wait дожидается запущенных оповещений. Нужен при закрытии сессии и в тестах.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

func (e *Emitter) spawn(channel, orderID string, task func() error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := safeRun(task)
		if err == nil {
			e.metrics.RecordNotification(channel, "sent")
			return
		}

		e.metrics.RecordNotification(channel, "failed")
		entry := e.logger.WithError(err).WithFields(log.Fields{
			"channel":  channel,
			"order_id": orderID,
		})
		// Ошибки звука оператору не показываются.
		if channel == channelSound {
			entry.Debug("alert sound was not played")
			return
		}
		entry.Warn("notification side effect failed")
	}()
}

func safeRun(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task()
}
