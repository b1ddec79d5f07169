package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/feed"
	"github.com/doceeser/orderboard/internal/metrics"
	"github.com/doceeser/orderboard/internal/notify"
)

const alertQueueSize = 32

// ErrAlertQueueFull возвращается, если клиент не успевает забирать оповещения.
var ErrAlertQueueFull = errors.New("alert queue is full")

// AlertKind — тип события, отправляемого клиенту помимо состояния доски.
type AlertKind string

const (
	AlertNotification AlertKind = "notification"
	AlertSound        AlertKind = "sound"
)

// Alert — оповещение для клиента сессии.
type Alert struct {
	Kind         AlertKind            `json:"kind"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// SessionConfig задаёт параметры живых сессий.
type SessionConfig struct {
	BannerDuration  time.Duration
	AnnounceInitial bool
	Logger          *log.Entry
	Metrics         *metrics.BoardMetrics
}

// LiveSession связывает доску, подписку на ленту и оповещения одного открытого
// экрана администратора. Создаётся при открытии потока и закрывается при его
// завершении или выходе оператора.
type LiveSession struct {
	id     string
	owner  string
	board  *Board
	banner *notify.Banner
	alerts chan Alert
	logger *log.Entry

	emitter    *notify.Emitter
	subscriber *feed.Subscriber

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newLiveSession(owner string, watcher domain.OrderWatcher, permission notify.Permission, cfg SessionConfig) *LiveSession {
	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "live-session")
	}
	logger = logger.WithField("session_id", id)

	s := &LiveSession{
		id:     id,
		owner:  owner,
		board:  New(),
		alerts: make(chan Alert, alertQueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	s.banner = notify.NewBanner(cfg.BannerDuration, s.board.SetBanner)
	sink := &sessionSink{session: s, permission: permission}
	s.emitter = notify.NewEmitter(sink, sink, s.banner,
		notify.WithLogger(logger),
		notify.WithMetrics(cfg.Metrics),
	)
	s.subscriber = feed.NewSubscriber(watcher, s.board, s.emitter,
		feed.WithLogger(logger),
		feed.WithMetrics(cfg.Metrics),
		feed.WithAnnounceInitial(cfg.AnnounceInitial),
	)
	return s
}

// start запускает подписку. Ошибка подписки сохраняется, сессия остаётся открытой.
func (s *LiveSession) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	go func() {
		defer close(s.done)
		s.emitter.Prepare(ctx)
		if err := s.subscriber.Run(ctx); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
		<-ctx.Done()
		s.banner.Stop()
		s.emitter.Wait()
	}()
}

// ID возвращает идентификатор сессии.
func (s *LiveSession) ID() string { return s.id }

// Owner возвращает идентификатор входа, открывшего сессию.
func (s *LiveSession) Owner() string { return s.owner }

// Board возвращает доску сессии.
func (s *LiveSession) Board() *Board { return s.board }

// Alerts отдаёт оповещения для клиента.
func (s *LiveSession) Alerts() <-chan Alert { return s.alerts }

// Done закрывается после полной остановки сессии.
func (s *LiveSession) Done() <-chan struct{} { return s.done }

// Err возвращает ошибку подписки, если она оборвалась.
func (s *LiveSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DismissBanner скрывает баннер по действию оператора.
func (s *LiveSession) DismissBanner() {
	s.banner.Dismiss()
}

// Close отменяет подписку и ждёт остановки. Повторный вызов безопасен.
func (s *LiveSession) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	<-s.done
}

func (s *LiveSession) push(alert Alert) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.alerts <- alert:
		return nil
	default:
		return ErrAlertQueueFull
	}
}

// sessionSink передаёт системные уведомления и звук клиенту сессии.
// Разрешение на уведомления сообщает сам клиент при открытии потока.
type sessionSink struct {
	session    *LiveSession
	permission notify.Permission
}

func (k *sessionSink) RequestPermission(context.Context) (notify.Permission, error) {
	return k.permission, nil
}

func (k *sessionSink) Show(_ context.Context, n notify.Notification) error {
	return k.session.push(Alert{Kind: AlertNotification, Notification: &n})
}

func (k *sessionSink) Play(context.Context) error {
	return k.session.push(Alert{Kind: AlertSound})
}
