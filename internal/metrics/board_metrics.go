package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BoardMetrics содержит метрики доски заказов.
// Все методы безопасны для nil-получателя: компоненты могут работать без метрик.
type BoardMetrics struct {
	// Лента заказов
	feedSnapshots        prometheus.Counter
	feedNewOrders        prometheus.Counter
	subscriptionFailures prometheus.Counter

	// Оповещения по каналам
	notifications *prometheus.CounterVec

	// Смена статуса
	statusUpdates        *prometheus.CounterVec
	statusUpdateDuration prometheus.Histogram

	// Приём заказов из Kafka
	intakeOrders *prometheus.CounterVec

	liveSessions prometheus.Gauge
}

// NewBoardMetrics регистрирует метрики в DefaultRegisterer.
func NewBoardMetrics() *BoardMetrics {
	return NewBoardMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewBoardMetricsWithRegisterer регистрирует метрики в указанном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewBoardMetricsWithRegisterer(registerer prometheus.Registerer) *BoardMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BoardMetrics{
		feedSnapshots: registerCounter(registerer, prometheus.CounterOpts{
			Name: "board_feed_snapshots_total",
			Help: "Total number of order list snapshots received from the store",
		}),
		feedNewOrders: registerCounter(registerer, prometheus.CounterOpts{
			Name: "board_feed_new_orders_total",
			Help: "Total number of orders announced as new arrivals",
		}),
		subscriptionFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "board_feed_subscription_failures_total",
			Help: "Total number of live subscriptions terminated by an error",
		}),
		notifications: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "board_notifications_total",
			Help: "Notification side effects grouped by channel and result",
		}, []string{"channel", "result"}),
		statusUpdates: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "board_status_updates_total",
			Help: "Status writes grouped by result",
		}, []string{"result"}),
		statusUpdateDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "board_status_update_duration_seconds",
			Help:    "Duration of status writes against the order store",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		intakeOrders: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "board_intake_orders_total",
			Help: "Orders received from the intake topic grouped by result",
		}, []string{"result"}),
		liveSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "board_live_sessions",
			Help: "Number of admin sessions with an active live subscription",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordSnapshot учитывает снимок ленты и количество новых заказов в нём.
func (m *BoardMetrics) RecordSnapshot(newOrders int) {
	if m == nil {
		return
	}
	m.feedSnapshots.Inc()
	if newOrders > 0 {
		m.feedNewOrders.Add(float64(newOrders))
	}
}

// RecordSubscriptionFailure увеличивает счётчик упавших подписок.
func (m *BoardMetrics) RecordSubscriptionFailure() {
	if m == nil {
		return
	}
	m.subscriptionFailures.Inc()
}

// RecordNotification учитывает результат одного канала оповещения.
func (m *BoardMetrics) RecordNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// RecordStatusUpdate учитывает запись статуса и её длительность.
func (m *BoardMetrics) RecordStatusUpdate(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.statusUpdates.WithLabelValues(result).Inc()
	m.statusUpdateDuration.Observe(duration.Seconds())
}

// RecordIntake учитывает заказ, принятый из брокера.
func (m *BoardMetrics) RecordIntake(result string) {
	if m == nil {
		return
	}
	m.intakeOrders.WithLabelValues(result).Inc()
}

// SessionStarted увеличивает число активных сессий.
func (m *BoardMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

// SessionFinished уменьшает число активных сессий.
func (m *BoardMetrics) SessionFinished() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}
