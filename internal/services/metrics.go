package services

import (
	"errors"
	"time"

	"order-lifecycle/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

type ProcessorMetrics struct {
	ticks          *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	notifyFailures prometheus.Counter
	tickDuration   prometheus.Histogram
}

func NewProcessorMetrics(reg prometheus.Registerer) *ProcessorMetrics {
	m := &ProcessorMetrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orders",
			Subsystem: "processor",
			Name:      "ticks_total",
			Help:      "Processor ticks by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orders",
			Subsystem: "processor",
			Name:      "transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orders",
			Subsystem: "processor",
			Name:      "transition_failures_total",
			Help:      "Orders left for the next tick, by reason.",
		}, []string{"reason"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orders",
			Subsystem: "processor",
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be dispatched after a committed transition.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orders",
			Subsystem: "processor",
			Name:      "tick_duration_seconds",
			Help:      "Duration of processor ticks that did work.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ticks, m.transitions, m.failures, m.notifyFailures, m.tickDuration)
	return m
}

func (m *ProcessorMetrics) tick(outcome string) {
	if m != nil {
		m.ticks.WithLabelValues(outcome).Inc()
	}
}

func (m *ProcessorMetrics) transition(from, to domain.OrderStatus) {
	if m != nil {
		m.transitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

func (m *ProcessorMetrics) failure(reason string) {
	if m != nil {
		m.failures.WithLabelValues(reason).Inc()
	}
}

func (m *ProcessorMetrics) notifyFailure() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}

func (m *ProcessorMetrics) observeTick(d time.Duration) {
	if m != nil {
		m.tickDuration.Observe(d.Seconds())
	}
}

func failureReason(err error) string {
	var (
		stockErr    *domain.InsufficientStockError
		productErr  *domain.ProductNotFoundError
		stateErr    *domain.InvalidStateError
		unavailable *domain.StoreUnavailableError
	)
	switch {
	case errors.Is(err, domain.ErrTransitionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &productErr):
		return "product_not_found"
	case errors.As(err, &stateErr):
		return "invalid_state"
	case errors.As(err, &unavailable):
		return "store_unavailable"
	default:
		return "other"
	}
}
