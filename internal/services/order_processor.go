package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"order-lifecycle/internal/config"
	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/infra"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OrderLifecycle is what the processor needs from the order service.
type OrderLifecycle interface {
	FindNotFinished(ctx context.Context) ([]domain.Order, error)
	ApplyTransition(ctx context.Context, order *domain.Order, target domain.OrderStatus) error
}

var _ OrderLifecycle = (*OrderService)(nil)

type TickResult struct {
	Skipped        bool `json:"skipped"`
	Scanned        int  `json:"scanned"`
	Advanced       int  `json:"advanced"`
	Failed         int  `json:"failed"`
	NotifyFailures int  `json:"notifyFailures"`
}

// OrderProcessor advances every unfinished order by one status per tick and
// notifies the buyer about each advance.
type OrderProcessor struct {
	cfg      config.ProcessorConfig
	orders   OrderLifecycle
	notifier infra.NotifierInterface
	locker   infra.TickLockerInterface
	metrics  *ProcessorMetrics
	log      zerolog.Logger
	now      func() time.Time

	// ticks in this process never overlap
	mu sync.Mutex
}

func NewOrderProcessor(cfg config.ProcessorConfig, orders OrderLifecycle, notifier infra.NotifierInterface, logger zerolog.Logger) *OrderProcessor {
	return &OrderProcessor{
		cfg:      cfg,
		orders:   orders,
		notifier: notifier,
		log:      logger.With().Str("component", "order_processor").Logger(),
		now:      time.Now,
	}
}

func (p *OrderProcessor) SetTickLocker(l infra.TickLockerInterface) {
	p.locker = l
}

func (p *OrderProcessor) SetMetrics(m *ProcessorMetrics) {
	p.metrics = m
}

func (p *OrderProcessor) Enabled() bool {
	return p.cfg.Enabled
}

// Run waits for the initial delay and then ticks at the configured interval
// until ctx is done. Tick failures are logged, never returned.
func (p *OrderProcessor) Run(ctx context.Context) error {
	p.log.Info().
		Bool("enabled", p.cfg.Enabled).
		Dur("interval", p.cfg.Interval).
		Dur("initial_delay", p.cfg.InitialDelay).
		Msg("order processor started")

	delay := time.NewTimer(p.cfg.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-delay.C:
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			p.log.Error().Err(err).Msg("tick failed")
		}
		select {
		case <-ctx.Done():
			p.log.Info().Msg("order processor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one pass synchronously. The returned error is only set when the
// unfinished orders could not be fetched; per-order failures are counted in
// the result.
func (p *OrderProcessor) Tick(ctx context.Context) (TickResult, error) {
	if !p.cfg.Enabled {
		p.metrics.tick("disabled")
		return TickResult{Skipped: true}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TickTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "OrderProcessor.Tick")
	defer span.End()

	if p.locker != nil {
		release, ok, err := p.locker.TryLock(ctx, p.lockTTL())
		switch {
		case err != nil:
			// transitions are compare-and-set, so running without the lock is safe
			p.log.Warn().Err(err).Msg("tick lock unavailable, processing anyway")
		case !ok:
			p.log.Debug().Msg("tick lock held by another instance")
			p.metrics.tick("locked")
			return TickResult{Skipped: true}, nil
		default:
			defer release()
		}
	}

	start := p.now()
	defer func() { p.metrics.observeTick(p.now().Sub(start)) }()

	var result TickResult
	orders, err := p.orders.FindNotFinished(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("fetch not finished orders")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch not finished orders")
		p.metrics.tick("error")
		return result, err
	}

	result.Scanned = len(orders)
	if len(orders) == 0 {
		p.log.Info().Msg("no orders to process")
		p.metrics.tick("empty")
		return result, nil
	}

	for i := range orders {
		if ctx.Err() != nil {
			p.log.Warn().Err(ctx.Err()).Int("remaining", len(orders)-i).Msg("tick deadline reached, leaving orders for next tick")
			break
		}
		p.advance(ctx, &orders[i], &result)
	}

	span.SetAttributes(
		attribute.Int("orders.scanned", result.Scanned),
		attribute.Int("orders.advanced", result.Advanced),
		attribute.Int("orders.failed", result.Failed),
	)
	p.metrics.tick("processed")
	return result, nil
}

func (p *OrderProcessor) advance(ctx context.Context, order *domain.Order, result *TickResult) {
	from := order.Status
	log := p.log.With().Str("order_id", order.ID).Str("from", string(from)).Logger()

	next, ok, err := domain.NextStatus(from)
	if err != nil {
		log.Error().Err(err).Msg("order has a status outside the lifecycle")
		result.Failed++
		p.metrics.failure(failureReason(err))
		return
	}
	if !ok {
		return
	}

	log.Info().Str("to", string(next)).Msg("moving order")
	if err := p.orders.ApplyTransition(ctx, order, next); err != nil {
		result.Failed++
		p.metrics.failure(failureReason(err))
		if errors.Is(err, domain.ErrTransitionConflict) {
			log.Info().Msg("order already advanced elsewhere")
		} else {
			log.Error().Err(err).Str("to", string(next)).Msg("transition failed, retrying next tick")
		}
		return
	}
	result.Advanced++
	p.metrics.transition(from, next)

	evt := domain.NewOrderStatusChangedEvent(order, from, p.now())
	if err := p.notifier.NotifyStatusChanged(ctx, evt); err != nil {
		result.NotifyFailures++
		p.metrics.notifyFailure()
		log.Error().Err(err).Str("to", string(next)).Msg("notification failed")
	}
}

func (p *OrderProcessor) lockTTL() time.Duration {
	if p.cfg.TickTimeout > 0 {
		return p.cfg.TickTimeout
	}
	return p.cfg.Interval
}
