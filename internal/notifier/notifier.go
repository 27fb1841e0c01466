// Package notifier fans committed loan events out to realtime subscribers
// and downstream brokers. Delivery is best effort: a failing or slow sink
// never blocks or fails the operation that produced the event.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"sfd-loan-engine/internal/metrics"

	"github.com/panjf2000/ants/v2"
)

// Sink delivers one event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

type Config struct {
	PoolSize        int
	DeliveryTimeout time.Duration
}

type Notifier struct {
	pool    *ants.Pool
	sinks   []Sink
	logger  *slog.Logger
	timeout time.Duration
}

func New(logger *slog.Logger, cfg Config, sinks ...Sink) (*Notifier, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 16
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}
	// Non-blocking: a saturated pool drops instead of stalling the caller.
	pool, err := ants.NewPool(cfg.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Notifier{pool: pool, sinks: sinks, logger: logger, timeout: cfg.DeliveryTimeout}, nil
}

func (n *Notifier) Publish(evt Event) {
	for _, s := range n.sinks {
		sink := s
		err := n.pool.Submit(func() { n.deliver(sink, evt) })
		if err != nil {
			metrics.NotifierDropped.WithLabelValues("pool_overload").Inc()
			n.logger.Warn("notifier dropped event",
				"sink", sink.Name(), "event_id", evt.EventID, "loan_id", evt.LoanID, "error", err)
		}
	}
}

func (n *Notifier) deliver(s Sink, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := s.Deliver(ctx, evt); err != nil {
		metrics.NotifierDeliveries.WithLabelValues(s.Name(), "error").Inc()
		n.logger.Error("event delivery failed",
			"sink", s.Name(), "event_id", evt.EventID, "loan_id", evt.LoanID, "error", err)
		return
	}
	metrics.NotifierDeliveries.WithLabelValues(s.Name(), "ok").Inc()
}

// Close waits up to timeout for in-flight deliveries.
func (n *Notifier) Close(timeout time.Duration) error {
	return n.pool.ReleaseTimeout(timeout)
}
