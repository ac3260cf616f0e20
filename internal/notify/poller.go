package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTickTimeout = 5 * time.Second

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	l.Logger.Info().
		Str("order_id", n.OrderID.String()).
		Str("code", n.Code).
		Str("from", n.From.String()).
		Str("to", n.To.String()).
		Msg(n.Message)
}

// Poller fetches the order list on a fixed interval and notifies on status
// changes. Ticks run on a single goroutine, so they never overlap.
type Poller struct {
	name        string
	source      Source
	interval    time.Duration
	tickTimeout time.Duration
	notifier    Notifier
	logger      zerolog.Logger

	snapshot Snapshot
}

func NewPoller(name string, source Source, interval time.Duration, notifier Notifier, logger zerolog.Logger) *Poller {
	timeout := DefaultTickTimeout
	if interval > 0 && interval < timeout {
		timeout = interval
	}
	return &Poller{
		name:        name,
		source:      source,
		interval:    interval,
		tickTimeout: timeout,
		notifier:    notifier,
		logger:      logger.With().Str("watcher", name).Logger(),
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().Dur("interval", p.interval).Msg("order watcher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("order watcher stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.tickTimeout)
	defer cancel()

	orders, err := p.source.Fetch(tickCtx)
	if err != nil {
		// keep the old snapshot so the next successful poll still diffs against it
		p.logger.Warn().Err(err).Msg("poll failed")
		return
	}

	notes, next := Diff(p.snapshot, orders)
	p.snapshot = next
	for _, n := range notes {
		p.notifier.Notify(ctx, n)
	}
	p.logger.Debug().Int("orders", len(orders)).Int("changes", len(notes)).Msg("poll done")
}
