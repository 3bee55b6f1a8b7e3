package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

const channelBuffer = 256

// dispatcher hands pushed notifications to a single worker so handlers see
// them in arrival order and never run on the socket read goroutine.
type dispatcher struct {
	queue   chan domain.Notification
	deliver func(domain.Notification)
	log     zerolog.Logger
}

func newDispatcher(deliver func(domain.Notification), log zerolog.Logger) *dispatcher {
	return &dispatcher{
		queue:   make(chan domain.Notification, channelBuffer),
		deliver: deliver,
		log:     log,
	}
}

// start launches the worker. It stops when ctx is cancelled.
func (d *dispatcher) start(ctx context.Context) {
	go d.run(ctx)
}

// enqueue blocks once channelBuffer notifications are pending, until the
// worker catches up or ctx ends. It reports whether n was queued.
func (d *dispatcher) enqueue(ctx context.Context, n domain.Notification) bool {
	select {
	case d.queue <- n:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			// A cancelled connection delivers nothing more, even if queued.
			if ctx.Err() != nil {
				return
			}
			d.deliver(n)
		}
	}
}
