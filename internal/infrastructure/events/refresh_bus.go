package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/pkg/metrics"
)

type listener struct {
	id int
	fn func()
}

// RefreshBus is the process-wide "reload notifications" broadcast. Listeners
// run synchronously on the triggering goroutine, in registration order.
type RefreshBus struct {
	mu        sync.Mutex
	listeners []listener
	nextID    int
	log       zerolog.Logger
}

func NewRefreshBus(log zerolog.Logger) *RefreshBus {
	return &RefreshBus{log: log}
}

// AddListener registers fn and returns a function removing it. Calling the
// returned function more than once is harmless.
func (b *RefreshBus) AddListener(fn func()) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *RefreshBus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Trigger calls every listener registered at the time of the call. A
// listener that panics is logged and skipped; the rest still run.
func (b *RefreshBus) Trigger() {
	b.mu.Lock()
	snapshot := make([]listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	metrics.RefreshBroadcastsTotal.Inc()
	b.log.Debug().Int("listeners", len(snapshot)).Msg("refresh broadcast")

	for _, l := range snapshot {
		b.call(l)
	}
}

func (b *RefreshBus) call(l listener) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Int("listener_id", l.id).Msg("refresh listener panicked")
		}
	}()
	l.fn()
}

// Clear drops every listener.
func (b *RefreshBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = nil
}

// Len returns the number of registered listeners.
func (b *RefreshBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
