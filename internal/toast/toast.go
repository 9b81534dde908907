// Package toast is a queue of short-lived, user-visible status messages.
// Producers push; a single surface renders whatever is queued. Every toast
// expires on its own after a fixed duration.
package toast

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Severity tags a toast for rendering.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// DefaultDuration is how long a toast stays queued unless configured otherwise.
const DefaultDuration = 3000 * time.Millisecond

// Toast is a single queued message.
type Toast struct {
	// ID is unique and strictly increasing, derived from the push time in
	// milliseconds.
	ID        int64
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Bus collects toasts and expires them. It is safe for concurrent use.
// There is no priority or deduplication: identical pushes queue separately.
type Bus struct {
	clock    clockwork.Clock
	duration time.Duration

	mu       sync.Mutex
	toasts   []Toast
	timers   map[int64]clockwork.Timer
	lastID   int64
	watchers map[chan []Toast]struct{}
	closed   bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(b *Bus) { b.clock = c }
}

// WithDuration sets how long each toast stays queued.
func WithDuration(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.duration = d
		}
	}
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		clock:    clockwork.NewRealClock(),
		duration: DefaultDuration,
		timers:   make(map[int64]clockwork.Timer),
		watchers: make(map[chan []Toast]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Push queues message and schedules its removal.
func (b *Bus) Push(message string, severity Severity) Toast {
	b.mu.Lock()
	now := b.clock.Now()
	id := now.UnixMilli()
	if id <= b.lastID {
		id = b.lastID + 1
	}
	b.lastID = id

	t := Toast{ID: id, Message: message, Severity: severity, CreatedAt: now}
	if b.closed {
		b.mu.Unlock()
		return t
	}
	b.toasts = append(b.toasts, t)
	b.timers[id] = b.clock.AfterFunc(b.duration, func() {
		b.Dismiss(id)
	})
	b.broadcastLocked()
	b.mu.Unlock()

	return t
}

// Info pushes an info toast.
func (b *Bus) Info(message string) Toast { return b.Push(message, Info) }

// Success pushes a success toast.
func (b *Bus) Success(message string) Toast { return b.Push(message, Success) }

// Error pushes an error toast.
func (b *Bus) Error(message string) Toast { return b.Push(message, Error) }

// Dismiss removes the toast with id. It reports whether anything was
// removed; dismissing an absent id, including one that already expired,
// is a no-op.
func (b *Bus) Dismiss(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if timer, ok := b.timers[id]; ok {
		timer.Stop()
		delete(b.timers, id)
	}

	for i, t := range b.toasts {
		if t.ID == id {
			b.toasts = append(b.toasts[:i:i], b.toasts[i+1:]...)
			b.broadcastLocked()
			return true
		}
	}
	return false
}

// Toasts returns the queued toasts, oldest first.
func (b *Bus) Toasts() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Toast(nil), b.toasts...)
}

// Len returns the number of queued toasts.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.toasts)
}

// Watch returns a channel that receives the queue after every change.
// Only the latest queue is kept for a slow reader. The returned function
// stops the watch and closes the channel.
func (b *Bus) Watch() (<-chan []Toast, func()) {
	ch := make(chan []Toast, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.watchers[ch]; ok {
				delete(b.watchers, ch)
				close(ch)
			}
		})
	}
}

// Close stops every pending expiry and closes all watch channels. Pushes
// after Close are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, timer := range b.timers {
		timer.Stop()
		delete(b.timers, id)
	}
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

// broadcastLocked hands the current queue to every watcher, replacing a
// value the watcher has not read yet.
func (b *Bus) broadcastLocked() {
	if len(b.watchers) == 0 {
		return
	}
	snapshot := append([]Toast(nil), b.toasts...)
	for ch := range b.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
