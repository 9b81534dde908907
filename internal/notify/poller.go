// Package notify keeps the notification feed and unread count fresh by
// polling the server, and applies read-state changes optimistically.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
)

// State is the poller's position in its Idle -> Polling -> Idle cycle.
type State int

const (
	Idle State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// DefaultInterval is the pause between the end of one fetch and the start
// of the next.
const DefaultInterval = 60 * time.Second

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Feed is the server side of the notification list.
type Feed interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Snapshot is the poller state handed to subscribers after every change.
type Snapshot struct {
	Notifications []model.Notification
	Unread        int
	State         State
	LastPoll      time.Time
	Err           error
}

// Poller orchestrates background polling of the notification feed.
type Poller struct {
	feed     Feed
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	// fetchMu serialises fetches between the loop and callers of Poll.
	fetchMu sync.Mutex

	mu       sync.Mutex
	items    []model.Notification
	unread   int
	state    State
	lastPoll time.Time
	lastErr  error
	running  bool

	updates   chan Snapshot
	triggerCh chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithInterval sets the pause between fetches.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger for poll failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a Poller over feed. It does nothing until Start.
func New(feed Feed, opts ...Option) *Poller {
	p := &Poller{
		feed:      feed,
		clock:     clockwork.NewRealClock(),
		interval:  DefaultInterval,
		logger:    slog.Default(),
		updates:   make(chan Snapshot, 16),
		triggerCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches immediately and then keeps polling until the returned
// stop function is called, ctx is cancelled, or the server rejects the
// session. The next fetch is scheduled only after the previous one has
// completed, so fetches never overlap. Stop blocks until the loop has
// exited and is safe to call more than once. Starting a running poller
// returns a no-op stop.
func (p *Poller) Start(ctx context.Context) (stop func()) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return func() {}
	}
	p.running = true
	p.state = Idle
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go p.loop(ctx, done)

	p.logger.Info("notification poller started", "interval", p.interval)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			p.logger.Info("notification poller stopped")
		})
	}
}

// Refresh asks a running poller to fetch now instead of waiting for the
// interval. It never blocks.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// loop runs the Idle -> Polling -> Idle cycle.
func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.halt()

	for {
		if err := p.Poll(ctx); api.IsUnauthorized(err) {
			p.logger.Warn("stopping notification poller, session rejected")
			return
		}

		timer := p.clock.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		case <-p.triggerCh:
			timer.Stop()
		}
	}
}

func (p *Poller) halt() {
	p.mu.Lock()
	p.running = false
	p.state = Stopped
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// Poll performs a single fetch and replaces the local list with the
// server's. The unread count is recomputed from scratch; read flags set
// locally but not yet confirmed are not carried over. A Poll issued while
// the loop is fetching waits for that fetch to finish. Polling a stopped
// poller refreshes the list but leaves it Stopped.
func (p *Poller) Poll(ctx context.Context) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	p.mu.Lock()
	if p.state != Stopped {
		p.state = Polling
	}
	p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	items, err := p.feed.ListNotifications(fetchCtx)

	p.mu.Lock()
	if p.state != Stopped {
		p.state = Idle
	}
	if err != nil {
		p.lastErr = err
		snap := p.snapshotLocked()
		p.mu.Unlock()

		if ctx.Err() == nil {
			p.logger.Warn("fetching notifications failed", "error", err)
		}
		p.publish(snap)
		return err
	}

	p.items = append(make([]model.Notification, 0, len(items)), items...)
	p.unread = model.CountUnread(p.items)
	p.lastPoll = p.clock.Now()
	p.lastErr = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return nil
}

// MarkRead flips id to read and decrements the unread count right away,
// then tells the server. A server failure is returned but not rolled back;
// the next poll brings the server's view back.
func (p *Poller) MarkRead(ctx context.Context, id int64) error {
	p.mu.Lock()
	for i := range p.items {
		if p.items[i].ID == id && !p.items[i].Read {
			p.items[i].Read = true
			p.unread = max(0, p.unread-1)
			break
		}
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)

	if err := p.feed.MarkNotificationRead(ctx, id); err != nil {
		p.logger.Warn("marking notification read failed", "id", id, "error", err)
		return err
	}
	return nil
}

// MarkAllRead flips every unread notification to read and zeroes the
// count right away, then tells the server. Like MarkRead, a failure is not
// rolled back.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	p.mu.Lock()
	for i := range p.items {
		p.items[i].Read = true
	}
	p.unread = 0
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)

	if err := p.feed.MarkAllNotificationsRead(ctx); err != nil {
		p.logger.Warn("marking all notifications read failed", "error", err)
		return err
	}
	return nil
}

// Notifications returns a copy of the current list.
func (p *Poller) Notifications() []model.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Notification(nil), p.items...)
}

// Unread returns the current unread count.
func (p *Poller) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// State returns the poller's current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the current state in one value.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Updates delivers a Snapshot after every change. Snapshots are dropped
// when nobody reads them.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

func (p *Poller) snapshotLocked() Snapshot {
	return Snapshot{
		Notifications: append([]model.Notification(nil), p.items...),
		Unread:        p.unread,
		State:         p.state,
		LastPoll:      p.lastPoll,
		Err:           p.lastErr,
	}
}

// publish sends a snapshot without blocking.
func (p *Poller) publish(s Snapshot) {
	select {
	case p.updates <- s:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}
