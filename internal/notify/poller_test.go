package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
)

type fakeFeed struct {
	mu        sync.Mutex
	items     []model.Notification
	listErr   error
	markErr   error
	lists     int
	marked    []int64
	markedAll int

	// gate, when set, holds every list call until it is closed.
	gate chan struct{}
}

func (f *fakeFeed) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	f.lists++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Notification(nil), f.items...), nil
}

func (f *fakeFeed) MarkNotificationRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return f.markErr
}

func (f *fakeFeed) MarkAllNotificationsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAll++
	return f.markErr
}

func (f *fakeFeed) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeFeed) set(items ...model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func unreadFeed() *fakeFeed {
	return &fakeFeed{items: []model.Notification{
		{ID: 1, Message: "New task: Wireframes"},
		{ID: 2, Message: "Ana commented on Wireframes"},
		{ID: 3, Message: "Old", Read: true},
	}}
}

func TestPoller_PollReplacesListAndCount(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)

	require.NoError(t, p.Poll(context.Background()))
	assert.Len(t, p.Notifications(), 3)
	assert.Equal(t, 2, p.Unread())
	assert.Equal(t, Idle, p.State())

	feed.set(model.Notification{ID: 4, Message: "Fresh"})
	require.NoError(t, p.Poll(context.Background()))
	require.Len(t, p.Notifications(), 1)
	assert.Equal(t, int64(4), p.Notifications()[0].ID)
	assert.Equal(t, 1, p.Unread())
}

func TestPoller_PollFailureKeepsPreviousList(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)
	require.NoError(t, p.Poll(context.Background()))

	feed.mu.Lock()
	feed.listErr = errors.New("connection refused")
	feed.mu.Unlock()

	err := p.Poll(context.Background())
	require.Error(t, err)
	assert.Len(t, p.Notifications(), 3)
	assert.Equal(t, 2, p.Unread())
	assert.Equal(t, err, p.Snapshot().Err)
	assert.Equal(t, Idle, p.State())
}

func TestPoller_MarkReadDecrementsOnce(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)
	require.NoError(t, p.Poll(context.Background()))

	require.NoError(t, p.MarkRead(context.Background(), 1))
	assert.Equal(t, 1, p.Unread())

	require.NoError(t, p.MarkRead(context.Background(), 1))
	assert.Equal(t, 1, p.Unread(), "already read")

	require.NoError(t, p.MarkRead(context.Background(), 3))
	assert.Equal(t, 1, p.Unread(), "read on arrival")

	assert.Equal(t, []int64{1, 1, 3}, feed.marked)
}

func TestPoller_MarkReadFailureIsNotRolledBack(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)
	require.NoError(t, p.Poll(context.Background()))

	feed.markErr = errors.New("boom")
	require.Error(t, p.MarkRead(context.Background(), 2))

	assert.Equal(t, 1, p.Unread())
	for _, n := range p.Notifications() {
		if n.ID == 2 {
			assert.True(t, n.Read)
		}
	}
}

func TestPoller_MarkAllReadZeroes(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)
	require.NoError(t, p.Poll(context.Background()))

	require.NoError(t, p.MarkAllRead(context.Background()))
	assert.Equal(t, 0, p.Unread())
	for _, n := range p.Notifications() {
		assert.True(t, n.Read)
	}
	assert.Equal(t, 1, feed.markedAll)
}

func TestPoller_PollAfterMarkAllReadTakesServerView(t *testing.T) {
	feed := unreadFeed()
	p := New(feed)
	require.NoError(t, p.Poll(context.Background()))

	require.NoError(t, p.MarkAllRead(context.Background()))
	require.Equal(t, 0, p.Unread())

	// The server has not applied the mark yet, so the poll restores the
	// unread flags it still reports.
	require.NoError(t, p.Poll(context.Background()))
	assert.Equal(t, 2, p.Unread())
}

func TestPoller_StartPollsImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	p := New(feed, WithClock(clock), WithInterval(time.Minute))

	stop := p.Start(context.Background())
	defer stop()

	clock.BlockUntil(1)
	assert.Equal(t, 1, feed.listCount())
	assert.Equal(t, 2, p.Unread())

	clock.Advance(59 * time.Second)
	assert.Equal(t, 1, feed.listCount())

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return feed.listCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPoller_SlowFetchDelaysNextInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	feed.gate = make(chan struct{})
	p := New(feed, WithClock(clock), WithInterval(time.Minute))

	stop := p.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return feed.listCount() == 1 }, time.Second, 5*time.Millisecond)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
	}
	assert.Equal(t, 1, feed.listCount())
	assert.Equal(t, Polling, p.State())

	// Nothing waits on the clock while the fetch is outstanding.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, clock.BlockUntilContext(ctx, 1), context.DeadlineExceeded)

	close(feed.gate)
	clock.BlockUntil(1)
	assert.Equal(t, 1, feed.listCount())
	assert.Equal(t, 2, p.Unread())

	clock.Advance(59 * time.Second)
	assert.Equal(t, 1, feed.listCount())

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return feed.listCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPoller_PollWaitsForLoopFetch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	feed.gate = make(chan struct{})
	p := New(feed, WithClock(clock))

	stop := p.Start(context.Background())
	defer stop()
	require.Eventually(t, func() bool { return feed.listCount() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- p.Poll(context.Background()) }()

	assert.Never(t, func() bool { return feed.listCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	close(feed.gate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Poll did not return after the loop fetch finished")
	}
	assert.Equal(t, 2, feed.listCount())
}

func TestPoller_PollAfterStopStaysStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	p := New(feed, WithClock(clock))

	stop := p.Start(context.Background())
	clock.BlockUntil(1)
	stop()
	require.Equal(t, Stopped, p.State())

	feed.set(model.Notification{ID: 9, Message: "Late"})
	require.NoError(t, p.Poll(context.Background()))
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, 1, p.Unread())
}

func TestPoller_RefreshFetchesEarly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	p := New(feed, WithClock(clock))

	stop := p.Start(context.Background())
	defer stop()

	clock.BlockUntil(1)
	p.Refresh()
	assert.Eventually(t, func() bool { return feed.listCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPoller_StopsOnUnauthorized(t *testing.T) {
	feed := unreadFeed()
	feed.listErr = &api.UnauthorizedError{Method: "GET", Path: "/notifications"}
	p := New(feed, WithClock(clockwork.NewFakeClock()))

	stop := p.Start(context.Background())
	defer stop()

	assert.Eventually(t, func() bool { return p.State() == Stopped }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, feed.listCount())
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(unreadFeed(), WithClock(clock))

	stop := p.Start(context.Background())
	clock.BlockUntil(1)
	stop()
	stop()

	assert.Equal(t, Stopped, p.State())

	// A second Start on a stopped poller runs again.
	stop = p.Start(context.Background())
	defer stop()
	clock.BlockUntil(1)
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	feed := unreadFeed()
	p := New(feed, WithClock(clock))

	stop := p.Start(context.Background())
	defer stop()
	p.Start(context.Background())()

	clock.BlockUntil(1)
	assert.Equal(t, 1, feed.listCount())
}

func TestPoller_UpdatesCarrySnapshots(t *testing.T) {
	p := New(unreadFeed())
	require.NoError(t, p.Poll(context.Background()))

	select {
	case snap := <-p.Updates():
		assert.Equal(t, 2, snap.Unread)
		assert.Len(t, snap.Notifications, 3)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}
