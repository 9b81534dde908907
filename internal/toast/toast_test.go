package toast

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_ExpiresAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock))
	defer b.Close()

	b.Success("Project created.")
	require.Equal(t, 1, b.Len())

	clock.Advance(2999 * time.Millisecond)
	assert.Equal(t, 1, b.Len(), "still visible before the deadline")

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBus_DismissBeforeExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock))
	defer b.Close()

	first := b.Error("Failed to delete task")
	second := b.Info("Syncing")

	assert.True(t, b.Dismiss(first.ID))
	assert.False(t, b.Dismiss(first.ID), "second dismiss is a no-op")

	toasts := b.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, second.ID, toasts[0].ID)
}

func TestBus_DismissAfterExpiryIsNoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock), WithDuration(time.Second))
	defer b.Close()

	tt := b.Info("hello")
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)

	assert.False(t, b.Dismiss(tt.ID))
}

func TestBus_IDsStrictlyIncrease(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock))
	defer b.Close()

	a := b.Error("Failed to update task")
	c := b.Error("Failed to update task")
	clock.Advance(time.Millisecond)
	d := b.Error("Failed to update task")

	assert.Less(t, a.ID, c.ID)
	assert.Less(t, c.ID, d.ID)
	assert.Equal(t, 3, b.Len(), "identical messages are not deduplicated")
}

func TestBus_Watch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock))

	ch, stop := b.Watch()
	defer stop()

	b.Info("one")
	b.Info("two")

	// Only the latest queue is retained for a reader that fell behind.
	got := <-ch
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[1].Message)

	b.Close()
	_, open := <-ch
	assert.False(t, open)
}

func TestBus_CloseStopsExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(WithClock(clock))

	b.Info("kept")
	b.Close()
	b.Info("dropped")

	clock.Advance(time.Minute)
	assert.Equal(t, 1, b.Len())
}
