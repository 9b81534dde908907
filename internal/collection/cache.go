// Package collection keeps a client-side copy of a server-backed list
// (projects, tasks) and applies mutations to it. Creates are pessimistic:
// a record is only inserted once the server has assigned its id. Updates
// and deletes are optimistic: they apply immediately and are compensated
// from a pre-image if the server rejects them.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/toast"
)

var (
	// ErrMutationFailed wraps every failed create, update or delete.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrLoadFailed wraps a failed load.
	ErrLoadFailed = errors.New("load failed")

	// ErrUpdateUnsupported is returned by Update when the backend has no
	// update endpoint.
	ErrUpdateUnsupported = errors.New("update not supported")

	// ErrNotFound is returned when a mutation targets an id that is not in
	// the collection.
	ErrNotFound = errors.New("record not found")
)

// Record is a server-identified entity held in a collection.
type Record interface {
	RecordID() int64
}

// Patch is a partial update that can be applied to a record locally.
type Patch[T any] interface {
	Apply(T) T
}

// Backend is the server side of a collection.
type Backend[T Record, D any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft D) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Updater is implemented by backends that support partial updates. The
// returned record, if non-nil, replaces the optimistic one.
type Updater[T Record, P Patch[T]] interface {
	Update(ctx context.Context, id int64, patch P) (*T, error)
}

// Toaster receives user-facing messages.
type Toaster interface {
	Push(message string, severity toast.Severity) toast.Toast
}

// Cache is the client's current belief about one server collection.
// Records only change through its methods. Concurrent mutations are not
// serialized per record: each carries its own pre-image, and the last
// completion to arrive wins.
type Cache[T Record, D any, P Patch[T]] struct {
	backend Backend[T, D]
	toaster Toaster
	msgs    Messages
	logger  *slog.Logger

	mu        sync.Mutex
	items     []T
	discarded bool
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	toaster Toaster
	msgs    *Messages
	logger  *slog.Logger
}

// WithToaster sets where success and failure messages go.
func WithToaster(t Toaster) Option {
	return func(o *options) { o.toaster = t }
}

// WithMessages overrides the default message texts.
func WithMessages(m Messages) Option {
	return func(o *options) { o.msgs = &m }
}

// WithLogger sets the logger for failures and rollbacks.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an empty cache over backend. noun names one record for
// messages, e.g. "project".
func New[T Record, D any, P Patch[T]](backend Backend[T, D], noun string, opts ...Option) *Cache[T, D, P] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	msgs := DefaultMessages(noun)
	if o.msgs != nil {
		msgs = *o.msgs
	}
	return &Cache[T, D, P]{
		backend: backend,
		toaster: o.toaster,
		msgs:    msgs,
		logger:  o.logger.With("collection", noun),
	}
}

// Items returns a copy of the collection in display order.
func (c *Cache[T, D, P]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Get returns the record with id.
func (c *Cache[T, D, P]) Get(id int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of records.
func (c *Cache[T, D, P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Load replaces the whole collection with the server's listing. Concurrent
// loads are not ordered: whichever response arrives last wins.
func (c *Cache[T, D, P]) Load(ctx context.Context) error {
	items, err := c.backend.List(ctx)
	if err != nil {
		c.logger.Warn("load failed", "error", err)
		c.toast(api.UserMessage(err, c.msgs.LoadFailed), toast.Error)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discarded {
		return nil
	}
	c.items = append(make([]T, 0, len(items)), items...)
	return nil
}

// Create sends draft to the server and, once it is confirmed, prepends the
// stored record. Nothing is inserted before confirmation.
func (c *Cache[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T

	if v, ok := any(draft).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			c.toast(err.Error(), toast.Error)
			return zero, fmt.Errorf("%w: %w", ErrMutationFailed, err)
		}
	}

	record, err := c.backend.Create(ctx, draft)
	if err != nil {
		c.logger.Warn("create failed", "error", err)
		c.toast(api.UserMessage(err, c.msgs.CreateFailed), toast.Error)
		return zero, fmt.Errorf("%w: %w", ErrMutationFailed, err)
	}

	c.mu.Lock()
	if !c.discarded {
		if i := indexOf(c.items, record.RecordID()); i >= 0 {
			// A reload already brought it in.
			c.items[i] = record
		} else {
			c.items = append([]T{record}, c.items...)
		}
	}
	c.mu.Unlock()

	c.toast(c.msgs.Created, toast.Success)
	return record, nil
}

// Update applies patch to the record immediately, then sends it to the
// server. On failure the record is restored to its state at call time.
// On success a representation returned by the server replaces the
// optimistic one.
func (c *Cache[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T

	updater, ok := any(c.backend).(Updater[T, P])
	if !ok {
		return zero, ErrUpdateUnsupported
	}

	c.mu.Lock()
	pre, found := capture(c.items, id)
	if !found {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %w", ErrMutationFailed, ErrNotFound)
	}
	optimistic := patch.Apply(pre.pre)
	c.items[pre.index] = optimistic
	c.mu.Unlock()

	server, err := updater.Update(ctx, id, patch)

	c.mu.Lock()
	if err != nil {
		if !c.discarded {
			c.items = pre.restore(c.items)
		}
		c.mu.Unlock()
		c.logger.Warn("update failed, rolled back", "id", id, "error", err)
		c.toast(api.UserMessage(err, c.msgs.UpdateFailed), toast.Error)
		return zero, fmt.Errorf("%w: %w", ErrMutationFailed, err)
	}

	result := optimistic
	if server != nil {
		result = *server
		if !c.discarded {
			if i := indexOf(c.items, id); i >= 0 {
				c.items[i] = result
			}
		}
	}
	c.mu.Unlock()

	return result, nil
}

// Delete removes the record immediately, then deletes it on the server.
// On failure the record is put back at its original index.
func (c *Cache[T, D, P]) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	pre, found := capture(c.items, id)
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrMutationFailed, ErrNotFound)
	}
	c.items = append(c.items[:pre.index:pre.index], c.items[pre.index+1:]...)
	c.mu.Unlock()

	if err := c.backend.Delete(ctx, id); err != nil {
		c.mu.Lock()
		if !c.discarded {
			c.items = pre.reinsert(c.items)
		}
		c.mu.Unlock()
		c.logger.Warn("delete failed, reinserted", "id", id, "index", pre.index, "error", err)
		c.toast(api.UserMessage(err, c.msgs.DeleteFailed), toast.Error)
		return fmt.Errorf("%w: %w", ErrMutationFailed, err)
	}

	c.toast(c.msgs.Deleted, toast.Success)
	return nil
}

// Discard marks the view owning the cache as torn down. Requests still in
// flight complete without touching the collection.
func (c *Cache[T, D, P]) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discarded = true
	c.items = nil
}

func (c *Cache[T, D, P]) toast(message string, severity toast.Severity) {
	if c.toaster == nil || message == "" {
		return
	}
	c.toaster.Push(message, severity)
}
