package source

import (
	"context"
	"sync"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// List produces its items one by one across successive calls. Once all items
// are consumed it fails with an *ExhaustionError, unless cycling was asked for
// explicitly — recycling is never silent.
//
// The cursor is the only mutable state and is guarded for concurrent use.
type List struct {
	items []string
	cycle bool
	cfg   config

	mu   sync.Mutex
	next int
}

// NewList creates a source that returns one item per call, in order.
func NewList(items []string, opts ...Option) *List {
	cfg := newConfig(opts...)
	return &List{items: append([]string(nil), items...), cycle: cfg.cycle, cfg: cfg}
}

// WithCycle makes the list wrap around instead of exhausting.
func WithCycle() Option {
	return func(c *config) {
		c.cycle = true
	}
}

// GetContent returns the next item.
func (l *List) GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error) {
	return l.cfg.acquire(ctx, sess, func(ctx context.Context, sess *session.Session, _ string) (ports.ModelOutput, error) {
		item, err := l.take()
		if err != nil {
			return ports.ModelOutput{}, err
		}
		return Text(item), nil
	})
}

// Remaining reports how many items are left before exhaustion. Cycling lists
// never exhaust.
func (l *List) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cycle {
		return len(l.items)
	}
	return len(l.items) - l.next
}

func (l *List) take() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.next >= len(l.items) {
		if !l.cycle || len(l.items) == 0 {
			return "", &ExhaustionError{Items: len(l.items)}
		}
		l.next = 0
	}
	item := l.items[l.next]
	l.next++
	return item, nil
}
