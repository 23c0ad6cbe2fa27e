// Package bus implements the in-process question event bus: a synchronous
// publish/subscribe channel carrying optimistic stubs and indexer
// confirmations. The bus is an injectable service object constructed per
// application instance, not a package-level singleton, so tests get isolated
// instances.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/orakore/orakore/internal/domain"
)

// Bus delivers events synchronously, in listener registration order. There
// is no buffering or replay: a listener registered after an emit never sees
// it. Question-created events are additionally persisted through the stub
// store so a fresh process rehydrates unseen stubs.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener

	stubs  domain.StubStore
	logger *slog.Logger
}

type listener struct {
	id uint64
	fn func(domain.Event)
}

// New creates a Bus. stubs may be nil, in which case emitted stubs are not
// persisted (tests, ephemeral tooling).
func New(stubs domain.StubStore, logger *slog.Logger) *Bus {
	return &Bus{
		stubs:  stubs,
		logger: logger.With(slog.String("component", "bus")),
	}
}

// On registers a listener and returns its unsubscribe closure. The closure
// is idempotent.
func (b *Bus) On(fn func(domain.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, l := range b.listeners {
				if l.id == id {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers ev to every listener registered at call time, in
// registration order, on the calling goroutine. Question-created events are
// persisted to the stub store before delivery so a crash between emit and
// confirmation does not lose the stub.
func (b *Bus) Emit(ctx context.Context, ev domain.Event) {
	if ev.Type == domain.EventQuestionCreated && b.stubs != nil {
		if err := b.stubs.Push(ctx, ev.Stub); err != nil {
			// Persistence failure degrades to in-memory-only delivery.
			b.logger.WarnContext(ctx, "persist stub failed",
				slog.String("question_id", ev.Stub.ID.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}

	b.mu.Lock()
	snapshot := make([]listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, l := range snapshot {
		l.fn(ev)
	}
}

var _ domain.QuestionBus = (*Bus)(nil)
