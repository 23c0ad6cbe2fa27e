package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

type fakeStubStore struct {
	pushed  []domain.Stub
	pushErr error
}

func (f *fakeStubStore) Push(_ context.Context, stub domain.Stub) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, stub)
	return nil
}

func (f *fakeStubStore) ListByChain(_ context.Context, _ int64) ([]domain.Stub, error) {
	return f.pushed, nil
}

func (f *fakeStubStore) Remove(_ context.Context, _ int64, _ common.Hash) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitDeliversInRegistrationOrder(t *testing.T) {
	b := New(nil, testLogger())

	var order []string
	b.On(func(domain.Event) { order = append(order, "first") })
	b.On(func(domain.Event) { order = append(order, "second") })
	b.On(func(domain.Event) { order = append(order, "third") })

	b.Emit(context.Background(), domain.Event{Type: domain.EventQuestionConfirmed})

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEmitIsSynchronous(t *testing.T) {
	b := New(nil, testLogger())

	delivered := false
	b.On(func(domain.Event) { delivered = true })

	b.Emit(context.Background(), domain.Event{Type: domain.EventAnswerSubmitted})

	// Delivery completes before Emit returns, on the calling goroutine.
	require.True(t, delivered)
}

func TestUnsubscribe(t *testing.T) {
	b := New(nil, testLogger())

	var calls int
	unsubscribe := b.On(func(domain.Event) { calls++ })

	b.Emit(context.Background(), domain.Event{})
	unsubscribe()
	b.Emit(context.Background(), domain.Event{})

	require.Equal(t, 1, calls)

	// Idempotent: a second call must not panic or affect other listeners.
	unsubscribe()
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	b := New(nil, testLogger())

	b.Emit(context.Background(), domain.Event{Type: domain.EventQuestionCreated})

	var calls int
	b.On(func(domain.Event) { calls++ })

	require.Zero(t, calls)
}

func TestEmitPersistsCreatedStubs(t *testing.T) {
	store := &fakeStubStore{}
	b := New(store, testLogger())

	stub := domain.Stub{
		ID:      common.HexToHash("0xaa"),
		ChainID: 8217,
		Title:   "Will it ship?",
	}
	b.Emit(context.Background(), domain.Event{
		Type:    domain.EventQuestionCreated,
		ChainID: 8217,
		Stub:    stub,
	})

	require.Len(t, store.pushed, 1)
	require.Equal(t, stub, store.pushed[0])
}

func TestEmitDoesNotPersistOtherEvents(t *testing.T) {
	store := &fakeStubStore{}
	b := New(store, testLogger())

	b.Emit(context.Background(), domain.Event{Type: domain.EventQuestionConfirmed})

	require.Empty(t, store.pushed)
}

func TestEmitSurvivesPersistFailure(t *testing.T) {
	store := &fakeStubStore{pushErr: errors.New("redis down")}
	b := New(store, testLogger())

	var delivered bool
	b.On(func(domain.Event) { delivered = true })

	b.Emit(context.Background(), domain.Event{Type: domain.EventQuestionCreated})

	require.True(t, delivered)
}

func TestUnsubscribeDuringEmitSnapshot(t *testing.T) {
	b := New(nil, testLogger())

	var calls int
	var unsubscribeSecond func()
	b.On(func(domain.Event) {
		calls++
		unsubscribeSecond()
	})
	unsubscribeSecond = b.On(func(domain.Event) { calls++ })

	// The snapshot taken at emit time still delivers to the second
	// listener even though the first unsubscribed it mid-delivery.
	b.Emit(context.Background(), domain.Event{})
	require.Equal(t, 2, calls)

	b.Emit(context.Background(), domain.Event{})
	require.Equal(t, 3, calls)
}
