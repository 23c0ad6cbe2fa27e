package reader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

type fakeStrategy struct {
	name     string
	page     domain.QuestionPage
	err      error
	attempts int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Attempt(_ context.Context, _ PageRequest) (domain.QuestionPage, error) {
	f.attempts++
	return f.page, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchFirstTierWins(t *testing.T) {
	first := &fakeStrategy{name: "v3", page: domain.QuestionPage{Total: 7}}
	second := &fakeStrategy{name: "v2-logs"}
	r := New(testLogger(), first, second)

	page, err := r.Fetch(context.Background(), PageRequest{ChainID: 8217, Page: 0, PageSize: 25})

	require.NoError(t, err)
	require.Equal(t, "v3", page.Source)
	require.Equal(t, uint64(7), page.Total)
	require.Zero(t, second.attempts)
}

func TestFetchFallsThroughTiers(t *testing.T) {
	first := &fakeStrategy{name: "v3", err: errors.New("rpc timeout")}
	second := &fakeStrategy{name: "v2-logs", err: errors.New("filter unsupported")}
	third := &fakeStrategy{name: "cache", page: domain.QuestionPage{Total: 3}}
	r := New(testLogger(), first, second, third)

	page, err := r.Fetch(context.Background(), PageRequest{ChainID: 8217})

	require.NoError(t, err)
	require.Equal(t, "cache", page.Source)
	require.Equal(t, 1, first.attempts)
	require.Equal(t, 1, second.attempts)
}

func TestFetchSurfacesFinalTierError(t *testing.T) {
	first := &fakeStrategy{name: "v3", err: errors.New("rpc timeout")}
	last := &fakeStrategy{name: "cache", err: domain.ErrNoCache}
	r := New(testLogger(), first, last)

	_, err := r.Fetch(context.Background(), PageRequest{ChainID: 8217})

	// Only the final tier's error reaches the caller.
	require.ErrorIs(t, err, domain.ErrNoCache)
	require.NotContains(t, err.Error(), "rpc timeout")
}

func TestFetchNoStrategies(t *testing.T) {
	r := New(testLogger())

	_, err := r.Fetch(context.Background(), PageRequest{})

	require.ErrorIs(t, err, domain.ErrNoCache)
}

func TestMuxRoutesByChain(t *testing.T) {
	kaia := New(testLogger(), &fakeStrategy{name: "v3", page: domain.QuestionPage{ChainID: 8217}})
	kairos := New(testLogger(), &fakeStrategy{name: "v3", page: domain.QuestionPage{ChainID: 1001}})
	m := NewMux(map[int64]*Reader{8217: kaia, 1001: kairos})

	page, err := m.Fetch(context.Background(), PageRequest{ChainID: 1001})
	require.NoError(t, err)
	require.Equal(t, int64(1001), page.ChainID)
}

func TestMuxUnknownChain(t *testing.T) {
	m := NewMux(map[int64]*Reader{})

	_, err := m.Fetch(context.Background(), PageRequest{ChainID: 99999})

	require.ErrorIs(t, err, domain.ErrNoDeployment)
}
