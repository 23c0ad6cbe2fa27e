package deploy

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testChainID has no embedded bundle, so resolution exercises the network
// fallback.
const testChainID = int64(31337)

func TestResolveStaticBundle(t *testing.T) {
	r := NewResolver("", testLogger())

	dep, err := r.Resolve(context.Background(), 8217)
	require.NoError(t, err)
	require.True(t, dep.Ready())
	require.Equal(t, int64(8217), dep.ChainID)
	require.NotEqual(t, common.Address{}, dep.RealitioERC20)
}

func TestResolveNetworkFallback(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		require.Equal(t, "/deployments/31337.json", req.URL.Path)
		w.Write([]byte(`{
			"realitioERC20": "0x1111111111111111111111111111111111111111",
			"arbitratorSimple": "0x2222222222222222222222222222222222222222",
			"feeBps": 25
		}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.True(t, dep.Ready())
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), dep.RealitioERC20)
	require.Equal(t, int64(25), dep.FeeBps)

	// Second lookup answers from the memo.
	_, err = r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestResolveFieldAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"RealitioERC20": "0x1111111111111111111111111111111111111111",
			"MockUSDT": "0x3333333333333333333333333333333333333333"
		}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.True(t, dep.Ready())
	require.Equal(t, common.HexToAddress("0x3333333333333333333333333333333333333333"), dep.USDT)
}

func TestResolveMissOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Nil(t, dep)
	require.False(t, r.Ready(context.Background(), testChainID))
}

func TestResolveMissOnMalformedBody(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Nil(t, dep)

	// Misses are remembered; the second lookup does not refetch.
	_, err = r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestResolveErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	_, err := r.Resolve(context.Background(), testChainID)
	require.Error(t, err)
}

func TestResolveIncompleteBundleIsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Valid JSON but no oracle address.
		w.Write([]byte(`{"feeBps": 25}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Nil(t, dep)
}

func TestResolveNoBaseURL(t *testing.T) {
	r := NewResolver("", testLogger())

	dep, err := r.Resolve(context.Background(), testChainID)
	require.NoError(t, err)
	require.Nil(t, dep)
}
