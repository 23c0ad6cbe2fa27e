package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeFlashStore struct {
	messages map[string]string
}

func (f *fakeFlashStore) Set(_ context.Context, key, message string) error {
	if f.messages == nil {
		f.messages = map[string]string{}
	}
	f.messages[key] = message
	return nil
}

func (f *fakeFlashStore) Take(_ context.Context, key string) (string, error) {
	msg := f.messages[key]
	delete(f.messages, key)
	return msg, nil
}

type fakeDisclaimerStore struct {
	acked map[common.Address]bool
}

func (f *fakeDisclaimerStore) Acknowledge(_ context.Context, addr common.Address) error {
	if f.acked == nil {
		f.acked = map[common.Address]bool{}
	}
	f.acked[addr] = true
	return nil
}

func (f *fakeDisclaimerStore) Acknowledged(_ context.Context, addr common.Address) (bool, error) {
	return f.acked[addr], nil
}

func flashMux(h *FlashHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/flash", h.TakeFlash)
	mux.HandleFunc("GET /api/disclaimer/{addr}", h.GetDisclaimer)
	mux.HandleFunc("POST /api/disclaimer/{addr}", h.AcknowledgeDisclaimer)
	return mux
}

func takeFlash(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/flash?chain_id=8217", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestTakeFlashConsumes(t *testing.T) {
	flash := &fakeFlashStore{}
	require.NoError(t, flash.Set(context.Background(), "chain:8217", "Question submitted"))
	mux := flashMux(NewFlashHandler(flash, &fakeDisclaimerStore{}, testLogger()))

	require.Equal(t, "Question submitted", takeFlash(t, mux))

	// The read consumed it.
	require.Empty(t, takeFlash(t, mux))
}

func TestTakeFlashBadChain(t *testing.T) {
	mux := flashMux(NewFlashHandler(&fakeFlashStore{}, &fakeDisclaimerStore{}, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/flash", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisclaimerFlow(t *testing.T) {
	mux := flashMux(NewFlashHandler(&fakeFlashStore{}, &fakeDisclaimerStore{}, testLogger()))
	addr := "0xd077A400968890EacC75cdc901F0356c943e4fDb"

	check := func(want bool) {
		req := httptest.NewRequest(http.MethodGet, "/api/disclaimer/"+addr, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Acknowledged bool `json:"acknowledged"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, want, body.Acknowledged)
	}

	check(false)

	req := httptest.NewRequest(http.MethodPost, "/api/disclaimer/"+addr, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	check(true)
}

func TestDisclaimerBadAddress(t *testing.T) {
	mux := flashMux(NewFlashHandler(&fakeFlashStore{}, &fakeDisclaimerStore{}, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/disclaimer/nothex", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
