package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/fees"
	"github.com/orakore/orakore/internal/payment"
)

func newQuoteHandler(dep *domain.Deployment) *QuoteHandler {
	return NewQuoteHandler(
		map[int64]*fees.Quoter{8217: fees.NewQuoter(nil, 25, testLogger())},
		map[int64]*payment.Selector{8217: payment.NewSelector(nil)},
		&fakeDeployments{dep: dep},
		testLogger(),
	)
}

func TestQuoteFee(t *testing.T) {
	h := newQuoteHandler(nil)

	body := `{"chain_id": 8217, "bond": "1000000", "decimals": 6}`
	req := httptest.NewRequest(http.MethodPost, "/api/quotes/fee", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.QuoteFee(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var quote struct {
		Fee            string `json:"fee"`
		Total          string `json:"total"`
		TotalFormatted string `json:"total_formatted"`
		Source         string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, "2500", quote.Fee)
	require.Equal(t, "1002500", quote.Total)
	require.Equal(t, "1.0025", quote.TotalFormatted)
	require.Equal(t, "fallback", quote.Source)
}

func TestQuoteFeeDecimals(t *testing.T) {
	h := newQuoteHandler(nil)

	quoteFor := func(t *testing.T, body string) (fee, total string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/quotes/fee", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.QuoteFee(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var quote struct {
			FeeFormatted   string `json:"fee_formatted"`
			TotalFormatted string `json:"total_formatted"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
		return quote.FeeFormatted, quote.TotalFormatted
	}

	t.Run("omitted decimals default to 18", func(t *testing.T) {
		fee, total := quoteFor(t, `{"chain_id": 8217, "bond": "1000000000000000000"}`)
		require.Equal(t, "0.0025", fee)
		require.Equal(t, "1.0025", total)
	})

	t.Run("explicit zero decimals are honored", func(t *testing.T) {
		fee, total := quoteFor(t, `{"chain_id": 8217, "bond": "10000", "decimals": 0}`)
		require.Equal(t, "25", fee)
		require.Equal(t, "10025", total)
	})
}

func TestQuoteFeeUnknownChain(t *testing.T) {
	h := newQuoteHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/fee",
		strings.NewReader(`{"chain_id": 1, "bond": "100"}`))
	rec := httptest.NewRecorder()
	h.QuoteFee(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteFeeBadBond(t *testing.T) {
	h := newQuoteHandler(nil)

	for _, bond := range []string{`"abc"`, `"-5"`, `""`} {
		req := httptest.NewRequest(http.MethodPost, "/api/quotes/fee",
			strings.NewReader(`{"chain_id": 8217, "bond": `+bond+`}`))
		rec := httptest.NewRecorder()
		h.QuoteFee(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "bond=%s", bond)
	}
}

func TestPaymentModes(t *testing.T) {
	dep := &domain.Deployment{
		RealitioERC20: common.HexToAddress("0x01"),
		Permit2:       common.HexToAddress("0x02"),
		ZapperWKAIA:   common.HexToAddress("0x03"),
	}
	h := newQuoteHandler(dep)

	req := httptest.NewRequest(http.MethodGet,
		"/api/payment-modes?chain_id=8217&token=0x19Aac5f612f524B754CA7e7c41cbFa2E981A4432&symbol=WKAIA", nil)
	rec := httptest.NewRecorder()
	h.PaymentModes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sel payment.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	require.Equal(t, payment.ModePermit2, sel.Selected)
	require.Contains(t, sel.Available, payment.ModeZap)
	require.Contains(t, sel.Available, payment.ModeApprove)
}

func TestPaymentModesNoDeployment(t *testing.T) {
	h := newQuoteHandler(nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/payment-modes?chain_id=8217&token=0x19Aac5f612f524B754CA7e7c41cbFa2E981A4432", nil)
	rec := httptest.NewRecorder()
	h.PaymentModes(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentModesBadToken(t *testing.T) {
	h := newQuoteHandler(&domain.Deployment{RealitioERC20: common.HexToAddress("0x01")})

	req := httptest.NewRequest(http.MethodGet, "/api/payment-modes?chain_id=8217&token=nope", nil)
	rec := httptest.NewRecorder()
	h.PaymentModes(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
