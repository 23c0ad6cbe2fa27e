package handler

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/fees"
	"github.com/orakore/orakore/internal/payment"
)

// QuoteHandler serves fee quotes and payment mode selection.
type QuoteHandler struct {
	quoters     map[int64]*fees.Quoter
	selectors   map[int64]*payment.Selector
	deployments DeploymentSource
	logger      *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler. The maps are keyed by chain id.
func NewQuoteHandler(
	quoters map[int64]*fees.Quoter,
	selectors map[int64]*payment.Selector,
	deployments DeploymentSource,
	logger *slog.Logger,
) *QuoteHandler {
	return &QuoteHandler{
		quoters:     quoters,
		selectors:   selectors,
		deployments: deployments,
		logger:      logger,
	}
}

// feeQuoteRequest is the fee quote input. Bond is the raw token amount as a
// decimal string. Decimals is optional and defaults to 18; an explicit 0 is
// honored for zero-decimal tokens.
type feeQuoteRequest struct {
	ChainID  int64  `json:"chain_id"`
	Bond     string `json:"bond"`
	Decimals *uint8 `json:"decimals"`
}

// QuoteFee returns the submission fee and total for a bond.
// POST /api/quotes/fee
func (h *QuoteHandler) QuoteFee(w http.ResponseWriter, r *http.Request) {
	var req feeQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quoter, ok := h.quoters[req.ChainID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chain")
		return
	}

	bond, ok := new(big.Int).SetString(req.Bond, 10)
	if !ok || bond.Sign() < 0 {
		writeError(w, http.StatusBadRequest, "bond must be a non-negative decimal string")
		return
	}
	decimals := uint8(18)
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	quote := quoter.QuoteFee(r.Context(), bond, decimals)
	writeJSON(w, http.StatusOK, quote)
}

// PaymentModes returns the available payment modes and the auto-pick for a
// token on a chain.
// GET /api/payment-modes?chain_id=8217&token=0x..&symbol=USDT
func (h *QuoteHandler) PaymentModes(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainID(r.URL.Query().Get("chain_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing chain_id")
		return
	}

	selector, ok := h.selectors[chainID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chain")
		return
	}

	dep, err := h.deployments.Resolve(r.Context(), chainID)
	if err != nil || dep == nil {
		writeError(w, http.StatusNotFound, "no deployment for chain")
		return
	}

	tokenHex := r.URL.Query().Get("token")
	if !common.IsHexAddress(tokenHex) {
		writeError(w, http.StatusBadRequest, "invalid token address")
		return
	}

	sel := selector.Select(r.Context(), dep, common.HexToAddress(tokenHex), r.URL.Query().Get("symbol"))
	writeJSON(w, http.StatusOK, sel)
}
