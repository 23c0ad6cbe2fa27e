package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/domain"
)

// FlashHandler serves one-shot flash messages and per-address disclaimer
// acknowledgements.
type FlashHandler struct {
	flash      domain.FlashStore
	disclaimer domain.DisclaimerStore
	logger     *slog.Logger
}

// NewFlashHandler creates a FlashHandler.
func NewFlashHandler(flash domain.FlashStore, disclaimer domain.DisclaimerStore, logger *slog.Logger) *FlashHandler {
	return &FlashHandler{flash: flash, disclaimer: disclaimer, logger: logger}
}

// TakeFlash pops the pending flash message for a chain. Reading consumes it;
// a second read returns an empty message.
// GET /api/flash?chain_id=8217
func (h *FlashHandler) TakeFlash(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainID(r.URL.Query().Get("chain_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing chain_id")
		return
	}

	msg, err := h.flash.Take(r.Context(), fmt.Sprintf("chain:%d", chainID))
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: take flash failed", slog.String("error", err.Error()))
		msg = ""
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// GetDisclaimer reports whether an address has acknowledged the disclaimer.
// GET /api/disclaimer/{addr}
func (h *FlashHandler) GetDisclaimer(w http.ResponseWriter, r *http.Request) {
	addr := pathParam(r, "addr")
	if !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	ok, err := h.disclaimer.Acknowledged(r.Context(), common.HexToAddress(addr))
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: disclaimer read failed", slog.String("error", err.Error()))
		ok = false
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": ok})
}

// AcknowledgeDisclaimer records that an address accepted the disclaimer.
// POST /api/disclaimer/{addr}
func (h *FlashHandler) AcknowledgeDisclaimer(w http.ResponseWriter, r *http.Request) {
	addr := pathParam(r, "addr")
	if !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	if err := h.disclaimer.Acknowledge(r.Context(), common.HexToAddress(addr)); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: disclaimer write failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to record acknowledgement")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}
