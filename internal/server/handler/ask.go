package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/service"
)

// AskHandler serves the write endpoints backed by the operator wallet.
type AskHandler struct {
	ask    *service.AskService
	logger *slog.Logger
}

// NewAskHandler creates an AskHandler.
func NewAskHandler(ask *service.AskService, logger *slog.Logger) *AskHandler {
	return &AskHandler{ask: ask, logger: logger}
}

// askRequest is the question creation payload. Bounty is a raw decimal
// string in bond token units.
type askRequest struct {
	ChainID    int64  `json:"chain_id"`
	TemplateID uint32 `json:"template_id"`
	Question   string `json:"question"`
	Arbitrator string `json:"arbitrator"`
	TimeoutSec int64  `json:"timeout_sec"`
	OpeningTs  int64  `json:"opening_ts"`
	BondToken  string `json:"bond_token"`
	Bounty     string `json:"bounty"`
}

// AskQuestion submits a new question and returns the optimistic stub.
// POST /api/questions
func (h *AskHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.AskInput{
		ChainID:    req.ChainID,
		TemplateID: req.TemplateID,
		Question:   req.Question,
		Arbitrator: req.Arbitrator,
		TimeoutSec: req.TimeoutSec,
		OpeningTs:  req.OpeningTs,
		BondToken:  req.BondToken,
	}
	if req.Bounty != "" {
		bounty, ok := new(big.Int).SetString(req.Bounty, 10)
		if !ok {
			writeError(w, http.StatusBadRequest, "bounty must be a decimal string")
			return
		}
		in.Bounty = bounty
	}

	if errs := in.Validate(); errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	stub, err := h.ask.Ask(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusForbidden, "writes are disabled")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: ask question failed",
			slog.Int64("chain_id", req.ChainID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "ask transaction failed")
		return
	}

	// Zero stub means the signer rejected; nothing was broadcast.
	if stub.ID == (common.Hash{}) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusAccepted, stub)
}

// answerRequest is the answer submission payload. Amounts are raw decimal
// strings.
type answerRequest struct {
	ChainID     int64  `json:"chain_id"`
	Mode        string `json:"mode"`
	QuestionID  string `json:"question_id"`
	Answer      string `json:"answer"`
	Bond        string `json:"bond"`
	MaxPrevious string `json:"max_previous"`
}

// SubmitAnswer submits an answer through the requested payment mode.
// POST /api/answers
func (h *AskHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bond, ok := new(big.Int).SetString(req.Bond, 10)
	if !ok || bond.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "bond must be a positive decimal string")
		return
	}
	maxPrev := new(big.Int)
	if req.MaxPrevious != "" {
		if maxPrev, ok = new(big.Int).SetString(req.MaxPrevious, 10); !ok {
			writeError(w, http.StatusBadRequest, "max_previous must be a decimal string")
			return
		}
	}

	txHash, err := h.ask.Answer(r.Context(), req.Mode, chain.AnswerParams{
		QuestionID:  common.HexToHash(req.QuestionID),
		Answer:      common.HexToHash(req.Answer),
		Bond:        bond,
		MaxPrevious: maxPrev,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusForbidden, "writes are disabled")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: submit answer failed",
			slog.Int64("chain_id", req.ChainID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "answer transaction failed")
		return
	}

	if txHash == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"tx_hash": txHash})
}
