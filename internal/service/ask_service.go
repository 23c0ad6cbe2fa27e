package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
)

// AskService drives operator-side question creation and answer submission.
// Browser users sign their own transactions; this path serves bots and
// operational tooling wired to the backend wallet.
type AskService struct {
	sender *chain.Sender
	qs     *QuestionService
	flash  domain.FlashStore
	logger *slog.Logger
}

// NewAskService creates an AskService. sender may be nil, which disables
// writes (read-only deployments).
func NewAskService(sender *chain.Sender, qs *QuestionService, flash domain.FlashStore, logger *slog.Logger) *AskService {
	return &AskService{
		sender: sender,
		qs:     qs,
		flash:  flash,
		logger: logger.With(slog.String("component", "ask_service")),
	}
}

// AskInput is the validated form payload for question creation.
type AskInput struct {
	ChainID    int64
	TemplateID uint32
	Question   string
	Arbitrator string
	TimeoutSec int64
	OpeningTs  int64
	BondToken  string
	Bounty     *big.Int
}

// FieldErrors maps form field names to validation messages. Validation runs
// before any network call.
type FieldErrors map[string]string

// Validate checks the required fields, returning a non-empty FieldErrors on
// failure.
func (in AskInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(in.Question) == "" {
		errs["question"] = "question text is required"
	}
	if in.TimeoutSec <= 0 {
		errs["timeout"] = "timeout must be positive"
	}
	if in.BondToken == "" {
		errs["bond_token"] = "bond token is required"
	}
	if in.Bounty != nil && in.Bounty.Sign() < 0 {
		errs["bounty"] = "bounty must not be negative"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Ask submits askQuestionERC20V3 and announces the optimistic stub. A user
// rejection is reported as (zero stub, nil error) so callers stay silent
// about it.
func (s *AskService) Ask(ctx context.Context, in AskInput) (domain.Stub, error) {
	if s.sender == nil {
		return domain.Stub{}, fmt.Errorf("ask_service: %w", domain.ErrUnauthorized)
	}
	if errs := in.Validate(); errs != nil {
		return domain.Stub{}, fmt.Errorf("ask_service: %w", domain.ErrInvalidQuestion)
	}

	bounty := in.Bounty
	if bounty == nil {
		bounty = new(big.Int)
	}

	nonce := new(big.Int).SetInt64(time.Now().UnixNano())
	txHash, qid, err := s.sender.AskQuestion(ctx, chain.AskParams{
		TemplateID: in.TemplateID,
		Question:   in.Question,
		Arbitrator: hexOrZero(in.Arbitrator),
		TimeoutSec: in.TimeoutSec,
		OpeningTs:  in.OpeningTs,
		Nonce:      nonce,
		BondToken:  hexOrZero(in.BondToken),
		Bounty:     bounty,
	})
	if err != nil {
		if chain.IsUserRejected(err) {
			// Intentional cancellation, not a failure.
			s.logger.InfoContext(ctx, "ask rejected by user")
			return domain.Stub{}, nil
		}
		return domain.Stub{}, fmt.Errorf("ask_service: ask question: %w", err)
	}

	stub := domain.Stub{
		ID:        qid,
		ChainID:   in.ChainID,
		Title:     in.Question,
		TxHash:    txHash,
		CreatedTs: time.Now().Unix(),
	}
	s.qs.Announce(ctx, stub)

	if err := s.flash.Set(ctx, flashKey(in.ChainID), "Question submitted; it will appear once confirmed."); err != nil {
		s.logger.WarnContext(ctx, "set flash failed", slog.String("error", err.Error()))
	}

	return stub, nil
}

// Answer submits an answer through the selected payment mode.
func (s *AskService) Answer(ctx context.Context, mode string, p chain.AnswerParams) (string, error) {
	if s.sender == nil {
		return "", fmt.Errorf("ask_service: %w", domain.ErrUnauthorized)
	}
	if p.Bond == nil || p.Bond.Sign() <= 0 {
		return "", fmt.Errorf("ask_service: %w", domain.ErrInvalidQuestion)
	}

	txHash, err := s.sender.SubmitAnswer(ctx, mode, p)
	if err != nil {
		if chain.IsUserRejected(err) {
			return "", nil
		}
		return "", fmt.Errorf("ask_service: submit answer: %w", err)
	}
	return txHash.Hex(), nil
}

func hexOrZero(s string) common.Address {
	if !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}

func flashKey(chainID int64) string {
	return fmt.Sprintf("chain:%d", chainID)
}
