package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/orakore/orakore/internal/domain"
)

// gasMarginPercent pads the estimated gas limit.
const gasMarginPercent = 20

// Sender submits oracle transactions signed with the operator wallet. It
// exists for operator tooling and the answer entry points; browser users
// sign with their own wallets and never touch this path.
type Sender struct {
	caller *Caller
	wallet *Wallet
	dep    *domain.Deployment
}

// NewSender binds a sender to a caller, wallet, and deployment bundle.
func NewSender(caller *Caller, wallet *Wallet, dep *domain.Deployment) *Sender {
	return &Sender{caller: caller, wallet: wallet, dep: dep}
}

// AskParams are the inputs to askQuestionERC20V3.
type AskParams struct {
	TemplateID uint32
	Question   string
	Arbitrator common.Address
	TimeoutSec int64
	OpeningTs  int64
	Nonce      *big.Int
	BondToken  common.Address
	Bounty     *big.Int
}

// AnswerParams are the shared inputs to the answer entry points.
type AnswerParams struct {
	QuestionID  common.Hash
	Answer      common.Hash
	MaxPrevious *big.Int
	Bond        *big.Int

	// Commitment, when set, routes through the commit-reveal entry point
	// with Answer carrying the answer hash.
	Commitment bool
	Answerer   common.Address

	// Permit2 payload (mode permit2).
	Permit2Data      []byte
	Permit2Signature []byte

	// EIP-2612 payload (mode eip2612).
	PermitDeadline *big.Int
	PermitV        uint8
	PermitR        common.Hash
	PermitS        common.Hash

	// TokenAmount is the ERC-20 remainder for the zap mode; the native
	// value sent alongside covers the rest.
	TokenAmount *big.Int
	NativeValue *big.Int
}

// ContentHash computes the content hash the contract derives at creation:
// keccak256 of the tightly packed (templateId, openingTs, question).
func ContentHash(templateID uint32, openingTs int64, question string) common.Hash {
	packed := make([]byte, 0, 64+len(question))
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetUint64(uint64(templateID)).Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetInt64(openingTs).Bytes(), 32)...)
	packed = append(packed, []byte(question)...)
	return common.BytesToHash(ethcrypto.Keccak256(packed))
}

// QuestionID precomputes the content-addressed question identifier the
// contract will assign, so an optimistic stub can be published before the
// transaction is mined.
func QuestionID(templateID uint32, contentHash common.Hash, arbitrator common.Address, timeoutSec, openingTs int64, nonce *big.Int, asker common.Address) common.Hash {
	if nonce == nil {
		nonce = new(big.Int)
	}
	packed := make([]byte, 0, 32*4+20*2+32)
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetUint64(uint64(templateID)).Bytes(), 32)...)
	packed = append(packed, contentHash.Bytes()...)
	packed = append(packed, arbitrator.Bytes()...)
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetInt64(timeoutSec).Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetInt64(openingTs).Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(nonce.Bytes(), 32)...)
	packed = append(packed, asker.Bytes()...)
	return common.BytesToHash(ethcrypto.Keccak256(packed))
}

// AskQuestion submits askQuestionERC20V3 and returns the transaction hash
// with the precomputed question ID.
func (s *Sender) AskQuestion(ctx context.Context, p AskParams) (common.Hash, common.Hash, error) {
	if s.wallet == nil {
		return common.Hash{}, common.Hash{}, errors.New("chain: writes disabled, no operator wallet")
	}

	input, err := s.caller.abis.oracle.Pack("askQuestionERC20V3",
		new(big.Int).SetUint64(uint64(p.TemplateID)),
		p.Question,
		p.Arbitrator,
		uint32(p.TimeoutSec),
		uint32(p.OpeningTs),
		p.Nonce,
		p.BondToken,
		p.Bounty,
	)
	if err != nil {
		return common.Hash{}, common.Hash{}, fmt.Errorf("chain: pack askQuestionERC20V3: %w", err)
	}

	txHash, err := s.send(ctx, s.caller.oracle, input, nil)
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}

	contentHash := ContentHash(p.TemplateID, p.OpeningTs, p.Question)
	qid := QuestionID(p.TemplateID, contentHash, p.Arbitrator, p.TimeoutSec, p.OpeningTs, p.Nonce, s.wallet.address)
	return txHash, qid, nil
}

// SubmitAnswer submits an answer through the entry point selected by mode.
// Any available mode produces an equivalent on-chain outcome; the mode only
// changes how the bond payment is authorized.
func (s *Sender) SubmitAnswer(ctx context.Context, mode string, p AnswerParams) (common.Hash, error) {
	if s.wallet == nil {
		return common.Hash{}, errors.New("chain: writes disabled, no operator wallet")
	}

	var (
		input []byte
		to    = s.caller.oracle
		value *big.Int
		err   error
	)

	switch {
	case p.Commitment:
		input, err = s.caller.abis.oracle.Pack("submitAnswerCommitmentERC20",
			[32]byte(p.QuestionID), [32]byte(p.Answer), p.MaxPrevious, p.Answerer, p.Bond)
	case mode == "permit2":
		input, err = s.caller.abis.oracle.Pack("submitAnswerERC20WithPermit2",
			[32]byte(p.QuestionID), [32]byte(p.Answer), p.MaxPrevious, p.Bond,
			p.Permit2Data, p.Permit2Signature)
	case mode == "eip2612":
		input, err = s.caller.abis.oracle.Pack("submitAnswerERC20WithPermit",
			[32]byte(p.QuestionID), [32]byte(p.Answer), p.MaxPrevious, p.Bond,
			p.PermitDeadline, p.PermitV, [32]byte(p.PermitR), [32]byte(p.PermitS))
	case mode == "zap":
		if !s.dep.HasZapper() {
			return common.Hash{}, errors.New("chain: zapper not configured")
		}
		to = s.dep.ZapperWKAIA
		value = p.NativeValue
		input, err = s.caller.abis.zapper.Pack("submitAnswerZapKAIA",
			[32]byte(p.QuestionID), [32]byte(p.Answer), p.MaxPrevious, p.TokenAmount)
	default:
		input, err = s.caller.abis.oracle.Pack("submitAnswerERC20",
			[32]byte(p.QuestionID), [32]byte(p.Answer), p.MaxPrevious, p.Bond)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack answer (%s): %w", mode, err)
	}

	return s.send(ctx, to, input, value)
}

// Approve submits a plain ERC-20 approve for the oracle spender, the
// two-transaction fallback payment path.
func (s *Sender) Approve(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error) {
	if s.wallet == nil {
		return common.Hash{}, errors.New("chain: writes disabled, no operator wallet")
	}

	input, err := s.caller.abis.erc20.Pack("approve", s.caller.oracle, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack approve: %w", err)
	}
	return s.send(ctx, token, input, nil)
}

// send estimates gas, signs with the operator key, and submits the
// transaction.
func (s *Sender) send(ctx context.Context, to common.Address, input []byte, value *big.Int) (common.Hash, error) {
	from := s.wallet.address

	nonce, err := s.caller.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pending nonce: %w", err)
	}

	gasPrice, err := s.caller.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: suggest gas price: %w", err)
	}

	msg := ethereum.CallMsg{From: from, To: &to, Data: input, Value: value}
	gasLimit, err := s.caller.client.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: estimate gas: %w", err)
	}
	gasLimit += gasLimit * gasMarginPercent / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})

	signer := types.LatestSignerForChainID(big.NewInt(s.caller.chainID))
	signed, err := types.SignTx(tx, signer, s.wallet.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: sign tx: %w", err)
	}

	if err := s.caller.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("chain: send tx: %w", err)
	}
	return signed.Hash(), nil
}
