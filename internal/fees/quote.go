// Package fees quotes the protocol fee on a bond. The contract's fee view is
// the primary source; any failure falls back to a local basis-point
// computation, which is the designed safety net for RPC flakiness and never
// errors.
package fees

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
)

// bpsDenominator converts basis points to a fraction.
var bpsDenominator = big.NewInt(10_000)

// FeeViewer is the contract read the quoter prefers. *chain.Caller satisfies
// it.
type FeeViewer interface {
	FeeOn(ctx context.Context, bond *big.Int) (*big.Int, error)
}

// Quote is a fee quote for one bond amount.
type Quote struct {
	Fee   *big.Int `json:"-"`
	Total *big.Int `json:"-"`

	FeeRaw         string `json:"fee"`
	TotalRaw       string `json:"total"`
	FeeFormatted   string `json:"fee_formatted"`
	TotalFormatted string `json:"total_formatted"`

	// Source is "contract" or "fallback".
	Source string `json:"source"`
}

// Quoter computes fee quotes against one oracle deployment.
type Quoter struct {
	viewer      FeeViewer
	fallbackBps int64
	logger      *slog.Logger
}

// NewQuoter creates a Quoter. viewer may be nil, in which case every quote
// uses the bps fallback.
func NewQuoter(viewer FeeViewer, fallbackBps int64, logger *slog.Logger) *Quoter {
	return &Quoter{
		viewer:      viewer,
		fallbackBps: fallbackBps,
		logger:      logger.With(slog.String("component", "fees")),
	}
}

// QuoteFee returns the fee and bond+fee total for bondRaw, formatted with
// the given token decimals. The contract view is tried first; on any failure
// the local bps computation answers instead. QuoteFee never returns an
// error.
func (q *Quoter) QuoteFee(ctx context.Context, bondRaw *big.Int, decimals uint8) Quote {
	if bondRaw == nil {
		bondRaw = new(big.Int)
	}

	if q.viewer != nil {
		if fee, err := q.viewer.FeeOn(ctx, bondRaw); err == nil && fee != nil {
			return buildQuote(bondRaw, fee, decimals, "contract")
		} else if err != nil {
			q.logger.DebugContext(ctx, "fee view failed, using bps fallback",
				slog.String("error", err.Error()),
			)
		}
	}

	return buildQuote(bondRaw, FallbackFee(bondRaw, q.fallbackBps), decimals, "fallback")
}

// FallbackFee computes bond*bps/10000 in integer arithmetic.
func FallbackFee(bondRaw *big.Int, bps int64) *big.Int {
	fee := new(big.Int).Mul(bondRaw, big.NewInt(bps))
	return fee.Div(fee, bpsDenominator)
}

func buildQuote(bond, fee *big.Int, decimals uint8, source string) Quote {
	total := new(big.Int).Add(bond, fee)
	return Quote{
		Fee:            fee,
		Total:          total,
		FeeRaw:         fee.String(),
		TotalRaw:       total.String(),
		FeeFormatted:   FormatUnits(fee, decimals),
		TotalFormatted: FormatUnits(total, decimals),
		Source:         source,
	}
}

// FormatUnits renders a raw token amount with the given decimals, trimming
// trailing zeros ("1002500" with 6 decimals -> "1.0025").
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}

	s := raw.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}

	intPart := s[:len(s)-d]
	fracPart := strings.TrimRight(s[len(s)-d:], "0")

	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
