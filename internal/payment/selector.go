// Package payment enumerates the on-chain bond payment encodings and picks
// the best available one for a token/deployment pair. The priority order
// prefers fewer transactions; any available mode produces an equivalent
// on-chain outcome.
package payment

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/domain"
)

// Mode is one bond payment encoding.
type Mode string

const (
	// ModePermit2 authorizes spending through a Permit2 deployment with
	// one off-chain signature.
	ModePermit2 Mode = "permit2"

	// ModeEIP2612 authorizes spending through the token's own permit
	// function with one off-chain signature.
	ModeEIP2612 Mode = "eip2612"

	// ModeZap wraps native currency and mixes it with the bond token in
	// one transaction through the zapper contract.
	ModeZap Mode = "zap"

	// ModeApprove is the two-transaction approve-then-spend fallback,
	// always available.
	ModeApprove Mode = "approve"
)

// priority is the auto-selection order.
var priority = []Mode{ModePermit2, ModeEIP2612, ModeZap, ModeApprove}

// wrappedNativeSymbol is the token label the zap mode applies to.
const wrappedNativeSymbol = "WKAIA"

// PermitProber detects EIP-2612 support; *chain.Caller satisfies it. The
// probe is a trial read expected to fail harmlessly on non-conforming
// tokens.
type PermitProber interface {
	SupportsPermit(ctx context.Context, token common.Address) bool
}

// Selector computes mode availability and the auto-selected mode.
type Selector struct {
	prober PermitProber
}

// NewSelector creates a Selector. prober may be nil, which disables the
// eip2612 mode.
func NewSelector(prober PermitProber) *Selector {
	return &Selector{prober: prober}
}

// Selection is the availability set plus the auto-pick for one token.
type Selection struct {
	Available []Mode `json:"available"`
	Selected  Mode   `json:"selected"`
}

// Available reports which modes can pay a bond in the given token under the
// given deployment. The approve fallback is always present, so the result is
// never empty.
func (s *Selector) Available(ctx context.Context, dep *domain.Deployment, token common.Address, tokenSymbol string) []Mode {
	var modes []Mode

	if dep.HasPermit2() {
		modes = append(modes, ModePermit2)
	}
	if s.prober != nil && s.prober.SupportsPermit(ctx, token) {
		modes = append(modes, ModeEIP2612)
	}
	if dep.HasZapper() && strings.EqualFold(tokenSymbol, wrappedNativeSymbol) {
		modes = append(modes, ModeZap)
	}
	modes = append(modes, ModeApprove)

	return modes
}

// Select computes the availability set and auto-picks the first mode in
// priority order. Callers re-run Select whenever the token or deployment
// changes and may override the pick afterward.
func (s *Selector) Select(ctx context.Context, dep *domain.Deployment, token common.Address, tokenSymbol string) Selection {
	available := s.Available(ctx, dep, token, tokenSymbol)
	return Selection{
		Available: available,
		Selected:  Pick(available),
	}
}

// Pick returns the first available mode in priority order.
func Pick(available []Mode) Mode {
	set := make(map[Mode]struct{}, len(available))
	for _, m := range available {
		set[m] = struct{}{}
	}
	for _, m := range priority {
		if _, ok := set[m]; ok {
			return m
		}
	}
	return ModeApprove
}
