package payment

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

type stubProber struct {
	supports bool
}

func (s *stubProber) SupportsPermit(_ context.Context, _ common.Address) bool {
	return s.supports
}

func fullDeployment() *domain.Deployment {
	return &domain.Deployment{
		Permit2:     common.HexToAddress("0x01"),
		ZapperWKAIA: common.HexToAddress("0x02"),
	}
}

func TestAvailableAllModes(t *testing.T) {
	s := NewSelector(&stubProber{supports: true})

	modes := s.Available(context.Background(), fullDeployment(), common.HexToAddress("0x10"), "WKAIA")

	require.Equal(t, []Mode{ModePermit2, ModeEIP2612, ModeZap, ModeApprove}, modes)
}

func TestAvailableApproveAlwaysPresent(t *testing.T) {
	s := NewSelector(nil)

	modes := s.Available(context.Background(), &domain.Deployment{}, common.HexToAddress("0x10"), "USDT")

	require.Equal(t, []Mode{ModeApprove}, modes)
}

func TestAvailableZapOnlyForWrappedNative(t *testing.T) {
	s := NewSelector(&stubProber{})

	t.Run("usdt gets no zap", func(t *testing.T) {
		modes := s.Available(context.Background(), fullDeployment(), common.HexToAddress("0x10"), "USDT")
		require.NotContains(t, modes, ModeZap)
	})

	t.Run("wkaia any case gets zap", func(t *testing.T) {
		modes := s.Available(context.Background(), fullDeployment(), common.HexToAddress("0x10"), "wkaia")
		require.Contains(t, modes, ModeZap)
	})

	t.Run("no zapper deployed", func(t *testing.T) {
		dep := fullDeployment()
		dep.ZapperWKAIA = common.Address{}
		modes := s.Available(context.Background(), dep, common.HexToAddress("0x10"), "WKAIA")
		require.NotContains(t, modes, ModeZap)
	})
}

func TestSelectPriority(t *testing.T) {
	tests := []struct {
		name     string
		permit2  bool
		eip2612  bool
		symbol   string
		expected Mode
	}{
		{"permit2 first", true, true, "WKAIA", ModePermit2},
		{"eip2612 when no permit2", false, true, "WKAIA", ModeEIP2612},
		{"zap when no signatures", false, false, "WKAIA", ModeZap},
		{"approve as last resort", false, false, "USDT", ModeApprove},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dep := fullDeployment()
			if !tc.permit2 {
				dep.Permit2 = common.Address{}
			}
			s := NewSelector(&stubProber{supports: tc.eip2612})

			sel := s.Select(context.Background(), dep, common.HexToAddress("0x10"), tc.symbol)

			require.Equal(t, tc.expected, sel.Selected)
			require.Contains(t, sel.Available, ModeApprove)
		})
	}
}

func TestPickEmptyDefaultsToApprove(t *testing.T) {
	require.Equal(t, ModeApprove, Pick(nil))
}
