package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

func TestNormalizeResolvesAliases(t *testing.T) {
	t.Run("canonical names win", func(t *testing.T) {
		q := Normalize(RawQuestion{
			CreatedTs:  100,
			CreatedAt:  999,
			TimeoutSec: 200,
			Timeout:    888,
		})
		require.Equal(t, int64(100), q.CreatedTs)
		require.Equal(t, int64(200), q.TimeoutSec)
	})

	t.Run("legacy names fill zero fields", func(t *testing.T) {
		q := Normalize(RawQuestion{CreatedAt: 999, Timeout: 888})
		require.Equal(t, int64(999), q.CreatedTs)
		require.Equal(t, int64(888), q.TimeoutSec)
	})
}

func TestNormalizeCarriesFields(t *testing.T) {
	raw := RawQuestion{
		ID:           common.HexToHash("0xaa"),
		Asker:        common.HexToAddress("0x01"),
		TemplateID:   2,
		Content:      "Will it rain?",
		BestAnswer:   common.HexToHash("0x01"),
		Finalized:    true,
		CreatedBlock: 1234,
	}
	q := Normalize(raw)

	require.Equal(t, raw.ID, q.ID)
	require.Equal(t, raw.Asker, q.Asker)
	require.Equal(t, domain.TemplateInteger, q.TemplateID)
	require.Equal(t, raw.Content, q.Content)
	require.True(t, q.Finalized)
	require.Equal(t, uint64(1234), q.CreatedBlock)
}

func TestAnnotateToken(t *testing.T) {
	dep := &domain.Deployment{
		USDT:  common.HexToAddress("0x10"),
		WKAIA: common.HexToAddress("0x20"),
	}

	t.Run("usdt", func(t *testing.T) {
		q := AnnotateToken(domain.Question{BondToken: dep.USDT}, dep)
		require.Equal(t, "USDT", q.TokenSymbol)
		require.Equal(t, uint8(6), q.TokenDecimals)
	})

	t.Run("wkaia", func(t *testing.T) {
		q := AnnotateToken(domain.Question{BondToken: dep.WKAIA}, dep)
		require.Equal(t, "WKAIA", q.TokenSymbol)
		require.Equal(t, uint8(18), q.TokenDecimals)
	})

	t.Run("unknown token stays unlabeled", func(t *testing.T) {
		q := AnnotateToken(domain.Question{BondToken: common.HexToAddress("0x99")}, dep)
		require.Empty(t, q.TokenSymbol)
		require.Zero(t, q.TokenDecimals)
	})

	t.Run("nil deployment is a no-op", func(t *testing.T) {
		q := AnnotateToken(domain.Question{BondToken: dep.USDT}, nil)
		require.Empty(t, q.TokenSymbol)
	})
}

func TestReconcile(t *testing.T) {
	rows := []domain.Question{
		{ID: common.HexToHash("0x01")},
		{ID: common.HexToHash("0x02")},
	}
	stubs := []domain.Stub{
		{ID: common.HexToHash("0x03"), Title: "fresh"},
		{ID: common.HexToHash("0x01"), Title: "confirmed already"},
	}

	merged := Reconcile(rows, stubs)

	require.Len(t, merged, 3)
	require.Equal(t, common.HexToHash("0x03"), merged[0].ID)
	require.True(t, merged[0].Optimistic)
	require.Equal(t, "fresh", merged[0].Content)
	require.Equal(t, common.HexToHash("0x01"), merged[1].ID)
	require.False(t, merged[1].Optimistic)
}

func TestReconcileNoStubsReturnsRows(t *testing.T) {
	rows := []domain.Question{{ID: common.HexToHash("0x01")}}
	require.Equal(t, rows, Reconcile(rows, nil))
}

func TestSuperseded(t *testing.T) {
	rows := []domain.Question{
		{ID: common.HexToHash("0x01")},
		{ID: common.HexToHash("0x02"), Optimistic: true},
	}
	stubs := []domain.Stub{
		{ID: common.HexToHash("0x01")},
		{ID: common.HexToHash("0x02")},
		{ID: common.HexToHash("0x03")},
	}

	gone := Superseded(rows, stubs)

	// Only the stub confirmed by a non-optimistic row is superseded.
	require.Len(t, gone, 1)
	require.Equal(t, common.HexToHash("0x01"), gone[0].ID)
}
