package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

const now = int64(1_700_000_000)

func TestDeriveStatusPrecedence(t *testing.T) {
	answered := common.HexToHash("0x01")

	tests := []struct {
		name string
		q    domain.Question
		want domain.Status
	}{
		{
			name: "finalized wins over everything",
			q: domain.Question{
				Finalized:          true,
				PendingArbitration: true,
				OpeningTs:          now + 1000,
				BestAnswer:         answered,
			},
			want: domain.StatusFinalized,
		},
		{
			name: "pending arbitration beats scheduled",
			q: domain.Question{
				PendingArbitration: true,
				OpeningTs:          now + 1000,
			},
			want: domain.StatusDisputed,
		},
		{
			name: "future opening is scheduled even with an answer",
			q: domain.Question{
				OpeningTs:  now + 1,
				BestAnswer: answered,
			},
			want: domain.StatusScheduled,
		},
		{
			name: "answer present after opening",
			q: domain.Question{
				OpeningTs:  now - 100,
				BestAnswer: answered,
			},
			want: domain.StatusAnswered,
		},
		{
			name: "no answer yet",
			q: domain.Question{
				OpeningTs: now - 100,
			},
			want: domain.StatusOpen,
		},
		{
			name: "zero opening means immediately open",
			q:    domain.Question{},
			want: domain.StatusOpen,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveStatus(tc.q, now))
		})
	}
}

func TestDeriveStatusOpeningBoundary(t *testing.T) {
	q := domain.Question{OpeningTs: now}

	// At exactly the opening timestamp the question is open, not scheduled.
	require.Equal(t, domain.StatusOpen, DeriveStatus(q, now))
	require.Equal(t, domain.StatusScheduled, DeriveStatus(q, now-1))
}

func TestComputeDeadline(t *testing.T) {
	t.Run("opening plus timeout", func(t *testing.T) {
		q := domain.Question{OpeningTs: 1000, TimeoutSec: 86400}
		require.Equal(t, int64(87400), ComputeDeadline(q))
	})

	t.Run("falls back to created", func(t *testing.T) {
		q := domain.Question{CreatedTs: 2000, TimeoutSec: 100}
		require.Equal(t, int64(2100), ComputeDeadline(q))
	})

	t.Run("falls back to last answer", func(t *testing.T) {
		q := domain.Question{LastAnswerTs: 4000, TimeoutSec: 100}
		require.Equal(t, int64(4100), ComputeDeadline(q))
	})

	t.Run("scheduled question still has a deadline", func(t *testing.T) {
		q := domain.Question{OpeningTs: 2000, TimeoutSec: 3600}
		require.Equal(t, domain.StatusScheduled, DeriveStatus(q, 1000))
		require.Equal(t, int64(5600), ComputeDeadline(q))
	})

	t.Run("zero when no anchor", func(t *testing.T) {
		q := domain.Question{TimeoutSec: 100}
		require.Zero(t, ComputeDeadline(q))
	})

	t.Run("zero when no timeout", func(t *testing.T) {
		q := domain.Question{OpeningTs: 1000}
		require.Zero(t, ComputeDeadline(q))
	})
}
