package pricing

import (
	"errors"
	"math"
	"testing"

	"carz-auction/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func TestPolicy_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		increment int64
		current   int64
		amount    int64
		wantErr   bool
	}{
		{name: "below_increment", increment: 1000, current: 100000, amount: 100500, wantErr: true},
		{name: "exactly_increment", increment: 1000, current: 100000, amount: 101000, wantErr: false},
		{name: "above_increment", increment: 1000, current: 100000, amount: 250000, wantErr: false},
		{name: "equal_to_current", increment: 1000, current: 100000, amount: 100000, wantErr: true},
		{name: "zero_increment_equal", increment: 0, current: 500, amount: 500, wantErr: true},
		{name: "zero_increment_above", increment: 0, current: 500, amount: 501, wantErr: false},
		{name: "negative_increment_normalised", increment: -10, current: 500, amount: 501, wantErr: false},
		{name: "max_current_rejects_low_amount", increment: 1000, current: math.MaxInt64, amount: 2000, wantErr: true},
		{name: "max_current_rejects_max_amount", increment: 1000, current: math.MaxInt64, amount: math.MaxInt64, wantErr: true},
		{name: "step_would_overflow", increment: 1000, current: math.MaxInt64 - 999, amount: math.MaxInt64, wantErr: true},
		{name: "last_reachable_step", increment: 1000, current: math.MaxInt64 - 1000, amount: math.MaxInt64, wantErr: false},
		{name: "zero_increment_at_max", increment: 0, current: math.MaxInt64, amount: 1, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := NewPolicy(tc.increment).Check(tc.current, tc.amount)
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, biddingerrors.ErrBidTooLow))
				require.Equal(t, biddingerrors.ReasonTooLow, biddingerrors.ReasonOf(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPolicy_MinimumBid(t *testing.T) {
	require.Equal(t, int64(101000), NewPolicy(1000).MinimumBid(100000))
	require.Equal(t, int64(100001), NewPolicy(0).MinimumBid(100000))
	require.Equal(t, int64(math.MaxInt64), NewPolicy(1000).MinimumBid(math.MaxInt64-1))
	require.Equal(t, int64(math.MaxInt64), NewPolicy(0).MinimumBid(math.MaxInt64))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "KSH 101,000", Format(101000))
	require.Equal(t, "KSH 2,650,000", Format(2650000))
	require.Equal(t, "KSH 0", Format(0))
}

func TestCheck_DetailNamesMinimum(t *testing.T) {
	err := NewPolicy(1000).Check(100000, 100500)
	require.Equal(t, "bid must be at least KSH 101,000", biddingerrors.Detail(err))
}
