package storefront

import (
	"context"
	"sync"
	"testing"
	"time"

	"carz-auction/internal/models"

	"github.com/stretchr/testify/require"
)

func TestFormatRemaining(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remaining time.Duration
		want      string
	}{
		{5*day + 3*time.Hour + 2*time.Minute + 1*time.Second, "5d 3h 2m 1s"},
		{59 * time.Second, "0d 0h 0m 59s"},
		{time.Hour + 500*time.Millisecond, "0d 1h 0m 0s"},
		{0, EndedLabel},
		{-time.Hour, EndedLabel},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, FormatRemaining(fixedNow.Add(tc.remaining), fixedNow))
	}

	require.True(t, Expiring(fixedNow.Add(59*time.Minute), fixedNow))
	require.False(t, Expiring(fixedNow.Add(time.Hour), fixedNow))
}

// Test the countdown ends listings locally without any server call
func TestStorefront_RunCountdown(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t)

	var (
		mu  sync.Mutex
		now = fixedNow
	)
	sf.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	seed(sf,
		Listing{AuctionSummary: summary("soon", 1, 0, 2*time.Second)},
		Listing{AuctionSummary: summary("later", 1, 0, time.Hour)},
	)

	endedCh := make(chan []Listing, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sf.RunCountdown(ctx, 5*time.Millisecond, func(ended []Listing) { endedCh <- ended })

	mu.Lock()
	now = fixedNow.Add(3 * time.Second)
	mu.Unlock()

	select {
	case ended := <-endedCh:
		require.Len(t, ended, 1)
		require.Equal(t, "soon", ended[0].AuctionID)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never ended the listing")
	}

	l, _ := sf.Cache().Lookup("soon")
	require.Equal(t, models.StatusEnded, l.Status)
	l, _ = sf.Cache().Lookup("later")
	require.Equal(t, models.StatusActive, l.Status)
}
