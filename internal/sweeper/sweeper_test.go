package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadSchedule(t *testing.T) {
	t.Parallel()

	_, err := New(repository.NewMemoryRepo(pricing.Policy{}), "every now and then")
	require.Error(t, err)
}

func TestSweep_ExpiresOverdueAuctions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewMemoryRepo(pricing.NewPolicy(pricing.DefaultMinIncrement))
	require.NoError(t, repo.AddAuction(ctx, models.Auction{AuctionID: "old", StartingPrice: 1, EndTime: time.Now().Add(-time.Minute)}))
	require.NoError(t, repo.AddAuction(ctx, models.Auction{AuctionID: "new", StartingPrice: 1, EndTime: time.Now().Add(time.Hour)}))

	s, err := New(repo, "@every 1h")
	require.NoError(t, err)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	old, err := repo.GetAuction(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, models.StatusEnded, old.Status)
}

func TestSweep_UsesClockAndPropagatesErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := repository.NewMockAuctionDB(ctrl)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s, err := New(store, "@every 1h")
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	store.EXPECT().ExpireAuctions(gomock.Any(), now).Return(0, biddingerrors.ErrUnavailable)
	_, err = s.Sweep(context.Background())
	require.True(t, errors.Is(err, biddingerrors.ErrUnavailable))
}

func TestStartStop_RunsOnSchedule(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := repository.NewMockAuctionDB(ctrl)
	ran := make(chan struct{}, 1)
	store.EXPECT().ExpireAuctions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (int, error) {
			select {
			case ran <- struct{}{}:
			default:
			}
			return 0, nil
		}).MinTimes(1)

	s, err := New(store, "@every 1s")
	require.NoError(t, err)
	s.Start()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
}
