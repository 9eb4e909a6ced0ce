package catalog

import (
	"context"
	"testing"
	"time"

	"carz-auction/internal/auth"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	require.Len(t, c.Auctions, 3)
	require.Len(t, c.Users, 1)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	auctions := c.Build(now)
	require.Equal(t, "Toyota Camry 2022", auctions[0].Title)
	require.Equal(t, now.Add(72*time.Hour), auctions[0].EndTime)
	require.Equal(t, int64(15000), auctions[0].CurrentPrice)
	require.Equal(t, models.MediaImage, auctions[0].Media[0].Kind)
	require.Equal(t, "5.0L V8", auctions[1].Specs["Engine"])
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "not_yaml", yaml: "auctions: [:"},
		{name: "missing_id", yaml: "auctions:\n  - title: X\n    starting_price: 1\n    ends_in: 1h\n"},
		{name: "missing_title", yaml: "auctions:\n  - id: x\n    starting_price: 1\n    ends_in: 1h\n"},
		{name: "zero_price", yaml: "auctions:\n  - id: x\n    title: X\n    ends_in: 1h\n"},
		{name: "no_end", yaml: "auctions:\n  - id: x\n    title: X\n    starting_price: 1\n"},
		{name: "bad_duration", yaml: "auctions:\n  - id: x\n    title: X\n    starting_price: 1\n    ends_in: soon\n"},
		{name: "duplicate_id", yaml: "auctions:\n  - id: x\n    title: X\n    starting_price: 1\n    ends_in: 1h\n  - id: x\n    title: Y\n    starting_price: 1\n    ends_in: 1h\n"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestParse_AbsoluteEndTime(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte("auctions:\n  - id: x\n    title: X\n    starting_price: 10\n    current_price: 25\n    end_time: 2030-01-02T03:04:05Z\n"))
	require.NoError(t, err)

	a := c.Build(time.Now())[0]
	require.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), a.EndTime)
	require.Equal(t, int64(25), a.CurrentPrice)
}

func TestSeed_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewMemoryRepo(pricing.NewPolicy(pricing.DefaultMinIncrement))
	authn := auth.NewPasswordAuthenticator(repo, bcrypt.MinCost)

	c, err := Default()
	require.NoError(t, err)

	res, err := Seed(ctx, c, repo, authn, time.Now())
	require.NoError(t, err)
	require.Equal(t, Result{Auctions: 3, Users: 1}, res)

	res, err = Seed(ctx, c, repo, authn, time.Now())
	require.NoError(t, err)
	require.Equal(t, 0, res.Users)

	active, err := repo.ListActiveAuctions(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, active, 3)
	require.Equal(t, "honda-civic-2021", active[0].AuctionID)

	_, err = authn.Authenticate(ctx, "test@example.com", "password123")
	require.NoError(t, err)
}
