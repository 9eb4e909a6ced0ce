package perftests

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"carz-auction/internal/auth"
	bidding "carz-auction/internal/biddingService"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"
	"carz-auction/utils"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.SetOutput(io.Discard)
}

// newStore returns a store of the given kind: "memory" or "sqlite"
func newStore(b *testing.B, kind string) repository.AuctionDB {
	b.Helper()
	policy := pricing.NewPolicy(pricing.DefaultMinIncrement)
	if kind == "memory" {
		return repository.NewMemoryRepo(policy)
	}
	repo, err := repository.NewSQLiteRepo(context.Background(), filepath.Join(b.TempDir(), "bench.db"), policy)
	if err != nil {
		b.Fatalf("open sqlite store: %v", err)
	}
	b.Cleanup(func() { _ = repo.Close() })
	return repo
}

// setupService seeds numAuctions auctions and numUsers users, bypassing password hashing
func setupService(b *testing.B, repo repository.AuctionDB, numAuctions, numUsers int) (*bidding.BiddingService, []string) {
	b.Helper()
	ctx := context.Background()
	for i := 0; i < numAuctions; i++ {
		err := repo.AddAuction(ctx, models.Auction{
			AuctionID:     auctionID(i),
			Title:         fmt.Sprintf("title_%d", i),
			Description:   "Load test auction",
			StartingPrice: 10000,
			EndTime:       time.Now().Add(24 * time.Hour),
		})
		if err != nil {
			b.Fatalf("seed auction: %v", err)
		}
	}

	users := make([]string, numUsers)
	for i := range users {
		users[i] = fmt.Sprintf("user_%d", i)
		err := repo.CreateUser(ctx, models.User{
			UserID:       users[i],
			Email:        users[i] + "@load.test",
			DisplayName:  users[i],
			PasswordHash: "x",
		})
		if err != nil {
			b.Fatalf("seed user: %v", err)
		}
	}

	return bidding.NewBiddingService(repo, auth.NewPasswordAuthenticator(repo, bcrypt.MinCost)), users
}

func auctionID(i int) string {
	return fmt.Sprintf("auction_%d", i)
}
