package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"carz-auction/internal/auth"
	bidding "carz-auction/internal/biddingService"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"
	"carz-auction/internal/server"
	"carz-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetOutput(io.Discard)
}

// storeFactories builds every store the server can run on
var storeFactories = map[string]func(t *testing.T) repository.AuctionDB{
	"memory": func(t *testing.T) repository.AuctionDB {
		return repository.NewMemoryRepo(pricing.NewPolicy(pricing.DefaultMinIncrement))
	},
	"sqlite": func(t *testing.T) repository.AuctionDB {
		repo, err := repository.NewSQLiteRepo(context.Background(),
			filepath.Join(t.TempDir(), "auctions.db"), pricing.NewPolicy(pricing.DefaultMinIncrement))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	},
}

// SetupTestRouterWithAuctions initializes the router over repo and seeds it with auctions.
func SetupTestRouterWithAuctions(t *testing.T, repo repository.AuctionDB, auctions ...models.Auction) *gin.Engine {
	t.Helper()
	for _, a := range auctions {
		require.NoError(t, repo.AddAuction(context.Background(), a))
	}
	service := bidding.NewBiddingService(repo, auth.NewPasswordAuthenticator(repo, bcrypt.MinCost))
	return server.SetupRouter(service, nil)
}

// Auction returns an open auction at price ending after endsIn.
func Auction(id string, price int64, endsIn time.Duration) models.Auction {
	return models.Auction{
		AuctionID:     id,
		Title:         "Car " + id,
		Description:   "integration test car",
		Media:         []models.MediaRef{{Kind: models.MediaImage, Src: id + ".jpg"}},
		StartingPrice: price,
		EndTime:       time.Now().Add(endsIn),
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// RegisterUser registers through the API and returns the new user's ID.
func RegisterUser(t *testing.T, router *gin.Engine, name string) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/api/register", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["user_id"].(string)
}
