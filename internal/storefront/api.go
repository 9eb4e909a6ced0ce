package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"

	"github.com/tidwall/gjson"
)

//go:generate mockgen -source=api.go -destination=mock_api.go -package=storefront

// API is the auction service as seen from the storefront. Transport failures and server errors
// wrap biddingerrors.ErrUnavailable; business rejections wrap their own kind.
type API interface {
	ListAuctions(ctx context.Context) ([]models.AuctionSummary, error)
	GetBids(ctx context.Context, auctionID string) ([]models.Bid, error)
	PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (models.AuctionSummary, error)
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Login(ctx context.Context, email, password string) (models.User, error)
}

// DefaultTimeout bounds every call so a stalled server surfaces as Unavailable.
const DefaultTimeout = 10 * time.Second

// APIClient talks to the auction service over HTTP.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for baseURL, e.g. "http://localhost:8080/api".
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type placeBidBody struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type placeBidData struct {
	OK      bool                  `json:"ok"`
	Auction models.AuctionSummary `json:"auction"`
}

type userData struct {
	User models.User `json:"user"`
}

// ListAuctions fetches the open auctions.
func (c *APIClient) ListAuctions(ctx context.Context) ([]models.AuctionSummary, error) {
	var out []models.AuctionSummary
	if err := c.do(ctx, http.MethodGet, "/auctions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBids fetches an auction's bid history, highest first.
func (c *APIClient) GetBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	var out []models.Bid
	if err := c.do(ctx, http.MethodGet, "/auctions/"+url.PathEscape(auctionID)+"/bids", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaceBid submits a bid and returns the auction as the server saw it after acceptance.
func (c *APIClient) PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (models.AuctionSummary, error) {
	var out placeBidData
	err := c.do(ctx, http.MethodPost, "/auctions/"+url.PathEscape(auctionID)+"/bid",
		placeBidBody{UserID: userID, Amount: amount}, &out)
	if err != nil {
		return models.AuctionSummary{}, err
	}
	return out.Auction, nil
}

// Register creates an account.
func (c *APIClient) Register(ctx context.Context, name, email, password string) (models.User, error) {
	var out userData
	err := c.do(ctx, http.MethodPost, "/register", registerBody{Name: name, Email: email, Password: password}, &out)
	if err != nil {
		return models.User{}, err
	}
	return out.User, nil
}

// Login verifies credentials.
func (c *APIClient) Login(ctx context.Context, email, password string) (models.User, error) {
	var out userData
	if err := c.do(ctx, http.MethodPost, "/login", loginBody{Email: email, Password: password}, &out); err != nil {
		return models.User{}, err
	}
	return out.User, nil
}

// do sends one request and decodes the envelope's data into out.
func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, biddingerrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w: %w", method, path, biddingerrors.ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || !gjson.ValidBytes(raw) {
		return fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, biddingerrors.ErrUnavailable)
	}

	envelope := gjson.ParseBytes(raw)
	if !envelope.Get("success").Bool() {
		return rejectionFrom(envelope, resp.Status)
	}

	if out == nil {
		return nil
	}
	data := envelope.Get("data")
	if !data.Exists() {
		return fmt.Errorf("%s %s: response has no data: %w", method, path, biddingerrors.ErrUnavailable)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w: %w", method, path, biddingerrors.ErrUnavailable, err)
	}
	return nil
}

// rejectionFrom rebuilds the server's rejection from an error envelope. Unknown reasons are
// treated as Unavailable.
func rejectionFrom(envelope gjson.Result, status string) error {
	reason := biddingerrors.Reason(envelope.Get("reason").String())
	kind := biddingerrors.KindOf(reason)
	if kind == nil || reason == biddingerrors.ReasonUnavailable {
		return fmt.Errorf("server answered %s: %w", status, biddingerrors.ErrUnavailable)
	}

	detail := envelope.Get("error").String()
	if detail == "" {
		detail = envelope.Get("message").String()
	}
	if detail == "" {
		detail = kind.Error()
	}
	return biddingerrors.Reject(kind, "%s", detail)
}
