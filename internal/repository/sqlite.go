package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Ensure both stores implement AuctionDB
var (
	_ AuctionDB = (*SQLiteRepo)(nil)
	_ AuctionDB = (*MemoryRepo)(nil)
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const selectAuction = `
	SELECT a.id, a.title, a.description, a.image_ref, a.media, a.specs,
	       a.starting_price, a.current_price, a.end_time, a.status,
	       (SELECT COUNT(DISTINCT b.user_id) FROM bids b WHERE b.auction_id = a.id) AS bidder_count
	FROM auctions a`

type auctionRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	ImageRef      string         `db:"image_ref"`
	Media         types.JSONText `db:"media"`
	Specs         types.JSONText `db:"specs"`
	StartingPrice int64          `db:"starting_price"`
	CurrentPrice  int64          `db:"current_price"`
	EndTime       int64          `db:"end_time"`
	Status        string         `db:"status"`
	BidderCount   int            `db:"bidder_count"`
}

func (r auctionRow) summary() (models.AuctionSummary, error) {
	a := models.Auction{
		AuctionID:     r.ID,
		Title:         r.Title,
		Description:   r.Description,
		StartingPrice: r.StartingPrice,
		CurrentPrice:  r.CurrentPrice,
		EndTime:       time.UnixMilli(r.EndTime).UTC(),
		Status:        models.AuctionStatus(r.Status),
	}
	if len(r.Media) > 0 {
		if err := r.Media.Unmarshal(&a.Media); err != nil {
			return models.AuctionSummary{}, fmt.Errorf("decode media of auction %s: %w", r.ID, err)
		}
	}
	if len(r.Specs) > 0 {
		if err := r.Specs.Unmarshal(&a.Specs); err != nil {
			return models.AuctionSummary{}, fmt.Errorf("decode specs of auction %s: %w", r.ID, err)
		}
	}
	if len(a.Media) == 0 && r.ImageRef != "" {
		a.Media = []models.MediaRef{{Kind: models.MediaImage, Src: r.ImageRef, Alt: r.Title}}
	}
	return models.AuctionSummary{Auction: a, BidderCount: r.BidderCount}, nil
}

type bidRow struct {
	ID        string `db:"id"`
	AuctionID string `db:"auction_id"`
	UserID    string `db:"user_id"`
	UserName  string `db:"user_name"`
	Amount    int64  `db:"amount"`
	PlacedAt  int64  `db:"placed_at"`
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

// SQLiteRepo is the durable AuctionDB. Every bid runs in a BEGIN IMMEDIATE transaction, so
// SQLite itself serialises the read-check-write of concurrent bids.
type SQLiteRepo struct {
	db     *sqlx.DB
	policy pricing.Policy
}

// NewSQLiteRepo opens (creating if needed) the database at dbPath and migrates it
func NewSQLiteRepo(ctx context.Context, dbPath string, policy pricing.Policy) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLiteRepoFromDB(db, policy), nil
}

// NewSQLiteRepoFromDB wraps an already-migrated connection
func NewSQLiteRepoFromDB(db *sqlx.DB, policy pricing.Policy) *SQLiteRepo {
	return &SQLiteRepo{db: db, policy: policy}
}

func sqliteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
}

// Close closes the database connection
func (s *SQLiteRepo) Close() error {
	return s.db.Close()
}

// ListActiveAuctions returns open auctions ordered by ascending end time
func (s *SQLiteRepo) ListActiveAuctions(ctx context.Context, now time.Time) ([]models.AuctionSummary, error) {
	var rows []auctionRow
	query := selectAuction + ` WHERE a.status = 'active' AND a.end_time > ? ORDER BY a.end_time ASC, a.id ASC`
	if err := s.db.SelectContext(ctx, &rows, query, now.UnixMilli()); err != nil {
		return nil, unavailable("list active auctions", err)
	}

	out := make([]models.AuctionSummary, 0, len(rows))
	for _, row := range rows {
		a, err := row.summary()
		if err != nil {
			return nil, unavailable("list active auctions", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAuction returns one auction regardless of status
func (s *SQLiteRepo) GetAuction(ctx context.Context, auctionID string) (models.AuctionSummary, error) {
	return getAuction(ctx, s.db, auctionID)
}

func getAuction(ctx context.Context, q sqlx.QueryerContext, auctionID string) (models.AuctionSummary, error) {
	var row auctionRow
	err := sqlx.GetContext(ctx, q, &row, selectAuction+` WHERE a.id = ?`, auctionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuctionSummary{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return models.AuctionSummary{}, unavailable("get auction "+auctionID, err)
	}
	a, err := row.summary()
	if err != nil {
		return models.AuctionSummary{}, unavailable("get auction "+auctionID, err)
	}
	return a, nil
}

// AddAuction seeds an auction. Existing IDs are left untouched.
func (s *SQLiteRepo) AddAuction(ctx context.Context, auction models.Auction) error {
	auction = normaliseAuction(auction)
	if auction.AuctionID == "" {
		return fmt.Errorf("add auction: %w - empty auction ID", biddingerrors.ErrValidation)
	}

	media, err := json.Marshal(nonNilMedia(auction.Media))
	if err != nil {
		return fmt.Errorf("encode media of auction %s: %w", auction.AuctionID, err)
	}
	specs, err := json.Marshal(nonNilSpecs(auction.Specs))
	if err != nil {
		return fmt.Errorf("encode specs of auction %s: %w", auction.AuctionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auctions (id, title, description, image_ref, media, specs, starting_price, current_price, end_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		auction.AuctionID, auction.Title, auction.Description, auction.ImageRef(),
		string(media), string(specs),
		auction.StartingPrice, auction.CurrentPrice, auction.EndTime.UnixMilli(), string(auction.Status),
	)
	if err != nil {
		return unavailable("add auction "+auction.AuctionID, err)
	}
	return nil
}

// PlaceBid validates and records a bid inside one write transaction
func (s *SQLiteRepo) PlaceBid(ctx context.Context, bid models.Bid) (models.AuctionSummary, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.AuctionSummary{}, unavailable("begin bid transaction", err)
	}
	defer tx.Rollback()

	auction, err := getAuction(ctx, tx, bid.AuctionID)
	if err != nil {
		return models.AuctionSummary{}, fmt.Errorf("place bid: %w", err)
	}
	if !auction.IsOpen(bid.PlacedAt) {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionEnded)
	}
	if err := s.policy.Check(auction.CurrentPrice, bid.Amount); err != nil {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, user_id, amount, placed_at) VALUES (?, ?, ?, ?, ?)`,
		bid.BidID, bid.AuctionID, bid.UserID, bid.Amount, bid.PlacedAt.UnixMilli(),
	)
	if err != nil {
		return models.AuctionSummary{}, classifyBidInsert(bid, err)
	}

	// The price guard repeats the policy check inside the engine.
	res, err := tx.ExecContext(ctx,
		`UPDATE auctions SET current_price = ? WHERE id = ? AND status = 'active' AND current_price < ?`,
		bid.Amount, bid.AuctionID, bid.Amount,
	)
	if err != nil {
		return models.AuctionSummary{}, unavailable("update current price", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.AuctionSummary{}, unavailable("update current price", err)
	} else if n == 0 {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID,
			biddingerrors.Reject(biddingerrors.ErrBidTooLow, "bid must exceed the current price"))
	}

	if err := tx.GetContext(ctx, &auction.BidderCount,
		`SELECT COUNT(DISTINCT user_id) FROM bids WHERE auction_id = ?`, bid.AuctionID); err != nil {
		return models.AuctionSummary{}, unavailable("count bidders", err)
	}

	if err := tx.Commit(); err != nil {
		return models.AuctionSummary{}, unavailable("commit bid", err)
	}

	auction.CurrentPrice = bid.Amount
	return auction, nil
}

func classifyBidInsert(bid models.Bid, err error) error {
	switch constraintKind(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("place bid on auction %s: %w", bid.AuctionID,
			biddingerrors.Reject(biddingerrors.ErrDuplicateBidder, "you have already placed a bid on this auction"))
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("place bid by user %s: %w", bid.UserID, biddingerrors.ErrUserNotFound)
	default:
		return unavailable("insert bid", err)
	}
}

// GetBidsByAuction returns an auction's bids with bidder names, highest first
func (s *SQLiteRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(1) FROM auctions WHERE id = ?`, auctionID); err != nil {
		return nil, unavailable("get bids for auction "+auctionID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	var rows []bidRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT b.id, b.auction_id, b.user_id, u.name AS user_name, b.amount, b.placed_at
		FROM bids b
		JOIN users u ON u.id = b.user_id
		WHERE b.auction_id = ?
		ORDER BY b.amount DESC, b.placed_at ASC`, auctionID)
	if err != nil {
		return nil, unavailable("get bids for auction "+auctionID, err)
	}

	bids := make([]models.Bid, 0, len(rows))
	for _, r := range rows {
		bids = append(bids, models.Bid{
			BidID:     r.ID,
			AuctionID: r.AuctionID,
			UserID:    r.UserID,
			UserName:  r.UserName,
			Amount:    r.Amount,
			PlacedAt:  time.UnixMilli(r.PlacedAt).UTC(),
		})
	}
	return bids, nil
}

// ExpireAuctions flips every past-end active auction to ended
func (s *SQLiteRepo) ExpireAuctions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auctions SET status = 'ended' WHERE status = 'active' AND end_time <= ?`, now.UnixMilli())
	if err != nil {
		return 0, unavailable("expire auctions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("expire auctions", err)
	}
	return int(n), nil
}

// CreateUser inserts a new user; the unique index on email rejects duplicates
func (s *SQLiteRepo) CreateUser(ctx context.Context, user models.User) error {
	email := NormaliseEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.UserID, email, user.PasswordHash, user.DisplayName, user.CreatedAt.UnixMilli(),
	)
	if err != nil {
		switch constraintKind(err) {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("create user %s: %w", email, biddingerrors.ErrDuplicateEmail)
		}
		return unavailable("create user", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email
func (s *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, NormaliseEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("get user %s: %w", email, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return models.User{}, unavailable("get user", err)
	}
	return models.User{
		UserID:       row.ID,
		Email:        row.Email,
		DisplayName:  row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}

// constraintKind returns the extended SQLite constraint code of err, or 0.
func constraintKind(err error) int {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0
	}
	code := se.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	if code == sqlite3.SQLITE_CONSTRAINT {
		// Extended codes disabled: fall back to the message.
		msg := se.Error()
		switch {
		case strings.Contains(msg, "FOREIGN KEY"):
			return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
		case strings.Contains(msg, "UNIQUE"):
			return sqlite3.SQLITE_CONSTRAINT_UNIQUE
		}
	}
	return code
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrUnavailable, err)
}

func nonNilMedia(m []models.MediaRef) []models.MediaRef {
	if m == nil {
		return []models.MediaRef{}
	}
	return m
}

func nonNilSpecs(s map[string]string) map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return s
}
