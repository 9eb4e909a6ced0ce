// Package catalog loads the seed catalog of vehicles and test accounts into the auction store.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/utils"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is one seeded auction. Exactly one of EndsIn and EndTime should be set.
type Entry struct {
	ID            string            `yaml:"id"`
	Title         string            `yaml:"title"`
	Description   string            `yaml:"description"`
	StartingPrice int64             `yaml:"starting_price"`
	CurrentPrice  int64             `yaml:"current_price"`
	EndsIn        string            `yaml:"ends_in"`
	EndTime       *time.Time        `yaml:"end_time"`
	Media         []models.MediaRef `yaml:"media"`
	Specs         map[string]string `yaml:"specs"`
}

// User is a seeded account
type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Catalog is the parsed seed file
type Catalog struct {
	Auctions []Entry `yaml:"auctions"`
	Users    []User  `yaml:"users"`
}

// AuctionStore is the store operation seeding needs
type AuctionStore interface {
	AddAuction(ctx context.Context, auction models.Auction) error
}

// Registrar creates seeded accounts
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (models.User, error)
}

// Result summarises a seeding run
type Result struct {
	Auctions int
	Users    int
}

// Default returns the embedded catalog
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded default when path is empty
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Auctions))
	for i, e := range c.Auctions {
		switch {
		case strings.TrimSpace(e.ID) == "":
			return Catalog{}, fmt.Errorf("catalog entry %d: missing id", i)
		case strings.TrimSpace(e.Title) == "":
			return Catalog{}, fmt.Errorf("catalog entry %s: missing title", e.ID)
		case e.StartingPrice <= 0:
			return Catalog{}, fmt.Errorf("catalog entry %s: starting_price must be positive", e.ID)
		case e.EndsIn == "" && e.EndTime == nil:
			return Catalog{}, fmt.Errorf("catalog entry %s: one of ends_in or end_time is required", e.ID)
		}
		if e.EndsIn != "" {
			if _, err := time.ParseDuration(e.EndsIn); err != nil {
				return Catalog{}, fmt.Errorf("catalog entry %s: invalid ends_in: %w", e.ID, err)
			}
		}
		if _, dup := seen[e.ID]; dup {
			return Catalog{}, fmt.Errorf("catalog entry %s: duplicate id", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return c, nil
}

// Build turns the catalog entries into auctions with end times resolved against now
func (c Catalog) Build(now time.Time) []models.Auction {
	out := make([]models.Auction, 0, len(c.Auctions))
	for _, e := range c.Auctions {
		var end time.Time
		if e.EndTime != nil {
			end = *e.EndTime
		} else {
			d, _ := time.ParseDuration(e.EndsIn)
			end = now.Add(d)
		}

		current := e.CurrentPrice
		if current < e.StartingPrice {
			current = e.StartingPrice
		}

		out = append(out, models.Auction{
			AuctionID:     e.ID,
			Title:         e.Title,
			Description:   e.Description,
			Media:         e.Media,
			Specs:         e.Specs,
			StartingPrice: e.StartingPrice,
			CurrentPrice:  current,
			EndTime:       end.UTC(),
			Status:        models.StatusActive,
		})
	}
	return out
}

// Seed adds every catalog auction and account. Existing auctions and emails are skipped.
func Seed(ctx context.Context, c Catalog, store AuctionStore, registrar Registrar, now time.Time) (Result, error) {
	var res Result
	for _, a := range c.Build(now) {
		if err := store.AddAuction(ctx, a); err != nil {
			return res, fmt.Errorf("seed auction %s: %w", a.AuctionID, err)
		}
		res.Auctions++
	}

	for _, u := range c.Users {
		if registrar == nil {
			break
		}
		_, err := registrar.Register(ctx, u.Name, u.Email, u.Password)
		if errors.Is(err, biddingerrors.ErrDuplicateEmail) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users++
	}

	utils.Info("catalog seeded", map[string]any{"auctions": res.Auctions, "users": res.Users})
	return res, nil
}
