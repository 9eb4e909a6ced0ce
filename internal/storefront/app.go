package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/pricing"
)

// Command is one user action.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits an input line into a command. Names are case-insensitive.
func ParseCommand(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// ResultKind tells the presentation layer what to render.
type ResultKind int

const (
	ResultMessage ResultKind = iota
	ResultListings
	ResultDetail
	ResultHelp
	ResultQuit
)

// Result is what a command produced.
type Result struct {
	Kind     ResultKind
	Message  string
	Listings []Listing
	Listing  Listing
	Source   Source
	Filter   Filter
}

// ErrUnknownCommand is returned for names Dispatch does not handle.
var ErrUnknownCommand = errors.New("unknown command, type help for the list")

func usage(text string) error {
	return biddingerrors.Reject(biddingerrors.ErrValidation, "usage: %s", text)
}

// Dispatch runs cmd against the storefront.
func (s *Storefront) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch cmd.Name {
	case "list", "ls":
		return s.listResult(""), nil

	case "show":
		if len(cmd.Args) != 1 {
			return Result{}, usage("show <auction-id>")
		}
		l, err := s.Detail(cmd.Args[0])
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultDetail, Listing: l, Source: s.cache.Source()}, nil

	case "bid":
		if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
			return Result{}, usage("bid <auction-id> [amount]")
		}
		var amount int64
		if len(cmd.Args) == 2 {
			var err error
			if amount, err = parseAmount(cmd.Args[1]); err != nil {
				return Result{}, err
			}
		}
		outcome, err := s.PlaceBid(ctx, cmd.Args[0], amount)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Kind:    ResultDetail,
			Message: fmt.Sprintf("Bid of %s placed successfully!", pricing.Format(outcome.Amount)),
			Listing: outcome.Listing,
			Source:  s.cache.Source(),
		}, nil

	case "login":
		if len(cmd.Args) != 2 {
			return Result{}, usage("login <email> <password>")
		}
		session, err := s.Login(ctx, cmd.Args[0], cmd.Args[1])
		if err != nil {
			return Result{}, err
		}
		return s.listResult("Login successful! Welcome, " + session.User.DisplayName), nil

	case "register":
		if len(cmd.Args) < 3 {
			return Result{}, usage("register <name> <email> <password>")
		}
		n := len(cmd.Args)
		name := strings.Join(cmd.Args[:n-2], " ")
		session, err := s.Register(ctx, name, cmd.Args[n-2], cmd.Args[n-1])
		if err != nil {
			return Result{}, err
		}
		return s.listResult("Registration successful! You are now logged in as " + session.User.DisplayName), nil

	case "logout":
		s.Logout()
		return Result{Kind: ResultMessage, Message: "Logged out"}, nil

	case "search":
		term := strings.Join(cmd.Args, " ")
		s.UpdateFilter(func(f *Filter) { f.Search = term })
		return s.listResult(""), nil

	case "price":
		if len(cmd.Args) != 1 {
			return Result{}, usage("price <0-50000|50000-100000|100000-500000|500000+|all>")
		}
		band, err := ParsePriceBand(cmd.Args[0])
		if err != nil {
			return Result{}, biddingerrors.Reject(biddingerrors.ErrValidation, "%s", err.Error())
		}
		s.UpdateFilter(func(f *Filter) { f.Price = band })
		return s.listResult(""), nil

	case "time":
		if len(cmd.Args) != 1 {
			return Result{}, usage("time <ending-soon|ending-week|all>")
		}
		window, err := ParseTimeWindow(cmd.Args[0])
		if err != nil {
			return Result{}, biddingerrors.Reject(biddingerrors.ErrValidation, "%s", err.Error())
		}
		s.UpdateFilter(func(f *Filter) { f.Window = window })
		return s.listResult(""), nil

	case "clear":
		s.ClearFilters()
		return s.listResult("Filters cleared"), nil

	case "refresh":
		src := s.Refresh(ctx)
		return s.listResult("Catalog loaded from " + src.String()), nil

	case "help", "?":
		return Result{Kind: ResultHelp}, nil

	case "quit", "exit":
		return Result{Kind: ResultQuit}, nil
	}
	return Result{}, ErrUnknownCommand
}

func (s *Storefront) listResult(msg string) Result {
	return Result{
		Kind:     ResultListings,
		Message:  msg,
		Listings: s.View(),
		Source:   s.cache.Source(),
		Filter:   s.Filter(),
	}
}

// parseAmount accepts plain or comma-grouped whole amounts.
func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil || v <= 0 {
		return 0, biddingerrors.Reject(biddingerrors.ErrValidation, "invalid bid amount %q", s)
	}
	return v, nil
}
