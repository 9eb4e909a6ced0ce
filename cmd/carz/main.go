// Command carz is the terminal storefront for the car auction service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"carz-auction/internal/presenter"
	"carz-auction/internal/pricing"
	"carz-auction/internal/storefront"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	apiBase := flag.String("api", envOr("CARZ_API_BASE", "http://localhost:8080/api"), "auction service base URL")
	timeout := flag.Duration("timeout", envDuration("CARZ_TIMEOUT", storefront.DefaultTimeout), "request timeout")
	minIncrement := flag.Int64("min-increment", envInt("CARZ_MIN_INCREMENT", pricing.DefaultMinIncrement), "minimum bid increment")
	verbose := flag.Bool("v", false, "log debug output")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := pricing.NewPolicy(*minIncrement)
	sf := storefront.New(storefront.NewAPIClient(*apiBase, *timeout),
		storefront.WithPolicy(policy),
		storefront.WithLogger(logger),
	)

	if err := run(ctx, sf, presenter.New(os.Stdout, policy, nil), os.Stdin); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

// run loads the catalog, starts the countdown and reads commands until quit or EOF.
func run(ctx context.Context, sf *storefront.Storefront, out *presenter.Presenter, in io.Reader) error {
	var mu sync.Mutex
	render := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}

	sf.Refresh(ctx)
	render(func() { out.Render(listAll(ctx, sf), "") })

	countdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sf.RunCountdown(countdownCtx, storefront.CountdownPeriod, func(ended []storefront.Listing) {
		render(func() { out.Ended(ended) })
	})

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			cmd, ok := storefront.ParseCommand(line)
			if !ok {
				continue
			}

			res, err := sf.Dispatch(ctx, cmd)
			userID := ""
			if s, ok := sf.Session(); ok {
				userID = s.User.UserID
			}
			render(func() {
				if err != nil {
					out.Error(err)
					return
				}
				out.Render(res, userID)
			})
			if err == nil && res.Kind == storefront.ResultQuit {
				return nil
			}
		}
	}
}

func listAll(ctx context.Context, sf *storefront.Storefront) storefront.Result {
	res, _ := sf.Dispatch(ctx, storefront.Command{Name: "list"})
	return res
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func envInt(key string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return def
}
