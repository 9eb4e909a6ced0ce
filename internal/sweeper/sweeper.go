// Package sweeper periodically marks auctions whose end time has passed as ended, so the stored
// status converges with what reads already compute from the end time.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"carz-auction/internal/metrics"
	"carz-auction/utils"

	"github.com/robfig/cron/v3"
)

// Expirer is the store operation the sweep drives.
type Expirer interface {
	ExpireAuctions(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs ExpireAuctions on a cron schedule.
type Sweeper struct {
	store   Expirer
	cron    *cron.Cron
	now     func() time.Time
	timeout time.Duration
}

// New creates a sweeper for schedule, e.g. "@every 30s" or "*/5 * * * *".
func New(store Expirer, schedule string) (*Sweeper, error) {
	logger := cron.PrintfLogger(utils.StandardLogger())
	s := &Sweeper{
		store:   store,
		now:     time.Now,
		timeout: 10 * time.Second,
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule in the background
func (s *Sweeper) Start() {
	s.cron.Start()
	utils.Info("expiry sweeper started", map[string]any{"entries": len(s.cron.Entries())})
}

// Stop halts the schedule and waits for a running sweep until ctx is done
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.Sweep(ctx)
}

// Sweep expires every overdue auction once and returns how many changed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.store.ExpireAuctions(ctx, s.now().UTC())
	metrics.RecordSweep(n, time.Since(start))
	if err != nil {
		utils.Error("expiry sweep failed", map[string]any{"error": err.Error()})
		return 0, err
	}
	if n > 0 {
		utils.Info("auctions expired", map[string]any{"count": n})
	}
	return n, nil
}
