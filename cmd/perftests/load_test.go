package perftests

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"carz-auction/internal/biddingerrors"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name        string
	Store       string
	NumUsers    int
	NumAuctions int
	ReadRatio   int
	Burst       bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", "memory", 200, 200, 0, false},
		{"High-Contention-WriteHeavy", "memory", 500, 10, 0, false},
		{"Mixed-Workload", "memory", 300, 50, 7, false},
		{"ReadHeavy", "memory", 200, 50, 9, false},
		{"Edge-Case-SingleAuction", "memory", 100, 1, 5, false},
		{"Peak-Burst", "memory", 500, 50, 0, true},
		{"SQLite-Mixed-Workload", "sqlite", 100, 20, 7, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	svc, users := setupService(b, newStore(b, s.Store), s.NumAuctions, s.NumUsers)
	ctx := context.Background()

	var totalOps, successfulBids, rejectedBids, failedBids, totalReads int64
	// prices tracks the last accepted price per auction so writers aim just above it
	prices := make([]int64, s.NumAuctions)
	for i := range prices {
		prices[i] = 10000
	}
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			idx := rnd.Intn(s.NumAuctions)
			opType := rnd.Intn(10)

			opStart := time.Now()
			if opType < s.ReadRatio {
				if rnd.Intn(2) == 0 {
					_, _ = svc.ListActiveAuctions(ctx)
				} else {
					_, _ = svc.GetBidsForAuction(ctx, auctionID(idx))
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				amount := atomic.AddInt64(&prices[idx], 1000)
				userID := users[rnd.Intn(len(users))]
				_, _, err := svc.PlaceBid(ctx, auctionID(idx), userID, amount)
				switch {
				case err == nil:
					atomic.AddInt64(&successfulBids, 1)
				case errors.Is(err, biddingerrors.ErrUnavailable):
					atomic.AddInt64(&failedBids, 1)
				default:
					atomic.AddInt64(&rejectedBids, 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Store: %s | Auctions: %d | Total Ops: %d | Accepted: %d | Rejected: %d | Failed: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.Store, s.NumAuctions, totalOps, successfulBids, rejectedBids, failedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	if failedBids > 0 {
		b.Errorf("%d bids failed with a store error", failedBids)
	}
}
