// Package main implements the load generator for the 1MRC event-ingestion
// service. It is an external caller of the service's wire protocol: every
// request rides its own short-lived TCP connection, exactly as the service
// expects, so the generator exercises the accept path as hard as the
// aggregation path.
//
// The generator fires a configured number of event writes across a pool of
// concurrent workers, drawing user identifiers from a fixed pool of random
// UUIDs so the distinct-user count has a known expected value. While running
// it reports throughput at a fixed cadence, and afterwards it fetches the
// server's stats and checks them against its own tally.
//
// Example usage:
//
//	# One million events, 500 workers, 75k distinct users
//	./loadgen --addr 127.0.0.1:8080 -n 1000000 --workers 500 --users 75000
package main

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/Kavishankarks/1mrc/internal/client"
)

// logFatal is a variable to allow mocking log.Fatalf in tests.
var logFatal = log.Fatalf

// options holds the parsed command line.
type options struct {
	addr     string
	requests int
	workers  int
	users    int
	timeout  time.Duration
	report   time.Duration
	validate bool
}

// metrics collects worker-side counters. All fields are updated atomically;
// the expected sum uses an integer number of millis so concurrent adds stay
// exact.
type metrics struct {
	completed uint64
	failed    uint64
	sumMillis uint64
}

func main() {
	opts := parseFlags()

	if opts.requests <= 0 || opts.workers <= 0 || opts.users <= 0 {
		logFatal("requests, workers, and users must all be positive")
	}

	// Fixed pool of user identifiers, so uniqueUsers on the server has a
	// known ceiling.
	userPool := make([]string, opts.users)
	for i := range userPool {
		userPool[i] = uuid.NewString()
	}

	log.Printf("loadgen: %d requests, %d workers, %d-user pool, target %s",
		opts.requests, opts.workers, opts.users, opts.addr)

	m := &metrics{}
	start := time.Now()

	// Progress reporter on a fixed cadence
	done := make(chan struct{})
	var reportWg sync.WaitGroup
	reportWg.Add(1)
	go func() {
		defer reportWg.Done()
		ticker := time.NewTicker(opts.report)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				completed := atomic.LoadUint64(&m.completed)
				failed := atomic.LoadUint64(&m.failed)
				elapsed := time.Since(start).Seconds()
				log.Printf("progress: %d/%d done, %d failed, %.0f req/s",
					completed, opts.requests, failed, float64(completed)/elapsed)
			case <-done:
				return
			}
		}
	}()

	// Fan the work out
	work := make(chan int, opts.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go worker(i, opts, userPool, work, m, &wg)
	}
	for i := 0; i < opts.requests; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
	close(done)
	reportWg.Wait()

	elapsed := time.Since(start)
	completed := atomic.LoadUint64(&m.completed)
	failed := atomic.LoadUint64(&m.failed)
	log.Printf("finished: %d ok, %d failed in %s (%.0f req/s)",
		completed, failed, elapsed.Round(time.Millisecond),
		float64(completed)/elapsed.Seconds())

	if opts.validate {
		validate(opts, m)
	}
}

func parseFlags() options {
	var opts options
	pflag.StringVar(&opts.addr, "addr", "127.0.0.1:8080", "service address (host:port)")
	pflag.IntVarP(&opts.requests, "requests", "n", 1_000_000, "total number of event writes")
	pflag.IntVar(&opts.workers, "workers", 500, "number of concurrent workers")
	pflag.IntVar(&opts.users, "users", 75_000, "size of the distinct user-ID pool")
	pflag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	pflag.DurationVar(&opts.report, "report", 2*time.Second, "progress report interval")
	pflag.BoolVar(&opts.validate, "validate", true, "check server stats against the local tally")
	pflag.Parse()
	return opts
}

// worker drains the work queue, posting one event per item. Each worker keeps
// its own RNG; the shared rand source would serialize the workers.
func worker(id int, opts options, userPool []string, work <-chan int, m *metrics, wg *sync.WaitGroup) {
	defer wg.Done()

	c := client.New(opts.addr, opts.timeout)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)<<20))

	for range work {
		userID := userPool[rng.Intn(len(userPool))]
		// Whole-milli values keep the expected sum exactly representable
		value := float64(rng.Intn(100_000)) / 1000

		if _, err := c.PostEvent(userID, value); err != nil {
			atomic.AddUint64(&m.failed, 1)
			continue
		}
		atomic.AddUint64(&m.completed, 1)
		atomic.AddUint64(&m.sumMillis, uint64(value*1000+0.5))
	}
}

// validate fetches the server's aggregate and compares it with what the
// workers believe they sent. Unique users can only be bounded from above:
// with random draws the pool is not guaranteed to be exhausted.
func validate(opts options, m *metrics) {
	stats, err := client.New(opts.addr, opts.timeout).GetStats()
	if err != nil {
		logFatal("validate: fetch stats: %v", err)
	}

	completed := atomic.LoadUint64(&m.completed)
	wantSum := float64(atomic.LoadUint64(&m.sumMillis)) / 1000

	log.Printf("server: totalRequests=%d uniqueUsers=%d sum=%.3f avg=%.6f",
		stats.TotalRequests, stats.UniqueUsers, stats.Sum, stats.Avg)

	ok := true
	if stats.TotalRequests < completed {
		log.Printf("MISMATCH: server saw %d requests, workers completed %d", stats.TotalRequests, completed)
		ok = false
	}
	if stats.UniqueUsers > uint64(opts.users) {
		log.Printf("MISMATCH: server reports %d unique users, pool holds only %d", stats.UniqueUsers, opts.users)
		ok = false
	}
	// The server accumulates float64s in arbitrary order; allow rounding slack
	// proportional to the request count.
	slack := float64(completed) * 1e-6
	if diff := stats.Sum - wantSum; diff > slack || diff < -slack {
		log.Printf("MISMATCH: server sum %.3f, workers sent %.3f", stats.Sum, wantSum)
		ok = false
	}

	if ok {
		log.Println("validation passed")
	} else {
		logFatal("validation failed")
	}
}
