// Command authgate-loadtest benchmarks the session store and token
// codec under concurrency: a login phase that creates sessions (with
// cap eviction in play) and a validate phase that signs and verifies
// tokens against live sessions. Runs against miniredis by default, a
// real Redis via -redis-addr or REDIS_ADDR, or the in-memory store
// with -memory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authgate/session"
	"github.com/MrEthical07/authgate/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		users       = flag.Int("users", 10000, "number of distinct users")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		maxPerUser  = flag.Int("max-per-user", 5, "session cap per user")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		useMemory   = flag.Bool("memory", false, "use the in-memory store instead of redis")
		prefix      = flag.String("prefix", "ag:", "redis key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *maxPerUser <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, ops, and max-per-user must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := session.Config{
		Timeout:     24 * time.Hour,
		MaxPerUser:  *maxPerUser,
		RedisPrefix: *prefix,
	}

	var (
		store   session.Store
		cleanup func()
	)
	if *useMemory {
		store = session.NewMemoryStore(cfg, time.Now)
		cleanup = func() {}
		fmt.Println("using in-memory store")
	} else {
		addr := *redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		var client redis.UniversalClient
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
				os.Exit(1)
			}
			addr = mr.Addr()
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
			cleanup = func() {
				_ = client.Close()
				mr.Close()
			}
			fmt.Printf("using miniredis at %s\n", addr)
		} else {
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
			cleanup = func() { _ = client.Close() }
			fmt.Printf("using redis at %s\n", addr)
		}
		store = session.NewRedisStore(client, cfg, time.Now)
	}
	defer cleanup()

	codec, err := token.NewCodec([]byte("loadtest-secret"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "codec: %v\n", err)
		os.Exit(1)
	}

	loginStats, tokens := runLoginPhase(ctx, store, codec, *users, *ops, *concurrency)
	validateStats := runValidatePhase(ctx, store, codec, tokens, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
}

// runLoginPhase creates sessions round-robin across users, signing a
// token for each. With ops well above users*maxPerUser the eviction
// path is constantly exercised.
func runLoginPhase(ctx context.Context, store session.Store, codec *token.Codec, users, ops, concurrency int) (phaseStats, []string) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		tokens    = make([]string, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				userID := fmt.Sprintf("user-%d", i%users)

				t0 := time.Now()
				sess, _, err := store.Create(ctx, userID, "127.0.0.1", "loadtest")
				var tok string
				if err == nil {
					tok, err = codec.Sign(token.Payload{
						SessionID: sess.ID,
						UserID:    userID,
						Exp:       sess.Expires.UnixMilli(),
					})
				}
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					tokens = append(tokens, tok)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures), tokens
}

// runValidatePhase verifies random tokens and looks their sessions up.
// Sessions evicted during the login phase count as expected misses, not
// failures.
func runValidatePhase(ctx context.Context, store session.Store, codec *token.Codec, tokens []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)
	if len(tokens) == 0 {
		return phaseStats{}
	}

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				tok := tokens[r.Intn(len(tokens))]

				t0 := time.Now()
				payload, err := codec.Verify(tok)
				if err == nil {
					_, err = store.Get(ctx, payload.SessionID)
					if errors.Is(err, session.ErrNotFound) {
						err = nil
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
