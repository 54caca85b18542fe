package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/password"
)

type userState struct {
	id      string
	access  string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of users to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		opsCount    = flag.Int("ops", 50000, "refresh operations to run")
		duplicates  = flag.Int("duplicates", 8, "concurrent duplicates per token in the storm phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *opsCount <= 0 || *duplicates <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, ops, and duplicates must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
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
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.Token.SigningSecret = []byte("loadtest-signing-secret-01234567")
	cfg.Secrets.EncryptionKey = []byte("loadtest-encryption-key-01234567")
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	// Cheap argon2 parameters keep the seeding phase from dominating.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	provider := newSeedProvider()
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(provider).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "argon2 init: %v\n", err)
		os.Exit(1)
	}
	seedHash, err := hasher.Hash("loadtest-password")
	if err != nil {
		fmt.Fprintf(os.Stderr, "argon2 hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	states := make([]userState, *users)
	for i := 0; i < *users; i++ {
		id := fmt.Sprintf("user-%d", i)
		email := fmt.Sprintf("user-%d@loadtest.local", i)
		provider.Put(id, email, seedHash)

		bundle, err := engine.Login(ctx, email, "loadtest-password")
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = userState{id: id, access: bundle.AccessToken, refresh: bundle.RefreshToken}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	rotateStats := runRotatePhase(ctx, engine, states, *opsCount, *concurrency)
	stormHits := runDuplicateStorm(ctx, engine, states, *duplicates)

	snapshot := engine.MetricsSnapshot()
	success := snapshot.Counters[authcore.MetricRefreshSuccess]
	hits := snapshot.Counters[authcore.MetricRefreshIdempotentHit]
	contended := snapshot.Counters[authcore.MetricRefreshLockContended]
	timeouts := snapshot.Counters[authcore.MetricRefreshTimeout]

	fmt.Println("---- results ----")
	printStats("rotate", rotateStats)
	fmt.Printf("duplicate storm: identical-bundle groups=%d\n", stormHits)
	fmt.Printf("engine: refresh_success=%d idempotent_hits=%d (%.1f%%) lock_contended=%d timeouts=%d\n",
		success, hits, ratio(hits, success), contended, timeouts)
}

// runRotatePhase drives sequential rotations per user under global
// concurrency: every call consumes the user's current refresh token and
// installs the returned one.
func runRotatePhase(ctx context.Context, engine *authcore.Engine, states []userState, opsCount, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opsCount)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opsCount {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				bundle, err := engine.Refresh(ctx, state.id, state.refresh, state.access)
				d := time.Since(t0)
				if err == nil {
					state.refresh = bundle.RefreshToken
					state.access = bundle.AccessToken
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runDuplicateStorm fires the same refresh token from `duplicates`
// goroutines at once for every user and counts the groups in which all
// callers received the identical bundle.
func runDuplicateStorm(ctx context.Context, engine *authcore.Engine, states []userState, duplicates int) int {
	identical := 0
	for i := range states {
		state := &states[i]

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			bundles = make([]*authcore.TokenBundle, 0, duplicates)
		)
		for d := 0; d < duplicates; d++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bundle, err := engine.Refresh(ctx, state.id, state.refresh, state.access)
				if err != nil {
					return
				}
				mu.Lock()
				bundles = append(bundles, bundle)
				mu.Unlock()
			}()
		}
		wg.Wait()

		if len(bundles) == duplicates && allIdentical(bundles) {
			identical++
		}
		if len(bundles) > 0 {
			state.refresh = bundles[0].RefreshToken
			state.access = bundles[0].AccessToken
		}
	}
	return identical
}

func allIdentical(bundles []*authcore.TokenBundle) bool {
	for _, b := range bundles[1:] {
		if b.RefreshToken != bundles[0].RefreshToken || b.AccessToken != bundles[0].AccessToken {
			return false
		}
	}
	return true
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

func ratio(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

type seedRecord struct {
	user    authcore.User
	account authcore.Account
}

type seedProvider struct {
	mu      sync.RWMutex
	byID    map[string]*seedRecord
	byEmail map[string]string
}

func newSeedProvider() *seedProvider {
	return &seedProvider{
		byID:    make(map[string]*seedRecord),
		byEmail: make(map[string]string),
	}
}

func (p *seedProvider) Put(id, email, passwordHash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[id] = &seedRecord{
		user:    authcore.User{ID: id, Email: email, Name: id, Role: "user"},
		account: authcore.Account{PasswordHash: passwordHash, Verified: true},
	}
	p.byEmail[email] = id
}

func (p *seedProvider) FindUserByEmail(_ context.Context, email string) (*authcore.User, *authcore.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byEmail[email]
	if !ok {
		return nil, nil, nil
	}
	return p.find(id)
}

func (p *seedProvider) FindUserByID(_ context.Context, id string) (*authcore.User, *authcore.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.find(id)
}

func (p *seedProvider) find(id string) (*authcore.User, *authcore.Account, error) {
	rec, ok := p.byID[id]
	if !ok {
		return nil, nil, nil
	}
	user := rec.user
	account := rec.account
	return &user, &account, nil
}

func (p *seedProvider) UpdateAccount(_ context.Context, userID string, update authcore.AccountUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	if update.Verified != nil {
		rec.account.Verified = *update.Verified
	}
	if update.TOTPSecret != nil {
		rec.account.TOTPSecret = *update.TOTPSecret
	}
	return nil
}
