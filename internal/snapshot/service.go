package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"go.uber.org/zap"

	"github.com/stridekernd/stridekernd/internal/kernel"
	stridekerndredis "github.com/stridekernd/stridekernd/redis"
)

// RedisKey is where the latest snapshot is mirrored, as a JSON blob.
const RedisKey = "stridekernd:snapshot"

// Options controls caching policy. Grounded on
// service.SummaryService's SummaryOptions.
type Options struct {
	// TTL controls how long a cached snapshot is served before the
	// next Get triggers a refresh.
	TTL time.Duration
	// MirrorTimeout bounds how long a Redis mirror write may take;
	// mirror failures never fail Get itself.
	MirrorTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.TTL <= 0 {
		o.TTL = 250 * time.Millisecond
	}
	if o.MirrorTimeout <= 0 {
		o.MirrorTimeout = 300 * time.Millisecond
	}
}

// Result carries a snapshot and whether Get served it from the cache.
type Result struct {
	Snapshot Snapshot
	CacheHit bool
}

// Service caches Kernel.Snapshot()/QueueSnapshot() briefly and
// coalesces concurrent refreshes, optionally mirroring the result to
// Redis. Grounded on service.SummaryService's TTL-cache-plus-
// singleflight shape; the kernel read here replaces that service's
// Redis-backed channel repositories.
type Service struct {
	log    *zap.Logger
	kernel *kernel.Kernel
	redis  *stridekerndredis.Client // nil disables mirroring

	opts Options

	mu      sync.RWMutex
	cache   Snapshot
	expires time.Time

	sg singleflight.Group
}

// NewService wires a Service over k. redisClient may be nil to disable
// the Redis mirror entirely.
func NewService(log *zap.Logger, k *kernel.Kernel, redisClient *stridekerndredis.Client, opts Options) *Service {
	opts.setDefaults()
	return &Service{
		log:    log.Named("snapshot"),
		kernel: k,
		redis:  redisClient,
		opts:   opts,
	}
}

// Get returns the cached snapshot, refreshing it first if expired.
// Concurrent callers during a refresh share one underlying build.
func (s *Service) Get(ctx context.Context) (Result, error) {
	s.mu.RLock()
	if !s.expires.IsZero() && time.Now().Before(s.expires) {
		snap := s.cache
		s.mu.RUnlock()
		return Result{Snapshot: snap, CacheHit: true}, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.sg.Do("refresh", func() (any, error) {
		s.mu.RLock()
		if !s.expires.IsZero() && time.Now().Before(s.expires) {
			snap := s.cache
			s.mu.RUnlock()
			return Result{Snapshot: snap, CacheHit: true}, nil
		}
		s.mu.RUnlock()

		snap := s.build()

		s.mu.Lock()
		s.cache = snap
		s.expires = time.Now().Add(s.opts.TTL)
		s.mu.Unlock()

		s.mirror(ctx, snap)

		return Result{Snapshot: snap, CacheHit: false}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Invalidate forces the next Get to rebuild rather than serve cache.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.expires = time.Time{}
	s.mu.Unlock()
}

func (s *Service) build() Snapshot {
	procs := s.kernel.Snapshot()
	queue := s.kernel.QueueSnapshot()

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		entries = append(entries, newEntry(p))
	}
	pids := make([]int64, 0, len(queue))
	for _, p := range queue {
		pids = append(pids, p.PID)
	}

	return Snapshot{
		GeneratedAt: time.Now(),
		Procs:       entries,
		Queue:       pids,
	}
}

// mirror best-effort publishes snap to Redis. Failures are logged, not
// propagated: a reader falling back to a direct Get call is always
// correct, just slower.
func (s *Service) mirror(ctx context.Context, snap Snapshot) {
	if s.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.MirrorTimeout)
	defer cancel()

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn("snapshot marshal failed", zap.Error(err))
		return
	}

	if err := s.redis.Set(ctx, RedisKey, data, 2*s.opts.TTL).Err(); err != nil {
		s.log.Warn("snapshot mirror failed", zap.Error(err))
	}
}
