package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

const availabilityKeyPrefix = "availability"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the read cache for availability grids. Cache errors
// never fail a request; they are logged and treated as misses.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCacheService constructs a cache service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:        repo,
		metrics:     metrics,
		defaultTTL:  defaultTTL,
		logger:      logger,
		enabled:     enabled,
		generations: make(map[string]uint64),
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// AvailabilityKey builds the cache key of one resource day at a slot size.
func AvailabilityKey(ref models.ResourceRef, date time.Time, slotMinutes int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", availabilityKeyPrefix, ref.Type, ref.ID, date.Format("2006-01-02"), slotMinutes)
}

// Get attempts to retrieve a cached entry and reports whether it hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores the value, falling back to the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Generation counts the invalidations this process has applied to ref.
func (s *CacheService) Generation(ref models.ResourceRef) uint64 {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[ref.Key()]
}

// SetFresh stores value computed while ref was at generation gen. Nothing is
// stored when ref was invalidated since, and an invalidation that lands
// during the write removes the entry again.
func (s *CacheService) SetFresh(ctx context.Context, ref models.ResourceRef, gen uint64, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() || s.Generation(ref) != gen {
		return
	}
	s.Set(ctx, key, value, ttl)
	if s.Generation(ref) == gen {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, key); err != nil {
		s.logger.Warn("cache discard failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateResources drops every cached availability day of the given resources.
func (s *CacheService) InvalidateResources(ctx context.Context, refs ...models.ResourceRef) {
	if !s.Enabled() {
		return
	}
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok || ref.ID == "" {
			continue
		}
		seen[ref.Key()] = struct{}{}
		s.mu.Lock()
		s.generations[ref.Key()]++
		s.mu.Unlock()
		pattern := strings.Join([]string{availabilityKeyPrefix, string(ref.Type), ref.ID, "*"}, ":")
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
