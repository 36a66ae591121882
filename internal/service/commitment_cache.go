package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

// CommitmentSnapshotCache persists active-commitment lookups keyed by owner and range.
type CommitmentSnapshotCache interface {
	GetSnapshot(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error)
	PutSnapshot(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time, items []models.ExistingCommitment, ttl time.Duration) error
	InvalidateOwner(ctx context.Context, ownerID string) error
}

// CachedCommitmentStore serves commitment snapshots from a short-lived cache before
// falling through to the store. Cache failures never fail a lookup.
type CachedCommitmentStore struct {
	store   CommitmentStore
	cache   CommitmentSnapshotCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCachedCommitmentStore decorates store. A nil cache returns a pass-through.
func NewCachedCommitmentStore(store CommitmentStore, cache CommitmentSnapshotCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *CachedCommitmentStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCommitmentStore{store: store, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// GetActiveCommitments implements CommitmentStore.
func (s *CachedCommitmentStore) GetActiveCommitments(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	if s.cache == nil {
		return s.load(ctx, ownerID, rangeStart, rangeEnd)
	}

	start := time.Now()
	cached, err := s.cache.GetSnapshot(ctx, ownerID, rangeStart, rangeEnd)
	duration := time.Since(start)
	switch {
	case err == nil:
		s.metrics.RecordCacheOperation(true, duration)
		return cached, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		s.metrics.RecordCacheOperation(false, duration)
	default:
		s.metrics.RecordCacheOperation(false, duration)
		s.logger.Warn("commitment cache get failed", zap.String("owner_id", ownerID), zap.Error(err))
	}

	items, err := s.load(ctx, ownerID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	if err := s.cache.PutSnapshot(ctx, ownerID, rangeStart, rangeEnd, items, s.ttl); err != nil {
		s.logger.Warn("commitment cache set failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
	return items, nil
}

// Invalidate drops every cached snapshot for the owner; callers use it after booking changes.
func (s *CachedCommitmentStore) Invalidate(ctx context.Context, ownerID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		s.logger.Warn("commitment cache invalidate failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	return nil
}

func (s *CachedCommitmentStore) load(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	start := time.Now()
	items, err := s.store.GetActiveCommitments(ctx, ownerID, rangeStart, rangeEnd)
	s.metrics.ObserveStoreQuery("active_commitments", time.Since(start))
	return items, err
}
