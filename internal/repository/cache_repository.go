package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

const (
	snapshotKeyPrefix = "commitments"
	scanBatchSize     = 100
)

// CommitmentSnapshot is the cached result of one active-commitment lookup.
type CommitmentSnapshot struct {
	OwnerID    string                      `json:"owner_id"`
	RangeStart time.Time                   `json:"range_start"`
	RangeEnd   time.Time                   `json:"range_end"`
	CachedAt   time.Time                   `json:"cached_at"`
	Items      []models.ExistingCommitment `json:"items"`
}

// CommitmentSnapshotKey identifies the snapshot for an owner and query range.
func CommitmentSnapshotKey(ownerID string, rangeStart, rangeEnd time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", snapshotKeyPrefix, ownerID, rangeStart.Unix(), rangeEnd.Unix())
}

// OwnerSnapshotPattern matches every snapshot cached for the owner.
func OwnerSnapshotPattern(ownerID string) string {
	return fmt.Sprintf("%s:%s:*", snapshotKeyPrefix, ownerID)
}

// CommitmentCacheRepository keeps commitment snapshots in Redis.
type CommitmentCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCommitmentCacheRepository constructs the repository. A nil client behaves as an always-miss cache.
func NewCommitmentCacheRepository(client *redis.Client, logger *zap.Logger) *CommitmentCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommitmentCacheRepository{client: client, logger: logger}
}

// GetSnapshot returns the cached commitments for the owner and range, or ErrCacheMiss.
func (r *CommitmentCacheRepository) GetSnapshot(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := CommitmentSnapshotKey(ownerID, rangeStart, rangeEnd)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	items, err := decodeSnapshot(raw, ownerID, rangeStart, rangeEnd)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			r.logger.Debug("discarding mismatched commitment snapshot", zap.String("key", key))
		}
		return nil, err
	}
	return items, nil
}

// PutSnapshot stores the commitments for the owner and range with the given TTL.
func (r *CommitmentCacheRepository) PutSnapshot(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time, items []models.ExistingCommitment, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := CommitmentSnapshotKey(ownerID, rangeStart, rangeEnd)
	payload, err := encodeSnapshot(CommitmentSnapshot{
		OwnerID:    ownerID,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		CachedAt:   time.Now().UTC(),
		Items:      items,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateOwner removes every snapshot cached for the owner in batches.
func (r *CommitmentCacheRepository) InvalidateOwner(ctx context.Context, ownerID string) error {
	if r.client == nil {
		return nil
	}

	pattern := OwnerSnapshotPattern(ownerID)
	var batch []string
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis delete pattern %s: %w", pattern, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete pattern %s: %w", pattern, err)
		}
	}
	r.logger.Debug("commitment snapshots invalidated", zap.String("owner_id", ownerID))

	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CommitmentCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func encodeSnapshot(snapshot CommitmentSnapshot) ([]byte, error) {
	if snapshot.Items == nil {
		snapshot.Items = []models.ExistingCommitment{}
	}
	return json.Marshal(snapshot)
}

// decodeSnapshot treats a snapshot written for another owner or range as a miss.
func decodeSnapshot(raw []byte, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	var snapshot CommitmentSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal commitment snapshot: %w", err)
	}
	if snapshot.OwnerID != ownerID || !snapshot.RangeStart.Equal(rangeStart) || !snapshot.RangeEnd.Equal(rangeEnd) {
		return nil, appErrors.ErrCacheMiss
	}
	return snapshot.Items, nil
}
