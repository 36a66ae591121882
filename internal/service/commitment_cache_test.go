package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

type snapshotKey struct {
	owner string
	start int64
	end   int64
}

func keyFor(owner string, rangeStart, rangeEnd time.Time) snapshotKey {
	return snapshotKey{owner: owner, start: rangeStart.Unix(), end: rangeEnd.Unix()}
}

type snapshotCacheStub struct {
	mu          sync.Mutex
	data        map[snapshotKey][]models.ExistingCommitment
	ttls        map[snapshotKey]time.Duration
	getErr      error
	putErr      error
	invalidated []string
}

func newSnapshotCacheStub() *snapshotCacheStub {
	return &snapshotCacheStub{data: map[snapshotKey][]models.ExistingCommitment{}, ttls: map[snapshotKey]time.Duration{}}
}

func (c *snapshotCacheStub) GetSnapshot(_ context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	items, ok := c.data[keyFor(ownerID, rangeStart, rangeEnd)]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return append([]models.ExistingCommitment(nil), items...), nil
}

func (c *snapshotCacheStub) PutSnapshot(_ context.Context, ownerID string, rangeStart, rangeEnd time.Time, items []models.ExistingCommitment, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	key := keyFor(ownerID, rangeStart, rangeEnd)
	c.data[key] = append([]models.ExistingCommitment(nil), items...)
	c.ttls[key] = ttl
	return nil
}

func (c *snapshotCacheStub) InvalidateOwner(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ownerID)
	for key := range c.data {
		if key.owner == ownerID {
			delete(c.data, key)
		}
	}
	return nil
}

func TestCachedCommitmentStoreServesRepeatLookupsFromCache(t *testing.T) {
	store := newCommitmentStoreStub()
	store.add("owner", commitment("c-1", at(19, 10, 0), 60, models.CommitmentStatusConfirmed))
	cache := newSnapshotCacheStub()
	metrics := NewMetricsService()
	cached := NewCachedCommitmentStore(store, cache, 0, metrics, nil)

	first, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	second, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, store.callCount())
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].Start.Equal(second[0].Start))
	assert.Equal(t, models.CommitmentStatusConfirmed, second[0].Status)

	assert.Equal(t, 30*time.Second, cache.ttls[keyFor("owner", at(19, 0, 0), at(26, 0, 0))])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
}

func TestCachedCommitmentStoreKeysByRange(t *testing.T) {
	store := newCommitmentStoreStub()
	cached := NewCachedCommitmentStore(store, newSnapshotCacheStub(), time.Minute, nil, nil)

	_, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	_, err = cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(27, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, store.callCount())
}

func TestCachedCommitmentStoreFallsThroughOnCacheFailure(t *testing.T) {
	store := newCommitmentStoreStub()
	store.add("owner", commitment("c-1", at(19, 10, 0), 60, models.CommitmentStatusConfirmed))
	cache := newSnapshotCacheStub()
	cache.getErr = errors.New("redis unavailable")
	cache.putErr = errors.New("redis unavailable")
	cached := NewCachedCommitmentStore(store, cache, time.Minute, nil, nil)

	items, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, store.callCount())
}

func TestCachedCommitmentStoreDoesNotCacheStoreErrors(t *testing.T) {
	store := newCommitmentStoreStub()
	store.errs["owner"] = assert.AnError
	cache := newSnapshotCacheStub()
	cached := NewCachedCommitmentStore(store, cache, time.Minute, nil, nil)

	_, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, cache.data)
}

func TestCachedCommitmentStoreInvalidate(t *testing.T) {
	store := newCommitmentStoreStub()
	cache := newSnapshotCacheStub()
	cached := NewCachedCommitmentStore(store, cache, time.Minute, nil, nil)

	_, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	_, err = cached.GetActiveCommitments(context.Background(), "other", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)

	require.NoError(t, cached.Invalidate(context.Background(), "owner"))
	assert.Equal(t, []string{"owner"}, cache.invalidated)
	assert.Len(t, cache.data, 1)

	_, err = cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, store.callCount())
}

func TestCachedCommitmentStoreWithoutCache(t *testing.T) {
	store := newCommitmentStoreStub()
	cached := NewCachedCommitmentStore(store, nil, time.Minute, nil, nil)

	_, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	_, err = cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, store.callCount())
	assert.NoError(t, cached.Invalidate(context.Background(), "owner"))
}

func TestCachedCommitmentStoreCachesEmptyLookupsPerOwner(t *testing.T) {
	store := newCommitmentStoreStub()
	store.add("other", commitment("c-9", at(20, 9, 0), 60, models.CommitmentStatusPending))
	cache := newSnapshotCacheStub()
	cached := NewCachedCommitmentStore(store, cache, time.Minute, nil, nil)

	for i := 0; i < 2; i++ {
		items, err := cached.GetActiveCommitments(context.Background(), "owner", at(19, 0, 0), at(26, 0, 0))
		require.NoError(t, err)
		assert.Empty(t, items)
	}
	items, err := cached.GetActiveCommitments(context.Background(), "other", at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "c-9", items[0].ID)
	assert.Equal(t, 2, store.callCount())
	assert.Contains(t, cache.data, keyFor("owner", at(19, 0, 0), at(26, 0, 0)))
	assert.Equal(t, time.Minute, cache.ttls[keyFor("other", at(19, 0, 0), at(26, 0, 0))])
}
