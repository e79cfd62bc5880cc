package cache

import (
	"context"
	"testing"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RecommendationCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewRecommendationCache(client, ttl, logger.NewNoOpLogger()), mr
}

func sampleBundle(profileID string) *models.RecommendationBundle {
	return &models.RecommendationBundle{
		BundleID:  "b-1",
		ProfileID: profileID,
		Schools: []models.RankedSchool{
			{
				School: models.SchoolStatistics{ID: "sch-1", Name: "Example University"},
				Match:  models.MatchResult{Tier: models.TierTarget, OverallFit: 60},
			},
		},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCacheSetAndGet(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	bundle := sampleBundle("profile-1")
	require.NoError(t, c.Set(ctx, bundle, 6))

	got, found, err := c.Get(ctx, "profile-1", 6)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, bundle.BundleID, got.BundleID)
	assert.Equal(t, bundle.ProfileID, got.ProfileID)
	require.Len(t, got.Schools, 1)
	assert.Equal(t, "sch-1", got.Schools[0].School.ID)
}

func TestCacheMissOnUnknownProfile(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Minute)

	got, found, err := c.Get(context.Background(), "nobody", 6)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestCacheMissOnDifferentLimit(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleBundle("profile-1"), 6))

	_, found, err := c.Get(ctx, "profile-1", 10)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheEntryExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleBundle("profile-1"), 6))

	mr.FastForward(4 * time.Minute)
	_, found, err := c.Get(ctx, "profile-1", 6)
	require.NoError(t, err)
	assert.True(t, found, "entry should survive inside the TTL window")

	mr.FastForward(2 * time.Minute)
	_, found, err = c.Get(ctx, "profile-1", 6)
	require.NoError(t, err)
	assert.False(t, found, "entry should expire after the TTL window")
}

func TestCacheInvalidateRemovesAllLimits(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleBundle("profile-1"), 6))
	require.NoError(t, c.Set(ctx, sampleBundle("profile-1"), 10))
	require.NoError(t, c.Set(ctx, sampleBundle("profile-2"), 6))

	removed, err := c.Invalidate(ctx, "profile-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, found, err := c.Get(ctx, "profile-1", 6)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Get(ctx, "profile-2", 6)
	require.NoError(t, err)
	assert.True(t, found, "other profiles must be untouched")
}

func TestCacheCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t, 5*time.Minute)

	require.NoError(t, mr.Set(Key("profile-1", 6), "{not json"))

	got, found, err := c.Get(context.Background(), "profile-1", 6)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}
