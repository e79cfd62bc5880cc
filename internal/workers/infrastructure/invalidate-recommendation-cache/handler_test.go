// internal/workers/infrastructure/invalidate-recommendation-cache/handler_test.go
package invalidaterecommendationcache

import (
	"context"
	"testing"
	"time"

	"admissions-workers/internal/common/cache"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *cache.RecommendationCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewRecommendationCache(client, 5*time.Minute, logger.NewNoOpLogger())
	return NewHandler(LoadConfig(), c, logger.NewNoOpLogger()), c
}

func seedBundle(t *testing.T, c *cache.RecommendationCache, profileID string, limit int) {
	t.Helper()
	err := c.Set(context.Background(), &models.RecommendationBundle{
		BundleID:  "bundle-" + profileID,
		ProfileID: profileID,
	}, limit)
	require.NoError(t, err)
}

func TestExecute_RemovesAllEntriesForProfile(t *testing.T) {
	handler, c := newTestHandler(t)
	seedBundle(t, c, "profile-123", 6)
	seedBundle(t, c, "profile-123", 10)
	seedBundle(t, c, "profile-456", 6)

	output, err := handler.Execute(context.Background(), &Input{ProfileID: "profile-123", Reason: "profile_updated"})
	require.NoError(t, err)
	assert.True(t, output.Invalidated)
	assert.Equal(t, int64(2), output.KeysRemoved)

	_, found, err := c.Get(context.Background(), "profile-123", 6)
	require.NoError(t, err)
	assert.False(t, found)

	// Other profiles keep their entries.
	_, found, err = c.Get(context.Background(), "profile-456", 6)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestExecute_NoEntriesIsStillSuccess(t *testing.T) {
	handler, _ := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{ProfileID: "profile-999"})
	require.NoError(t, err)
	assert.True(t, output.Invalidated)
	assert.Equal(t, int64(0), output.KeysRemoved)
}

func TestExecute_MissingProfileID(t *testing.T) {
	handler, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.Error(t, err)
}
