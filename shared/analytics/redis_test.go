package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisVisitStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisVisitStore(client, time.Hour)
}

var merkez = &models.Dealer{ID: 101, Name: "Merkez Optik", LinkHash: "a1b2c3d4-test-hash"}

func TestRedisVisitStore_RecordAndStats(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	first := models.NewVisitLog(merkez, "10.0.0.1", "curl/8.0")
	second := models.NewVisitLog(merkez, "10.0.0.2", "Mozilla/5.0")
	second.Timestamp = first.Timestamp.Add(time.Minute)
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	stats, err := store.Stats(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVisits)
	require.Len(t, stats.Visits, 2)
	assert.Equal(t, first.ID, stats.Visits[0].ID)
	require.NotNil(t, stats.LastVisit)
	assert.True(t, second.Timestamp.Equal(*stats.LastVisit))

	assert.True(t, mr.Exists("visits:dealer:101:count"))
	assert.Greater(t, mr.TTL("visits:dealer:101"), time.Duration(0))
}

func TestRedisVisitStore_EmptyDealer(t *testing.T) {
	_, store := setupTestRedis(t)

	stats, err := store.Stats(context.Background(), 999)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVisits)
	assert.Empty(t, stats.Visits)
	assert.Nil(t, stats.LastVisit)
}

func TestRedisVisitStore_Unavailable(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.Close()

	err := store.Record(context.Background(), models.NewVisitLog(merkez, "", ""))
	assert.Error(t, err)
}
