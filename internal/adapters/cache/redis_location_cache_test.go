package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartip-service/internal/domain"
)

func newTestCache(t *testing.T) *RedisLocationCache {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocationCache(client, time.Hour)
}

func TestRedisLocationCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	paris := domain.Location{
		IP:          "2.2.2.2",
		CountryCode: "FR",
		Country:     "France",
		Region:      "Île-de-France",
		City:        "Paris",
		Zip:         "75001",
		Latitude:    48.8566,
		Longitude:   2.3522,
		TimeZone:    "Europe/Paris",
	}

	require.NoError(t, c.PutMany(ctx, map[string]domain.Location{"2.2.2.2": paris}))

	got, err := c.GetMany(ctx, []string{"2.2.2.2", "9.9.9.9"})
	require.NoError(t, err)

	assert.Len(t, got, 1)
	assert.Equal(t, paris, got["2.2.2.2"])

	_, missing := got["9.9.9.9"]
	assert.False(t, missing, "miss should be omitted, not an error")
}

func TestRedisLocationCacheEmptyInput(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.GetMany(ctx, []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, nil))
}

func TestRedisLocationCacheRejectsEmptyKey(t *testing.T) {
	c := newTestCache(t)

	err := c.PutMany(context.Background(), map[string]domain.Location{"": {Country: "Nowhere"}})
	require.Error(t, err)
}

func TestRedisLocationCacheOverwrite(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	first := domain.Location{IP: "8.8.8.8", CountryCode: "US", Country: "United States"}
	second := domain.Location{IP: "8.8.8.8", CountryCode: "US", Country: "United States", City: "Mountain View"}

	require.NoError(t, c.PutMany(ctx, map[string]domain.Location{"8.8.8.8": first}))
	require.NoError(t, c.PutMany(ctx, map[string]domain.Location{"8.8.8.8": second}))

	got, err := c.GetMany(ctx, []string{"8.8.8.8"})
	require.NoError(t, err)
	assert.Equal(t, second, got["8.8.8.8"])
}
