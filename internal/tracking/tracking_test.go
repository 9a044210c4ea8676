package tracking

import (
	"context"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxdrive/internal/models"
)

func fixAt(code string, i int) models.PositionFix {
	return models.PositionFix{
		TrackingCode: code,
		GPS:          models.GPS{Lat: float64(i), Lng: float64(-i)},
		RecordedAt:   time.Date(2025, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func runPositionStoreContract(t *testing.T, store PositionStore) {
	ctx := context.Background()

	empty, err := store.Recent(ctx, "LXD-EMPTY000", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, fixAt("LXD-AAAAAAAA", i)))
	}
	require.NoError(t, store.Record(ctx, fixAt("LXD-BBBBBBBB", 9)))

	all, err := store.Recent(ctx, "LXD-AAAAAAAA", 0)
	require.NoError(t, err)
	require.Len(t, all, 3, "trail is capped at the configured history")
	assert.Equal(t, 5.0, all[0].GPS.Lat, "newest first")
	assert.Equal(t, 3.0, all[2].GPS.Lat)

	two, err := store.Recent(ctx, "LXD-AAAAAAAA", 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, 5.0, two[0].GPS.Lat)
	assert.True(t, two[0].RecordedAt.Equal(fixAt("", 5).RecordedAt))

	other, err := store.Recent(ctx, "LXD-BBBBBBBB", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestMemoryStore(t *testing.T) {
	runPositionStoreContract(t, NewMemoryStore(3))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), RedisConfig{Address: mr.Addr(), History: 3})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runPositionStoreContract(t, store)

	ttl := mr.TTL(trailKey("LXD-AAAAAAAA"))
	assert.Equal(t, trailTTL, ttl)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestNewCode(t *testing.T) {
	pattern := regexp.MustCompile(`^LXD-[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestJitterStaysWithinBounds(t *testing.T) {
	base := models.DefaultGPS
	for i := 0; i < 1000; i++ {
		p := Jitter(base)
		assert.LessOrEqual(t, math.Abs(p.Lat-base.Lat), JitterDegrees)
		assert.LessOrEqual(t, math.Abs(p.Lng-base.Lng), JitterDegrees)
	}
}
