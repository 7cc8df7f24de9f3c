package cache

import (
	"context"
	"testing"
	"time"

	"zapislon/internal/slots"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := zerolog.Nop()
	c := New(client, time.Minute, &logger)
	require.NotNil(t, c)
	return c, mr
}

func sampleSlots(date time.Time) []slots.Slot {
	return []slots.Slot{
		{StartTime: date.Add(10 * time.Hour), EndTime: date.Add(10*time.Hour + 30*time.Minute), Available: true},
		{StartTime: date.Add(10*time.Hour + 15*time.Minute), EndTime: date.Add(10*time.Hour + 45*time.Minute), Available: false, BookingID: 3},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	_, ok := c.Get(ctx, 1, date, 30)
	assert.False(t, ok, "empty cache must miss")

	want := sampleSlots(date)
	c.Put(ctx, 1, date, 30, want)

	got, ok := c.Get(ctx, 1, date, 30)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.True(t, got[0].Available)
	assert.Equal(t, int64(3), got[1].BookingID)

	// A different duration is a separate key.
	_, ok = c.Get(ctx, 1, date, 60)
	assert.False(t, ok)
}

func TestCacheInvalidateDay(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	c.Put(ctx, 1, date, 30, sampleSlots(date))
	c.Put(ctx, 1, date, 60, sampleSlots(date))
	c.Put(ctx, 2, date, 30, sampleSlots(date))

	c.InvalidateDay(ctx, 1, date)

	_, ok := c.Get(ctx, 1, date, 30)
	assert.False(t, ok, "30-minute variant must be dropped")
	_, ok = c.Get(ctx, 1, date, 60)
	assert.False(t, ok, "60-minute variant must be dropped")

	_, ok = c.Get(ctx, 2, date, 30)
	assert.True(t, ok, "another master's cache is untouched")
}

func TestCacheExpiry(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	c.Put(ctx, 1, date, 30, sampleSlots(date))
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, 1, date, 30)
	assert.False(t, ok, "entries expire with the TTL")
}

func TestNilCacheIsNoOp(t *testing.T) {
	logger := zerolog.Nop()
	var c *AvailabilityCache

	assert.Nil(t, New(nil, time.Minute, &logger))
	assert.Nil(t, New(nil, 0, &logger))

	// All methods are safe on a nil receiver.
	ctx := context.Background()
	date := time.Now()
	_, ok := c.Get(ctx, 1, date, 30)
	assert.False(t, ok)
	c.Put(ctx, 1, date, 30, nil)
	c.InvalidateDay(ctx, 1, date)
}
