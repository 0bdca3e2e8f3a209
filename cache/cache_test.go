package cache

import (
	"testing"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(max int, ttl time.Duration) (*Cache, *clock) {
	clk := &clock{t: time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)}
	c := New(max, ttl)
	c.now = clk.now
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	snap := &models.AssetSnapshot{Total: models.AssetEntry{AssetValuation: 1}}

	_, ok := c.Get(day(19))
	assert.False(t, ok)

	c.Set(day(19), snap)
	got, ok := c.Get(day(19).Add(15 * time.Hour))
	require.True(t, ok, "any time on the same day hits")
	assert.Same(t, snap, got)
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(4, time.Minute)
	c.Set(day(19), &models.AssetSnapshot{})

	clk.t = clk.t.Add(2 * time.Minute)
	_, ok := c.Get(day(19))
	assert.False(t, ok)
}

func TestEviction_PrefersExpired(t *testing.T) {
	c, clk := newTestCache(2, time.Minute)
	c.Set(day(17), &models.AssetSnapshot{})
	clk.t = clk.t.Add(2 * time.Minute)
	c.Set(day(18), &models.AssetSnapshot{})
	c.Set(day(19), &models.AssetSnapshot{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(day(18))
	assert.True(t, ok)
	_, ok = c.Get(day(19))
	assert.True(t, ok)
}

func TestEviction_Full(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set(day(17), &models.AssetSnapshot{})
	c.Set(day(18), &models.AssetSnapshot{})
	c.Set(day(19), &models.AssetSnapshot{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(day(19))
	assert.True(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set(day(19), &models.AssetSnapshot{})
	c.Invalidate(day(19))

	_, ok := c.Get(day(19))
	assert.False(t, ok)
}

func TestDisabled(t *testing.T) {
	c, _ := newTestCache(4, 0)
	c.Set(day(19), &models.AssetSnapshot{})
	assert.Zero(t, c.Len())
}
