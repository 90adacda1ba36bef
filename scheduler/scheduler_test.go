package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddTicker_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddTicker("ranking_refresh", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_ReplacesByName(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var old, fresh int32
	s.AddTicker("sweep", 20*time.Millisecond, func() { atomic.AddInt32(&old, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("sweep", 20*time.Millisecond, func() { atomic.AddInt32(&fresh, 1) })
	time.Sleep(80 * time.Millisecond)

	snap := atomic.LoadInt32(&old)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&old), "replaced ticker must stop")
	assert.Positive(t, atomic.LoadInt32(&fresh))
}

func TestAddDelay_FiresOnce(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddDelay("once", 30*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestAddDelay_ReplaceCancelsOld(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddDelay("d", 500*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.AddDelay("d", 30*time.Millisecond, func() { atomic.AddInt32(&count, 10) })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

func TestRemove(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks, delays int32
	s.AddTicker("tick", 20*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	s.AddDelay("delay", 100*time.Millisecond, func() { atomic.AddInt32(&delays, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("tick")
	s.Remove("delay")
	s.Remove("nope") // unknown names are a no-op

	snap := atomic.LoadInt32(&ticks)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&ticks))
	assert.Equal(t, int32(0), atomic.LoadInt32(&delays))
}

func TestStop_StopsEverythingAndIsIdempotent(t *testing.T) {
	s := New(zap.NewNop())

	var count int32
	s.AddTicker("a", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop()

	time.Sleep(30 * time.Millisecond)
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count))
}

func TestListTickers(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("ranking_refresh", time.Hour, func() {})
	s.AddTicker("boost_sweep", time.Hour, func() {})
	names := s.ListTickers()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "ranking_refresh")
	assert.Contains(t, names, "boost_sweep")

	s.Remove("ranking_refresh")
	assert.Equal(t, []string{"boost_sweep"}, s.ListTickers())
}

func TestTicker_PanicDoesNotKillScheduler(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddTicker("flaky", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
		panic("boom")
	})
	time.Sleep(100 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(2), "ticker must survive panics")
}
