package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lyfe05/matchfeed/internal/feed"
)

func sampleRecords(home string) []feed.MatchRecord {
	return []feed.MatchRecord{{
		Home:       feed.Team{Name: home},
		Away:       feed.Team{Name: "Chelsea"},
		StreamURLs: []string{"https://cdn.example/manifest/0.m3u8"},
	}}
}

func TestEmptySnapshot(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)
	snap := c.Snapshot()
	require.False(t, snap.Populated())
	require.False(t, snap.Refreshing)
	require.Empty(t, snap.Records)
	require.False(t, c.Populated())
	require.True(t, c.IsStale(time.Now()))
}

func TestCommitPublishes(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)

	require.True(t, c.BeginRefresh())
	c.Commit(sampleRecords("Arsenal"), now)

	snap := c.Snapshot()
	require.True(t, snap.Populated())
	require.False(t, snap.Refreshing)
	require.Equal(t, now, snap.LastUpdated)
	require.Equal(t, "Arsenal", snap.Records[0].Home.Name)

	require.False(t, c.IsStale(now.Add(19*time.Minute)))
	require.True(t, c.IsStale(now.Add(21*time.Minute)))
}

func TestBeginRefreshSingleFlight(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)
	require.True(t, c.BeginRefresh())
	require.False(t, c.BeginRefresh())

	c.Abort()
	require.True(t, c.BeginRefresh())
}

func TestBeginRefreshConcurrent(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)

	const callers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- c.BeginRefresh()
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	require.Equal(t, 1, won)
}

func TestAbortKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)

	require.True(t, c.BeginRefresh())
	c.Commit(sampleRecords("Arsenal"), now)

	require.True(t, c.BeginRefresh())
	c.Abort()

	snap := c.Snapshot()
	require.False(t, snap.Refreshing)
	require.Equal(t, now, snap.LastUpdated)
	require.Equal(t, "Arsenal", snap.Records[0].Home.Name)
}

// Readers must never see records and lastUpdated from different passes.
func TestSnapshotConsistency(t *testing.T) {
	t.Parallel()

	c := NewController(20 * time.Minute)
	stamps := map[string]time.Time{
		"Arsenal": time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC),
		"Chelsea": time.Date(2026, 8, 30, 19, 0, 0, 0, time.UTC),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			for home, ts := range stamps {
				if c.BeginRefresh() {
					c.Commit(sampleRecords(home), ts)
				}
			}
		}
	}()

	for i := 0; i < 500; i++ {
		snap := c.Snapshot()
		if !snap.Populated() {
			continue
		}
		require.Len(t, snap.Records, 1)
		require.Equal(t, stamps[snap.Records[0].Home.Name], snap.LastUpdated)
	}
	<-done
}
