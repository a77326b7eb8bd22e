package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
)

// stubSource is a scriptable Searcher. Each call records its Query; the
// respond hook controls payload and latency per query text.
type stubSource struct {
	mu      sync.Mutex
	calls   []sources.Query
	respond func(q sources.Query) (*sources.Page, error)
}

func (s *stubSource) Name() string { return "jamendo" }

func (s *stubSource) Search(ctx context.Context, q sources.Query) (*sources.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()
	if s.respond != nil {
		return s.respond(q)
	}
	return pageFor(q.Text, q.Offset, false), nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubSource) lastCall() sources.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// pageFor builds a one-item page whose item id encodes query and offset, so
// tests can tell apart which request produced the visible results.
func pageFor(text string, offset int, hasMore bool) *sources.Page {
	return &sources.Page{
		Items: []models.Item{{
			ID:     fmt.Sprintf("%s-%d", text, offset),
			Source: models.SourceCatalog,
			Title:  text,
		}},
		TotalCount: 100,
		NextOffset: offset + 1,
		HasMore:    hasMore,
	}
}

func waitIdle(t *testing.T, s *Session) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		st := s.Snapshot().Status
		return st == StatusIdle || st == StatusError
	}, 2*time.Second, 5*time.Millisecond)
	return s.Snapshot()
}

func TestDebounceCollapsesRapidEdits(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, 50*time.Millisecond, 20)

	s.SetQuery("g")
	s.SetQuery("gü")
	s.SetQuery("gülümse")

	require.Eventually(t, func() bool {
		return src.callCount() > 0 && s.Snapshot().Status == StatusIdle
	}, 2*time.Second, 5*time.Millisecond)

	// One search, for the final text only.
	assert.Equal(t, 1, src.callCount())
	assert.Equal(t, "gülümse", src.lastCall().Text)
	assert.Equal(t, "gülümse", s.Snapshot().Query)
}

func TestFiredTimerSupersededByNewerEdit(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, time.Hour, 20) // timers never fire on their own

	s.SetQuery("old")

	// Capture the generation the pending timer was scheduled with, then
	// supersede it with a newer edit.
	s.mu.Lock()
	tg := s.timerGen
	s.mu.Unlock()

	s.SetQuery("new")

	// The old timer's callback arriving late must be a no-op: no search
	// for the stale text, query untouched.
	s.debouncedSearch(tg, "old")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, src.callCount())
	assert.Equal(t, "new", s.Snapshot().Query)
}

func TestStaleResponseNeverClobbersNewerQuery(t *testing.T) {
	src := &stubSource{}
	src.respond = func(q sources.Query) (*sources.Page, error) {
		if q.Text == "slow" {
			time.Sleep(150 * time.Millisecond)
		}
		return pageFor(q.Text, q.Offset, false), nil
	}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("slow")
	time.Sleep(20 * time.Millisecond)
	s.SearchNow("fast")

	// Wait past the slow response's arrival.
	time.Sleep(300 * time.Millisecond)

	snap := waitIdle(t, s)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "fast-0", snap.Results[0].ID)
	assert.Equal(t, "fast", snap.Query)
}

func TestLoadMoreAppends(t *testing.T) {
	src := &stubSource{}
	src.respond = func(q sources.Query) (*sources.Page, error) {
		return pageFor(q.Text, q.Offset, true), nil
	}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("piano")
	waitIdle(t, s)

	s.LoadMore()
	snap := waitIdle(t, s)

	require.Len(t, snap.Results, 2)
	assert.Equal(t, "piano-0", snap.Results[0].ID)
	assert.Equal(t, "piano-1", snap.Results[1].ID)

	// Second request carried the cursor from the first page.
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 1, src.lastCall().Offset)
}

func TestLoadMoreNoopWhenExhausted(t *testing.T) {
	src := &stubSource{} // default respond: hasMore=false
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("piano")
	waitIdle(t, s)

	s.LoadMore()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, src.callCount())
}

func TestEmptyQueryClearsWithoutSearching(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("piano")
	waitIdle(t, s)
	require.NotEmpty(t, s.Snapshot().Results)

	s.SetQuery("   ")

	snap := s.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, "", snap.Query)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, src.callCount())
}

func TestErrorKeepsPreviousResults(t *testing.T) {
	src := &stubSource{}
	fail := false
	src.respond = func(q sources.Query) (*sources.Page, error) {
		if fail {
			return nil, &sources.UnavailableError{Source: "jamendo", Status: 503}
		}
		return pageFor(q.Text, q.Offset, false), nil
	}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("piano")
	waitIdle(t, s)

	fail = true
	s.SearchNow("violin")
	snap := waitIdle(t, s)

	assert.Equal(t, StatusError, snap.Status)
	assert.NotEmpty(t, snap.LastError)
	// Last good results stay visible behind the error.
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "piano-0", snap.Results[0].ID)

	// Retry after the outage recovers.
	fail = false
	s.Retry()
	snap = waitIdle(t, s)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, "violin-0", snap.Results[0].ID)
}

func TestSetEntityTypeRerunsQuery(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.SearchNow("sezen")
	waitIdle(t, s)

	s.SetEntityType(models.EntityArtist)
	waitIdle(t, s)

	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, models.EntityArtist, src.lastCall().EntityType)

	// Same type again is a no-op.
	s.SetEntityType(models.EntityArtist)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, src.callCount())
}

func TestLoadVia(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, 10*time.Millisecond, 20)

	s.LoadVia(func(ctx context.Context) (*sources.Page, error) {
		return &sources.Page{
			Items:      []models.Item{{ID: "trend-1", Source: models.SourceVideo, Title: "Trending"}},
			TotalCount: 1,
		}, nil
	})

	snap := waitIdle(t, s)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "trend-1", snap.Results[0].ID)
	assert.Equal(t, "", snap.Query)
	assert.Equal(t, 0, src.callCount())
}
