package search

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
)

// Status is the session state machine: idle -> loading -> idle | error.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// DefaultDebounce is the delay between the last query edit and the search
// actually firing.
const DefaultDebounce = 400 * time.Millisecond

// Snapshot is a point-in-time copy of a session for the HTTP layer.
type Snapshot struct {
	Source     models.Source     `json:"source"`
	Query      string            `json:"query"`
	EntityType models.EntityType `json:"entity_type,omitempty"`
	Results    []models.Item     `json:"results"`
	TotalCount int               `json:"total_count"`
	HasMore    bool              `json:"has_more"`
	Status     Status            `json:"status"`
	LastError  string            `json:"last_error,omitempty"`
}

// Session holds the paginated search state for one source: current query,
// cursor, accumulated results, in-flight status and the debounce gate.
//
// Staleness rule: every search intent bumps a generation counter, and each
// issued request carries the generation and query it was started for. A
// completing request applies its results only if both still match, so a
// slow response to an old query can never clobber a newer one. Errors keep
// the previous last-good results.
type Session struct {
	mu sync.Mutex

	source   sources.Searcher
	debounce time.Duration
	limit    int

	timer    *time.Timer // pending debounced search, nil when none
	timerGen int         // bumped whenever the pending timer is superseded
	gen      int

	query      string
	entityType models.EntityType
	offset     int
	pageToken  string
	results    []models.Item
	totalCount int
	hasMore    bool
	status     Status
	lastError  string
}

func NewSession(source sources.Searcher, debounce time.Duration, limit int) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if limit <= 0 {
		limit = 20
	}
	return &Session{
		source:   source,
		debounce: debounce,
		limit:    limit,
		status:   StatusIdle,
	}
}

// SetQuery records a query edit. A pending debounce timer is always
// cancelled first, so rapid edits collapse into a single search for the
// latest text. An emptied query clears results synchronously with no
// network call.
func (s *Session) SetQuery(q string) {
	q = strings.TrimSpace(q)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.query = q

	if q == "" {
		s.gen++
		s.resetResultsLocked()
		return
	}

	tg := s.timerGen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.debouncedSearch(tg, q)
	})
}

// debouncedSearch is the debounce timer callback. The timer generation
// guards the window where a timer has already fired but its callback is
// still waiting on the lock when a newer edit cancels it: Stop() returns
// false then, so the callback itself must notice it was superseded.
func (s *Session) debouncedSearch(timerGen int, q string) {
	s.mu.Lock()
	if s.timerGen != timerGen {
		s.mu.Unlock()
		return
	}
	s.searchNowLocked(q)
}

// SearchNow starts an immediate search for q, resetting the cursor and
// replacing results wholesale when it completes. Used for tab switches,
// retries and the cross-search bridge; debounce fires share its body.
func (s *Session) SearchNow(q string) {
	s.mu.Lock()
	s.searchNowLocked(strings.TrimSpace(q))
}

// searchNowLocked needs s.mu held and releases it.
func (s *Session) searchNowLocked(q string) {
	s.cancelTimerLocked()
	s.query = q
	s.gen++

	if q == "" {
		s.resetResultsLocked()
		s.mu.Unlock()
		return
	}

	gen := s.gen
	req := sources.Query{
		Text:       q,
		Limit:      s.limit,
		EntityType: s.entityType,
	}
	s.status = StatusLoading
	s.lastError = ""
	s.mu.Unlock()

	go s.fetch(gen, q, req, false)
}

// LoadMore fetches the next page for the current query and appends it.
// No-op while a request is in flight or when the source is exhausted.
func (s *Session) LoadMore() {
	s.mu.Lock()
	if s.status == StatusLoading || !s.hasMore || s.query == "" {
		s.mu.Unlock()
		return
	}

	gen := s.gen
	req := sources.Query{
		Text:       s.query,
		Limit:      s.limit,
		Offset:     s.offset,
		PageToken:  s.pageToken,
		EntityType: s.entityType,
	}
	q := s.query
	s.status = StatusLoading
	s.lastError = ""
	s.mu.Unlock()

	go s.fetch(gen, q, req, true)
}

// SetEntityType switches the encyclopedia entity type and, when a query is
// present, re-runs it against the new type.
func (s *Session) SetEntityType(t models.EntityType) {
	s.mu.Lock()
	if s.entityType == t {
		s.mu.Unlock()
		return
	}
	s.entityType = t
	q := s.query
	s.mu.Unlock()

	if q != "" {
		s.SearchNow(q)
	}
}

// Retry re-issues the current query unchanged. Manual user action after an
// error.
func (s *Session) Retry() {
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()
	if q != "" {
		s.SearchNow(q)
	}
}

// LoadVia replaces the session contents with the result of an external
// fetch (the video source's query-less trending chart). Clears the query;
// a later query edit supersedes the external load through the usual
// generation check.
func (s *Session) LoadVia(fetch func(ctx context.Context) (*sources.Page, error)) {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.query = ""
	s.gen++
	gen := s.gen
	s.status = StatusLoading
	s.lastError = ""
	s.mu.Unlock()

	go func() {
		page, err := fetch(context.Background())

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return
		}
		if err != nil {
			s.status = StatusError
			s.lastError = err.Error()
			return
		}
		s.applyPageLocked(page, false)
	}()
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]models.Item, len(s.results))
	copy(results, s.results)

	return Snapshot{
		Source:     s.sourceKind(),
		Query:      s.query,
		EntityType: s.entityType,
		Results:    results,
		TotalCount: s.totalCount,
		HasMore:    s.hasMore,
		Status:     s.status,
		LastError:  s.lastError,
	}
}

func (s *Session) fetch(gen int, q string, req sources.Query, appendPage bool) {
	page, err := s.source.Search(context.Background(), req)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Staleness check: a newer search intent has superseded this request.
	if s.gen != gen || s.query != q {
		return
	}

	if err != nil {
		log.Printf("[search] %s query %q: %v", s.source.Name(), q, err)
		s.status = StatusError
		s.lastError = err.Error()
		return
	}

	s.applyPageLocked(page, appendPage)
}

func (s *Session) applyPageLocked(page *sources.Page, appendPage bool) {
	if appendPage {
		s.results = append(s.results, page.Items...)
	} else {
		s.results = page.Items
	}
	s.totalCount = page.TotalCount
	s.offset = page.NextOffset
	s.pageToken = page.NextPageToken
	s.hasMore = page.HasMore
	s.status = StatusIdle
	s.lastError = ""
}

func (s *Session) resetResultsLocked() {
	s.results = nil
	s.totalCount = 0
	s.offset = 0
	s.pageToken = ""
	s.hasMore = false
	s.status = StatusIdle
	s.lastError = ""
}

func (s *Session) cancelTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) sourceKind() models.Source {
	switch s.source.Name() {
	case "jamendo":
		return models.SourceCatalog
	case "youtube":
		return models.SourceVideo
	case "musicbrainz":
		return models.SourceEncyclopedia
	case "bigaz":
		return models.SourceScraped
	default:
		return models.Source(s.source.Name())
	}
}
