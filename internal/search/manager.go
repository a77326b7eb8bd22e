package search

import (
	"time"

	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
)

// Manager owns one session per source. Sessions are independent: each has
// its own debounce timer and cursor, and only the encyclopedia session's
// adapter shares process-wide state (its request gate).
type Manager struct {
	sessions map[models.Source]*Session
}

// Debounce intervals per source. The encyclopedia gets a slightly longer
// window to keep keystrokes from piling up behind its 1 req/s gate.
const (
	catalogDebounce      = 300 * time.Millisecond
	videoDebounce        = 500 * time.Millisecond
	encyclopediaDebounce = 500 * time.Millisecond
	scrapedDebounce      = 400 * time.Millisecond
)

func NewManager(catalog, video, encyclopedia, scraped sources.Searcher) *Manager {
	return &Manager{
		sessions: map[models.Source]*Session{
			models.SourceCatalog:      NewSession(catalog, catalogDebounce, 20),
			models.SourceVideo:        NewSession(video, videoDebounce, 20),
			models.SourceEncyclopedia: NewSession(encyclopedia, encyclopediaDebounce, 25),
			models.SourceScraped:      NewSession(scraped, scrapedDebounce, 20),
		},
	}
}

// Session returns the controller for a source.
func (m *Manager) Session(src models.Source) (*Session, bool) {
	s, ok := m.sessions[src]
	return s, ok
}
