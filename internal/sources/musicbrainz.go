package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tunecrate/pkg/models"
)

const (
	musicbrainzBase = "https://musicbrainz.org/ws/2"
	coverArtBase    = "https://coverartarchive.org"

	// MusicBrainz requires identifying clients and at most one request
	// per second.
	musicbrainzUserAgent = "tunecrate/1.0 (https://github.com/tunecrate/tunecrate)"
)

// NewMusicBrainzLimiter builds the shared request gate. minInterval is the
// minimum spacing between successive request starts; the service mandates
// one second. Burst 1 keeps the gate strictly serializing: every call waits
// behind the previous call's interval mark no matter which session issued it.
func NewMusicBrainzLimiter(minInterval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

// MusicBrainz searches the open music metadata encyclopedia. One adapter
// instance handles all three entity types; durations arrive in
// milliseconds; pagination is offset-based with an exact count.
//
// The limiter is injected so independent sessions still share one gate, and
// so tests can run with a short interval.
type MusicBrainz struct {
	BaseURL     string
	CoverArtURL string
	Limiter     *rate.Limiter
	Client      *http.Client
}

func NewMusicBrainz(limiter *rate.Limiter) *MusicBrainz {
	return &MusicBrainz{
		BaseURL:     musicbrainzBase,
		CoverArtURL: coverArtBase,
		Limiter:     limiter,
		Client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *MusicBrainz) Name() string { return "musicbrainz" }

type mbArtistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
}

type mbSearchResponse struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`

	Recordings []struct {
		ID           string           `json:"id"`
		Title        string           `json:"title"`
		Length       int              `json:"length"` // milliseconds
		Score        int              `json:"score"`
		ArtistCredit []mbArtistCredit `json:"artist-credit"`
		Releases     []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"releases"`
	} `json:"recordings"`

	Artists []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Country  string `json:"country"`
		Score    int    `json:"score"`
		LifeSpan struct {
			Begin string `json:"begin"`
			End   string `json:"end"`
		} `json:"life-span"`
	} `json:"artists"`

	Releases []struct {
		ID           string           `json:"id"`
		Title        string           `json:"title"`
		Country      string           `json:"country"`
		Score        int              `json:"score"`
		ArtistCredit []mbArtistCredit `json:"artist-credit"`
	} `json:"releases"`
}

func (s *MusicBrainz) Search(ctx context.Context, q Query) (*Page, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return &Page{}, nil
	}

	entity := q.EntityType
	if entity == "" {
		entity = models.EntityRecording
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("query", text)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	var mb mbSearchResponse
	if err := s.getJSON(ctx, "/"+string(entity), params, &mb); err != nil {
		return nil, err
	}

	var items []models.Item
	switch entity {
	case models.EntityArtist:
		items = s.artistItems(mb)
	case models.EntityRelease:
		items = s.releaseItems(mb)
	default:
		items = s.recordingItems(mb)
	}

	return &Page{
		Items:      items,
		TotalCount: mb.Count,
		NextOffset: q.Offset + len(items),
		HasMore:    q.Offset+len(items) < mb.Count,
	}, nil
}

func (s *MusicBrainz) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	// Global serializing gate: spaces request starts across every caller.
	if err := s.Limiter.Wait(ctx); err != nil {
		return &TransportError{Source: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("musicbrainz: build request: %w", err)
	}
	req.Header.Set("User-Agent", musicbrainzUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return &TransportError{Source: s.Name(), Err: err}
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(s.Name(), resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("musicbrainz: decode %s: %w", path, err)
	}
	return nil
}

func (s *MusicBrainz) recordingItems(mb mbSearchResponse) []models.Item {
	items := make([]models.Item, 0, len(mb.Recordings))
	for _, r := range mb.Recordings {
		if r.ID == "" {
			continue
		}

		album, albumMBID := "", ""
		if len(r.Releases) > 0 {
			album = r.Releases[0].Title
			albumMBID = r.Releases[0].ID
		}

		items = append(items, models.Item{
			ID:        r.ID,
			Source:    models.SourceEncyclopedia,
			Title:     r.Title,
			Artist:    creditNames(r.ArtistCredit),
			Duration:  r.Length / 1000,
			Thumbnail: s.CoverArt(albumMBID, "250"),
			Image:     s.CoverArt(albumMBID, "500"),
			Encyclopedia: &models.EncyclopediaMeta{
				EntityType: models.EntityRecording,
				Album:      album,
				AlbumMBID:  albumMBID,
				Score:      r.Score,
			},
		})
	}
	return items
}

func (s *MusicBrainz) artistItems(mb mbSearchResponse) []models.Item {
	items := make([]models.Item, 0, len(mb.Artists))
	for _, a := range mb.Artists {
		if a.ID == "" {
			continue
		}
		items = append(items, models.Item{
			ID:     a.ID,
			Source: models.SourceEncyclopedia,
			Title:  a.Name,
			Artist: a.Name,
			Encyclopedia: &models.EncyclopediaMeta{
				EntityType: models.EntityArtist,
				Country:    a.Country,
				BeginDate:  a.LifeSpan.Begin,
				EndDate:    a.LifeSpan.End,
				Score:      a.Score,
			},
		})
	}
	return items
}

func (s *MusicBrainz) releaseItems(mb mbSearchResponse) []models.Item {
	items := make([]models.Item, 0, len(mb.Releases))
	for _, r := range mb.Releases {
		if r.ID == "" {
			continue
		}
		items = append(items, models.Item{
			ID:        r.ID,
			Source:    models.SourceEncyclopedia,
			Title:     r.Title,
			Artist:    creditNames(r.ArtistCredit),
			Thumbnail: s.CoverArt(r.ID, "250"),
			Image:     s.CoverArt(r.ID, "500"),
			Encyclopedia: &models.EncyclopediaMeta{
				EntityType: models.EntityRelease,
				AlbumMBID:  r.ID,
				Country:    r.Country,
				Score:      r.Score,
			},
		})
	}
	return items
}

// CoverArt builds the cover art archive URL for a release MBID.
// size is the pixel token ("250" or "500").
func (s *MusicBrainz) CoverArt(releaseMBID, size string) string {
	if releaseMBID == "" {
		return ""
	}
	return fmt.Sprintf("%s/release/%s/front-%s", s.CoverArtURL, releaseMBID, size)
}

func creditNames(credits []mbArtistCredit) string {
	names := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Artist.Name
		if name == "" {
			name = c.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(names, ", ")
}
