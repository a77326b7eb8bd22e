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

	"tunecrate/pkg/models"
)

const jamendoBase = "https://api.jamendo.com/v3.0"

// Jamendo order presets exposed by the search handler.
const (
	OrderPopular     = "popularity_total"
	OrderNewReleases = "releasedate_desc"
	OrderTrending    = "popularity_week"
)

// Jamendo searches the royalty-free track catalog. Requires a client id
// credential; offset-based pagination; durations already arrive as plain
// seconds.
type Jamendo struct {
	BaseURL  string
	ClientID string
	Client   *http.Client
}

func NewJamendo(clientID string) *Jamendo {
	return &Jamendo{
		BaseURL:  jamendoBase,
		ClientID: clientID,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Jamendo) Name() string { return "jamendo" }

type jamendoResponse struct {
	Headers struct {
		Status       string `json:"status"`
		ResultsCount int    `json:"results_count"`
	} `json:"headers"`
	Results []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		ArtistName     string `json:"artist_name"`
		AlbumName      string `json:"album_name"`
		AlbumID        string `json:"album_id"`
		AlbumImage     string `json:"album_image"`
		Image          string `json:"image"`
		Duration       int    `json:"duration"`
		ReleaseDate    string `json:"releasedate"`
		Audio          string `json:"audio"`
		AudioDownload  string `json:"audiodownload"`
		AudioDlAllowed bool   `json:"audiodownload_allowed"`
		LicenseCCURL   string `json:"license_ccurl"`
		MusicInfo      struct {
			Tags struct {
				Genres []string `json:"genres"`
			} `json:"tags"`
		} `json:"musicinfo"`
	} `json:"results"`
}

func (s *Jamendo) Search(ctx context.Context, q Query) (*Page, error) {
	if strings.TrimSpace(s.ClientID) == "" {
		return nil, &ConfigError{Source: s.Name(), Settings: []string{"TUNECRATE_JAMENDO_CLIENT_ID"}}
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	u, err := url.Parse(s.BaseURL + "/tracks/")
	if err != nil {
		return nil, fmt.Errorf("jamendo: parse base url: %w", err)
	}
	p := u.Query()
	p.Set("client_id", s.ClientID)
	p.Set("format", "json")
	p.Set("limit", strconv.Itoa(limit))
	p.Set("offset", strconv.Itoa(q.Offset))
	p.Set("include", "musicinfo")
	p.Set("imagesize", "400")
	p.Set("audioformat", "mp32")

	order := q.Order
	if order == "" {
		order = OrderPopular
	}
	p.Set("order", order)

	if t := strings.TrimSpace(q.Text); t != "" {
		p.Set("search", t)
	}
	if len(q.Tags) > 0 {
		p.Set("tags", strings.Join(q.Tags, "+"))
	}
	u.RawQuery = p.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("jamendo: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Source: s.Name(), Err: err}
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(s.Name(), resp.StatusCode, string(body))
	}

	var jr jamendoResponse
	if err := json.Unmarshal(body, &jr); err != nil {
		return nil, fmt.Errorf("jamendo: decode: %w", err)
	}

	items := make([]models.Item, 0, len(jr.Results))
	for _, t := range jr.Results {
		if t.ID == "" {
			continue
		}

		image := t.Image
		if image == "" {
			image = t.AlbumImage
		}
		thumb := t.AlbumImage
		if thumb == "" {
			thumb = t.Image
		}

		dur := t.Duration
		if dur < 0 {
			dur = 0
		}

		items = append(items, models.Item{
			ID:        t.ID,
			Source:    models.SourceCatalog,
			Title:     t.Name,
			Artist:    t.ArtistName,
			Duration:  dur,
			Thumbnail: thumb,
			Image:     image,
			Catalog: &models.CatalogMeta{
				Album:            t.AlbumName,
				AlbumID:          t.AlbumID,
				AudioURL:         t.Audio,
				AudioDownloadURL: t.AudioDownload,
				DownloadAllowed:  t.AudioDlAllowed,
				License:          t.LicenseCCURL,
				ReleaseDate:      t.ReleaseDate,
				Tags:             t.MusicInfo.Tags.Genres,
			},
		})
	}

	return &Page{
		Items:      items,
		TotalCount: jr.Headers.ResultsCount,
		NextOffset: q.Offset + len(items),
		HasMore:    q.Offset+len(items) < jr.Headers.ResultsCount,
	}, nil
}
