package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunecrate/pkg/models"
)

// BigAz searches the scraped third-party song site through the download
// backend's proxy endpoints. The backend holds the scraping logic; this
// adapter only speaks its three-endpoint HTTP contract, all authenticated
// with a shared x-api-key header.
type BigAz struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewBigAz(baseURL, apiKey string) *BigAz {
	return &BigAz{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *BigAz) Name() string { return "bigaz" }

// Configured reports whether the backend settings are present. Checked
// before every call so a missing deployment setting surfaces as a
// ConfigError, never as a network failure.
func (s *BigAz) Configured() bool {
	return s.BaseURL != "" && s.APIKey != ""
}

func (s *BigAz) configError() error {
	return &ConfigError{
		Source:   s.Name(),
		Settings: []string{"TUNECRATE_BACKEND_URL", "TUNECRATE_BACKEND_API_KEY"},
	}
}

type bigazSearchResponse struct {
	Data struct {
		Songs []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Artist       string `json:"artist"`
			HTMLFileName string `json:"htmlFileName"`
			FullTitle    string `json:"fullTitle"`
		} `json:"songs"`
		HasMore bool `json:"hasMore"`
	} `json:"data"`
}

// SongDetail is the access record for one scraped song. AudioParams is the
// opaque capability token (lk/mh/mr/hs) the backend needs to mint a
// time-limited audio URL; its internals are not interpreted here.
type SongDetail struct {
	SongID       string            `json:"songId"`
	Title        string            `json:"title"`
	HTMLFileName string            `json:"htmlFileName"`
	AudioParams  map[string]string `json:"audioParams"`
}

func (s *BigAz) Search(ctx context.Context, q Query) (*Page, error) {
	if !s.Configured() {
		return nil, s.configError()
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return &Page{}, nil
	}

	params := url.Values{}
	params.Set("query", text)

	var br bigazSearchResponse
	if err := s.getJSON(ctx, "/api/bigaz/search?"+params.Encode(), &br); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(br.Data.Songs))
	for _, song := range br.Data.Songs {
		if song.ID == "" {
			continue
		}

		artist := song.Artist
		if artist == "" {
			artist = "Unknown Artist"
		}

		items = append(items, models.Item{
			ID:     song.ID,
			Source: models.SourceScraped,
			Title:  song.Title,
			Artist: artist,
			Scraped: &models.ScrapedMeta{
				HTMLFileName: song.HTMLFileName,
			},
		})
	}

	return &Page{
		Items:      items,
		TotalCount: len(items),
		HasMore:    br.Data.HasMore,
	}, nil
}

// Song fetches the detail/access-parameter record for a song page.
func (s *BigAz) Song(ctx context.Context, htmlFileName string) (*SongDetail, error) {
	if !s.Configured() {
		return nil, s.configError()
	}
	if htmlFileName == "" {
		return nil, &BadRequestError{Source: s.Name(), Detail: "html file name required"}
	}

	var resp struct {
		Data SongDetail `json:"data"`
	}
	if err := s.getJSON(ctx, "/api/bigaz/song/"+url.PathEscape(htmlFileName), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AudioURL resolves the time-limited audio URL for a song id, passing the
// opaque access parameters back to the backend verbatim.
func (s *BigAz) AudioURL(ctx context.Context, songID string, audioParams map[string]string) (string, error) {
	if !s.Configured() {
		return "", s.configError()
	}
	if songID == "" {
		return "", &BadRequestError{Source: s.Name(), Detail: "song id required"}
	}

	params := url.Values{}
	for k, v := range audioParams {
		params.Set(k, v)
	}

	path := "/api/bigaz/audio/" + url.PathEscape(songID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Data struct {
			AudioURL string `json:"audioUrl"`
		} `json:"data"`
	}
	if err := s.getJSON(ctx, path, &resp); err != nil {
		return "", err
	}
	if resp.Data.AudioURL == "" {
		return "", &NotFoundError{Source: s.Name(), ID: songID}
	}
	return resp.Data.AudioURL, nil
}

func (s *BigAz) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("bigaz: build request: %w", err)
	}
	req.Header.Set("x-api-key", s.APIKey)

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
		return fmt.Errorf("bigaz: decode: %w", err)
	}
	return nil
}
