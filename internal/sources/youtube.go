package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tunecrate/pkg/models"
)

const youtubeBase = "https://www.googleapis.com/youtube/v3"

// videoCategoryMusic is the YouTube category id for music content.
const videoCategoryMusic = "10"

// YouTube searches the video platform. Two round trips per search: the
// search endpoint only returns ids and snippets, so a second /videos call
// enriches duration and statistics. Pagination is an opaque next-page token.
type YouTube struct {
	BaseURL   string
	APIKey    string
	MusicOnly bool
	Client    *http.Client
}

func NewYouTube(apiKey string) *YouTube {
	return &YouTube{
		BaseURL:   youtubeBase,
		APIKey:    apiKey,
		MusicOnly: true,
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *YouTube) Name() string { return "youtube" }

type ytSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	ChannelID    string `json:"channelId"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   map[string]struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

type ytSearchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	PageInfo struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID             string    `json:"id"`
		Snippet        ytSnippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"` // ISO 8601, e.g. PT4M13S
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (s *YouTube) Search(ctx context.Context, q Query) (*Page, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, &ConfigError{Source: s.Name(), Settings: []string{"TUNECRATE_YOUTUBE_API_KEY"}}
	}
	if strings.TrimSpace(q.Text) == "" {
		return &Page{}, nil
	}

	limit := q.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	// Step 1: id + snippet search.
	params := url.Values{}
	params.Set("key", s.APIKey)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", q.Text)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("order", "relevance")
	if s.MusicOnly {
		params.Set("videoCategoryId", videoCategoryMusic)
	}
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}

	var sr ytSearchResponse
	if err := s.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, err
	}
	if len(sr.Items) == 0 {
		return &Page{TotalCount: sr.PageInfo.TotalResults}, nil
	}

	ids := make([]string, 0, len(sr.Items))
	for _, it := range sr.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}

	// Step 2: duration + statistics enrichment.
	dparams := url.Values{}
	dparams.Set("key", s.APIKey)
	dparams.Set("part", "contentDetails,statistics")
	dparams.Set("id", strings.Join(ids, ","))

	var dr ytVideosResponse
	if err := s.getJSON(ctx, "/videos", dparams, &dr); err != nil {
		return nil, err
	}

	type details struct {
		duration  int
		viewCount int64
		likeCount int64
	}
	byID := make(map[string]details, len(dr.Items))
	for _, it := range dr.Items {
		views, _ := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
		likes, _ := strconv.ParseInt(it.Statistics.LikeCount, 10, 64)
		byID[it.ID] = details{
			duration:  parseISODuration(it.ContentDetails.Duration),
			viewCount: views,
			likeCount: likes,
		}
	}

	items := make([]models.Item, 0, len(sr.Items))
	for _, it := range sr.Items {
		id := it.ID.VideoID
		if id == "" {
			continue
		}
		d := byID[id]
		items = append(items, videoItem(id, it.Snippet, d.duration, d.viewCount, d.likeCount))
	}

	return &Page{
		Items:         items,
		TotalCount:    sr.PageInfo.TotalResults,
		NextPageToken: sr.NextPageToken,
		HasMore:       sr.NextPageToken != "",
	}, nil
}

// Trending returns the chart-based most-popular music videos for a region.
// No query text, no pagination.
func (s *YouTube) Trending(ctx context.Context, region string, limit int) (*Page, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, &ConfigError{Source: s.Name(), Settings: []string{"TUNECRATE_YOUTUBE_API_KEY"}}
	}
	if region == "" {
		region = "US"
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	params := url.Values{}
	params.Set("key", s.APIKey)
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("chart", "mostPopular")
	params.Set("videoCategoryId", videoCategoryMusic)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("regionCode", region)

	var vr ytVideosResponse
	if err := s.getJSON(ctx, "/videos", params, &vr); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(vr.Items))
	for _, it := range vr.Items {
		if it.ID == "" {
			continue
		}
		views, _ := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
		likes, _ := strconv.ParseInt(it.Statistics.LikeCount, 10, 64)
		items = append(items, videoItem(it.ID, it.Snippet, parseISODuration(it.ContentDetails.Duration), views, likes))
	}

	return &Page{Items: items, TotalCount: vr.PageInfo.TotalResults}, nil
}

func (s *YouTube) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return &TransportError{Source: s.Name(), Err: err}
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// YouTube reports quota exhaustion as 403, not 429.
		if resp.StatusCode == http.StatusForbidden {
			return &RateLimitError{Source: s.Name(), Status: resp.StatusCode}
		}
		return classifyStatus(s.Name(), resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube: decode %s: %w", path, err)
	}
	return nil
}

func videoItem(id string, sn ytSnippet, duration int, views, likes int64) models.Item {
	return models.Item{
		ID:        id,
		Source:    models.SourceVideo,
		Title:     sn.Title,
		Artist:    sn.ChannelTitle,
		Duration:  duration,
		Thumbnail: pickThumbnail(sn, "medium", "default"),
		Image:     pickThumbnail(sn, "high", "medium", "default"),
		Video: &models.VideoMeta{
			Channel:     sn.ChannelTitle,
			ChannelID:   sn.ChannelID,
			ViewCount:   views,
			LikeCount:   likes,
			PublishedAt: sn.PublishedAt,
			WatchURL:    "https://www.youtube.com/watch?v=" + id,
		},
	}
}

func pickThumbnail(sn ytSnippet, sizes ...string) string {
	for _, size := range sizes {
		if t, ok := sn.Thumbnails[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO 8601 duration like "PT1H2M3S" to
// integer seconds. Unknown shapes map to 0.
func parseISODuration(iso string) int {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return h*3600 + min*60 + sec
}
