package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
)

// Stage names reported while an item moves through the pipeline.
const (
	StageResolve = "resolve"
	StageFetch   = "fetch"
	StagePrepare = "prepare"
	StageArchive = "archive"
)

// Fetcher resolves one cart item to a fetchable URL and pulls its bytes.
//
// catalog items carry their own download URL; scraped items need the
// two-step detail-then-audio-URL resolve against the backend proxy; video
// items are proxied through the download backend's single authenticated
// endpoint. Encyclopedia entries are metadata only and never reach here
// through the orchestrator.
type Fetcher struct {
	BigAz         *sources.BigAz
	BackendURL    string
	BackendAPIKey string
	Client        *http.Client
}

func NewFetcher(bigaz *sources.BigAz, backendURL, backendAPIKey string) *Fetcher {
	return &Fetcher{
		BigAz:         bigaz,
		BackendURL:    strings.TrimRight(backendURL, "/"),
		BackendAPIKey: backendAPIKey,
		// No overall timeout; large audio transfers can run for minutes.
		Client: &http.Client{},
	}
}

// VideoBackendConfigured reports whether the video download backend is
// usable; without it video items are view-only.
func (f *Fetcher) VideoBackendConfigured() bool {
	return f.BackendURL != "" && f.BackendAPIKey != ""
}

// Fetch downloads the item's audio bytes. report is called as the item
// enters each stage; it may be nil.
func (f *Fetcher) Fetch(ctx context.Context, item models.Item, report func(stage string)) ([]byte, error) {
	stage := func(s string) {
		if report != nil {
			report(s)
		}
	}

	switch item.Source {
	case models.SourceCatalog:
		return f.fetchCatalog(ctx, item, stage)
	case models.SourceScraped:
		return f.fetchScraped(ctx, item, stage)
	case models.SourceVideo:
		return f.fetchVideo(ctx, item, stage)
	default:
		return nil, fmt.Errorf("download: %s items are not downloadable", item.Source)
	}
}

func (f *Fetcher) fetchCatalog(ctx context.Context, item models.Item, stage func(string)) ([]byte, error) {
	stage(StageResolve)

	if item.Catalog == nil {
		return nil, fmt.Errorf("download: catalog item %s has no catalog fields", item.ID)
	}
	dlURL := item.Catalog.AudioDownloadURL
	if dlURL == "" {
		dlURL = item.Catalog.AudioURL
	}
	if dlURL == "" {
		return nil, &sources.NotFoundError{Source: "jamendo", ID: item.ID}
	}

	stage(StageFetch)
	return f.get(ctx, dlURL, nil)
}

func (f *Fetcher) fetchScraped(ctx context.Context, item models.Item, stage func(string)) ([]byte, error) {
	stage(StageResolve)

	if item.Scraped == nil {
		return nil, fmt.Errorf("download: scraped item %s has no scraped fields", item.ID)
	}

	params := item.Scraped.AudioParams
	if len(params) == 0 && item.Scraped.HTMLFileName != "" {
		detail, err := f.BigAz.Song(ctx, item.Scraped.HTMLFileName)
		if err != nil {
			return nil, err
		}
		params = detail.AudioParams
	}

	audioURL, err := f.BigAz.AudioURL(ctx, item.ID, params)
	if err != nil {
		return nil, err
	}

	stage(StageFetch)
	// Time-limited external URL; no backend auth on the transfer itself.
	return f.get(ctx, audioURL, nil)
}

func (f *Fetcher) fetchVideo(ctx context.Context, item models.Item, stage func(string)) ([]byte, error) {
	if !f.VideoBackendConfigured() {
		return nil, &sources.ConfigError{
			Source:   "download-backend",
			Settings: []string{"TUNECRATE_BACKEND_URL", "TUNECRATE_BACKEND_API_KEY"},
		}
	}

	stage(StageResolve)

	params := url.Values{}
	params.Set("videoId", item.ID)
	params.Set("title", item.Title)

	stage(StageFetch)
	return f.get(ctx, f.BackendURL+"/api/download?"+params.Encode(), map[string]string{
		"x-api-key": f.BackendAPIKey,
	})
}

func (f *Fetcher) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &sources.TransportError{Source: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &sources.NotFoundError{Source: "download", ID: rawURL}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &sources.TransportError{
			Source: "download",
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &sources.TransportError{Source: "download", Err: err}
	}

	log.Printf("[download] fetched %d bytes in %s", len(data), time.Since(start).Round(time.Millisecond))
	return data, nil
}
