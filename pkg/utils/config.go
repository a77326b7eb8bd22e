package utils

import (
	"os"
	"path/filepath"
)

// AppConfig holds every external credential and location, read once at
// startup. Missing source credentials are not fatal here: each adapter
// reports its own ConfigError when it is actually used, so one
// unconfigured source never blocks the others.
type AppConfig struct {
	ListenAddr string
	EventsAddr string // TCP event stream for the fetch CLI
	SpoolDir   string // where finished downloads and archives land

	JamendoClientID string
	YouTubeAPIKey   string

	// Shared download backend: proxies the scraped site and extracts
	// audio for video items.
	BackendURL    string
	BackendAPIKey string
}

func LoadAppConfig() AppConfig {
	cfg := AppConfig{
		ListenAddr:      getenv("TUNECRATE_LISTEN_ADDR", ":8080"),
		EventsAddr:      getenv("TUNECRATE_EVENTS_ADDR", ":7070"),
		JamendoClientID: os.Getenv("TUNECRATE_JAMENDO_CLIENT_ID"),
		YouTubeAPIKey:   os.Getenv("TUNECRATE_YOUTUBE_API_KEY"),
		BackendURL:      os.Getenv("TUNECRATE_BACKEND_URL"),
		BackendAPIKey:   os.Getenv("TUNECRATE_BACKEND_API_KEY"),
	}

	cfg.SpoolDir = os.Getenv("TUNECRATE_SPOOL_DIR")
	if cfg.SpoolDir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		cfg.SpoolDir = filepath.Join(home, ".tunecrate", "downloads")
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
