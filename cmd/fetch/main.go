package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tunecrate/internal/download"
	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
	"tunecrate/pkg/utils"
)

// fetch is a one-shot downloader: search one source, grab everything the
// search returned, and leave the files (or a zip) in the output directory.
func main() {
	var (
		source  = flag.String("source", "catalog", "source to search: catalog, video, scraped")
		query   = flag.String("query", "", "search text (required)")
		limit   = flag.Int("limit", 10, "max results to download")
		outDir  = flag.String("out", ".", "output directory")
		archive = flag.Bool("zip", true, "bundle results into a single zip")
	)
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: fetch -source catalog -query \"piano\" [-limit 10] [-out dir]")
		os.Exit(2)
	}

	cfg := utils.LoadAppConfig()
	bigaz := sources.NewBigAz(cfg.BackendURL, cfg.BackendAPIKey)

	var searcher sources.Searcher
	switch models.Source(*source) {
	case models.SourceCatalog:
		searcher = sources.NewJamendo(cfg.JamendoClientID)
	case models.SourceVideo:
		searcher = sources.NewYouTube(cfg.YouTubeAPIKey)
	case models.SourceScraped:
		searcher = bigaz
	default:
		log.Fatalf("source %q is not downloadable (use catalog, video or scraped)", *source)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	page, err := searcher.Search(ctx, sources.Query{Text: *query, Limit: *limit})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if len(page.Items) == 0 {
		log.Fatalf("no results for %q", *query)
	}

	items := page.Items
	if len(items) > *limit {
		items = items[:*limit]
	}
	log.Printf("downloading %d items from %s", len(items), searcher.Name())

	fetcher := download.NewFetcher(bigaz, cfg.BackendURL, cfg.BackendAPIKey)
	mgr := download.NewManager(fetcher, *outDir, nil)
	mgr.SuccessDelay = time.Hour // keep the terminal snapshot readable
	mgr.ErrorDelay = time.Hour

	if _, err := mgr.Start(items, *archive); err != nil {
		log.Fatalf("start download: %v", err)
	}

	for {
		snap := mgr.Snapshot()
		switch snap.Status {
		case models.JobComplete:
			if snap.Skipped > 0 {
				log.Printf("done with %d of %d items skipped", snap.Skipped, len(snap.Items))
			}
			log.Printf("✅ saved %s", snap.FileName)
			return
		case models.JobError:
			log.Fatalf("download failed: %s", snap.Error)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
