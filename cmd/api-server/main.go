package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tunecrate/internal/bridge"
	"tunecrate/internal/cart"
	"tunecrate/internal/download"
	"tunecrate/internal/history"
	"tunecrate/internal/progress"
	"tunecrate/internal/search"
	"tunecrate/internal/sources"
	"tunecrate/pkg/database"
	"tunecrate/pkg/utils"
)

func main() {
	appCfg := utils.LoadAppConfig()

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Event hub first (so you notice binding errors early)
	hub := progress.NewHub()
	router.GET("/ws", progress.WSHandler(hub))
	tcpSrv := progress.NewServer(appCfg.EventsAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          dbCfg.Path,
			"spool":       appCfg.SpoolDir,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Source adapters. The MusicBrainz limiter is built once here so the
	// 1 req/s spacing holds across everything in the process.
	jamendo := sources.NewJamendo(appCfg.JamendoClientID)
	youtube := sources.NewYouTube(appCfg.YouTubeAPIKey)
	musicbrainz := sources.NewMusicBrainz(sources.NewMusicBrainzLimiter(time.Second))
	bigaz := sources.NewBigAz(appCfg.BackendURL, appCfg.BackendAPIKey)

	// Search sessions
	searchMgr := search.NewManager(jamendo, youtube, musicbrainz, bigaz)
	searchHandler := search.NewHandler(searchMgr, youtube)
	searchHandler.RegisterRoutes(router.Group("/search"))

	// Cart
	selection := cart.New()
	cartHandler := cart.NewHandler(selection, hub)
	cartHandler.RegisterRoutes(router.Group("/cart"))

	// Cross-search bridge
	bridgeHandler := bridge.NewHandler(searchMgr)
	bridgeHandler.RegisterRoutes(router.Group("/bridge"))

	// Downloads
	historyRepo := history.NewRepo(db)
	fetcher := download.NewFetcher(bigaz, appCfg.BackendURL, appCfg.BackendAPIKey)
	downloadMgr := download.NewManager(fetcher, appCfg.SpoolDir, historyRepo)
	// Synchronous on purpose: progress events for a job must reach
	// clients in emit order, so no goroutine per event here.
	downloadMgr.Emit = func(ev progress.DownloadEvent) { hub.BroadcastJSON(ev) }
	downloadHandler := download.NewHandler(downloadMgr, selection)
	downloadHandler.RegisterRoutes(router.Group("/downloads"))

	// History
	historyHandler := history.NewHandler(historyRepo)
	historyHandler.RegisterRoutes(router.Group("/history"))

	httpSrv := &http.Server{
		Addr:    appCfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", appCfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
