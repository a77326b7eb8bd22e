package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tunecrate/internal/sources"
	"tunecrate/pkg/models"
)

type Handler struct {
	Manager *Manager
	Video   *sources.YouTube // for the query-less trending chart
}

func NewHandler(manager *Manager, video *sources.YouTube) *Handler {
	return &Handler{Manager: manager, Video: video}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:source", h.snapshot)
	rg.PUT("/:source/query", h.setQuery)
	rg.POST("/:source/search", h.searchNow)
	rg.POST("/:source/more", h.loadMore)
	rg.POST("/:source/retry", h.retry)
	rg.POST("/:source/entity-type", h.setEntityType)
	rg.POST("/:source/trending", h.trending)
}

func (h *Handler) session(c *gin.Context) *Session {
	src := models.Source(strings.TrimSpace(c.Param("source")))
	s, ok := h.Manager.Session(src)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown source"})
		return nil
	}
	return s
}

func (h *Handler) snapshot(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

type queryReq struct {
	Query string `json:"query"`
}

func (h *Handler) setQuery(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	s.SetQuery(req.Query)
	c.JSON(http.StatusAccepted, s.Snapshot())
}

func (h *Handler) searchNow(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query required"})
		return
	}

	s.SearchNow(req.Query)
	c.JSON(http.StatusAccepted, s.Snapshot())
}

func (h *Handler) loadMore(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	s.LoadMore()
	c.JSON(http.StatusAccepted, s.Snapshot())
}

func (h *Handler) retry(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	s.Retry()
	c.JSON(http.StatusAccepted, s.Snapshot())
}

type entityTypeReq struct {
	EntityType string `json:"entity_type"`
}

func (h *Handler) setEntityType(c *gin.Context) {
	if c.Param("source") != string(models.SourceEncyclopedia) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity types only apply to the encyclopedia source"})
		return
	}
	s, _ := h.Manager.Session(models.SourceEncyclopedia)

	var req entityTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	switch t := models.EntityType(req.EntityType); t {
	case models.EntityRecording, models.EntityArtist, models.EntityRelease:
		s.SetEntityType(t)
		c.JSON(http.StatusAccepted, s.Snapshot())
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "entity_type must be one of: recording, artist, release",
		})
	}
}

type trendingReq struct {
	Region string `json:"region"`
}

func (h *Handler) trending(c *gin.Context) {
	if c.Param("source") != string(models.SourceVideo) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trending only applies to the video source"})
		return
	}
	s, _ := h.Manager.Session(models.SourceVideo)

	var req trendingReq
	_ = c.ShouldBindJSON(&req) // body optional, defaults to US

	s.LoadVia(func(ctx context.Context) (*sources.Page, error) {
		return h.Video.Trending(ctx, req.Region, 20)
	})
	c.JSON(http.StatusAccepted, s.Snapshot())
}
