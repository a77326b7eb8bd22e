package bridge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tunecrate/internal/search"
	"tunecrate/pkg/models"
)

type Handler struct {
	Search *search.Manager
}

func NewHandler(manager *search.Manager) *Handler {
	return &Handler{Search: manager}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/video-search", h.videoSearch)
}

type videoSearchReq struct {
	Item models.Item `json:"item"`
}

// videoSearch seeds the video session's query with the bridged string and
// starts the search immediately. Seeding happens exactly once per request;
// it does not install any recurring trigger.
func (h *Handler) videoSearch(c *gin.Context) {
	var req videoSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	query := VideoQuery(req.Item)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item has no usable title"})
		return
	}

	s, ok := h.Search.Session(models.SourceVideo)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "video session unavailable"})
		return
	}
	s.SearchNow(query)

	c.JSON(http.StatusAccepted, gin.H{"query": query})
}
