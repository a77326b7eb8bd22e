package cart

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tunecrate/internal/progress"
	"tunecrate/pkg/models"
)

type Handler struct {
	Cart *Cart
	Hub  *progress.Hub
}

func NewHandler(cart *Cart, hub *progress.Hub) *Handler {
	return &Handler{Cart: cart, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("/items", h.add)
	rg.POST("/toggle", h.toggle)
	rg.DELETE("/items/:source/:id", h.remove)
	rg.DELETE("", h.clear)
}

func (h *Handler) list(c *gin.Context) {
	items := h.Cart.Items()
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

type addReq struct {
	Items []models.Item `json:"items"`
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items required"})
		return
	}
	for _, it := range req.Items {
		if it.ID == "" || it.Source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every item needs id and source"})
			return
		}
	}

	h.Cart.AddAll(req.Items)
	h.broadcast()
	c.JSON(http.StatusOK, gin.H{"count": h.Cart.Count()})
}

type toggleReq struct {
	Item models.Item `json:"item"`
}

func (h *Handler) toggle(c *gin.Context) {
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Item.ID == "" || req.Item.Source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item needs id and source"})
		return
	}

	selected := h.Cart.Toggle(req.Item)
	h.broadcast()
	c.JSON(http.StatusOK, gin.H{"selected": selected, "count": h.Cart.Count()})
}

func (h *Handler) remove(c *gin.Context) {
	key := models.ItemKey{
		Source: models.Source(strings.TrimSpace(c.Param("source"))),
		ID:     strings.TrimSpace(c.Param("id")),
	}
	if key.ID == "" || key.Source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and id required"})
		return
	}

	if !h.Cart.Remove(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in cart"})
		return
	}
	h.broadcast()
	c.JSON(http.StatusOK, gin.H{"message": "removed", "count": h.Cart.Count()})
}

func (h *Handler) clear(c *gin.Context) {
	h.Cart.Clear()
	h.broadcast()
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

func (h *Handler) broadcast() {
	if h.Hub == nil {
		return
	}
	ev := progress.CartEvent{
		Type:  progress.CartUpdateEvent,
		Count: h.Cart.Count(),
		At:    time.Now().UTC(),
	}
	go h.Hub.BroadcastJSON(ev)
}
