package download

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tunecrate/internal/cart"
	"tunecrate/pkg/models"
)

type Handler struct {
	Manager *Manager
	Cart    *cart.Cart
}

func NewHandler(manager *Manager, c *cart.Cart) *Handler {
	return &Handler{Manager: manager, Cart: c}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.status)
	rg.POST("", h.start)
	rg.POST("/cart", h.startCart)
	rg.POST("/dismiss", h.dismiss)
	rg.GET("/file", h.file)
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Manager.Snapshot())
}

type startReq struct {
	Items   []models.Item `json:"items"`
	Archive bool          `json:"archive"`
}

func (h *Handler) start(c *gin.Context) {
	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items required"})
		return
	}

	h.begin(c, req.Items, req.Archive)
}

// startCart downloads the whole selection set as a zip. The cart is read,
// never mutated, by the download side.
func (h *Handler) startCart(c *gin.Context) {
	items := h.Cart.Items()
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}

	h.begin(c, items, true)
}

func (h *Handler) begin(c *gin.Context, items []models.Item, archive bool) {
	snap, err := h.Manager.Start(items, archive)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, snap)
}

func (h *Handler) dismiss(c *gin.Context) {
	h.Manager.Dismiss()
	c.JSON(http.StatusOK, h.Manager.Snapshot())
}

// file streams the most recent finished output (single track or archive)
// with its download filename.
func (h *Handler) file(c *gin.Context) {
	path, name, ok := h.Manager.LastFile()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no finished download"})
		return
	}
	c.FileAttachment(path, name)
}
