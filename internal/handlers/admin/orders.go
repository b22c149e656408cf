package admin

import (
	"context"
	"io"
	"net/http"
	"strings"

	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/orders"
	"pisos_storefront/internal/services/backend"
	"pisos_storefront/internal/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderAdmin interface {
	Orders(ctx context.Context, token string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status models.OrderStatus) (models.Order, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, productID, filename, contentType string, r io.Reader, size int64) (*storage.Image, error)
}

type Handler struct {
	orders OrderAdmin
	images ImageUploader
	log    *zap.Logger
}

func NewHandler(orders OrderAdmin, images ImageUploader, log *zap.Logger) *Handler {
	return &Handler{orders: orders, images: images, log: log}
}

func (h *Handler) backendFailure(c *gin.Context, err error, msg string) {
	switch status := backend.StatusOf(err); status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.JSON(status, gin.H{"error": "Acesso negado pelo servidor"})
	case http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Pedido não encontrado"})
	default:
		h.log.Error(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Serviço de pedidos indisponível"})
	}
}

// GET /api/admin/orders
func (h *Handler) Orders(c *gin.Context) {
	list, err := h.orders.Orders(c.Request.Context(), middleware.Token(c))
	if err != nil {
		h.backendFailure(c, err, "admin orders fetch failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders.TrackAll(list), "statuses": models.OrderStatuses})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/admin/orders/:id
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status inválido", "valid_statuses": models.OrderStatuses})
		return
	}

	id := c.Param("id")
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), middleware.Token(c), id, status)
	if err != nil {
		h.backendFailure(c, err, "order status update failed")
		return
	}

	h.log.Info("order status updated", zap.String("order_id", id), zap.String("status", string(status)))
	c.JSON(http.StatusOK, orders.Track(order))
}
