package user

import (
	"context"
	"net/http"

	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/orders"
	"pisos_storefront/internal/services/backend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderSource interface {
	MyOrders(ctx context.Context, token string) ([]models.Order, error)
}

type OrderHandler struct {
	orders OrderSource
	log    *zap.Logger
}

func NewOrderHandler(src OrderSource, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: src, log: log}
}

func (h *OrderHandler) fetch(c *gin.Context) ([]models.Order, bool) {
	list, err := h.orders.MyOrders(c.Request.Context(), middleware.Token(c))
	if err != nil {
		if backend.StatusOf(err) == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sessão expirada, faça login novamente"})
			return nil, false
		}
		h.log.Error("orders fetch failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"orders": []orders.Tracking{}, "error": "Não foi possível carregar seus pedidos"})
		return nil, false
	}
	return list, true
}

// GET /api/orders/me
func (h *OrderHandler) Mine(c *gin.Context) {
	list, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders.TrackAll(list), "stages": models.OrderStatuses})
}

// GET /api/orders/me/:id
func (h *OrderHandler) MineByID(c *gin.Context) {
	list, ok := h.fetch(c)
	if !ok {
		return
	}
	id := c.Param("id")
	for _, o := range list {
		if o.ID == id {
			c.JSON(http.StatusOK, orders.Track(o))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Pedido não encontrado"})
}
