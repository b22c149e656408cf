package payment

import (
	"errors"
	"net/http"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/checkout"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	svc "pisos_storefront/internal/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	orch    *checkout.Orchestrator
	gateway svc.Gateway
	store   *cache.Store
	log     *zap.Logger
}

func NewHandler(orch *checkout.Orchestrator, gateway svc.Gateway, store *cache.Store, log *zap.Logger) *Handler {
	return &Handler{orch: orch, gateway: gateway, store: store, log: log}
}

// checkoutRequest names the chosen freight option by id. The option body
// sent by older clients is accepted, but only its id is read.
type checkoutRequest struct {
	FreightID string `json:"freight_id"`
	Freight   *struct {
		ID string `json:"id"`
	} `json:"freight"`
}

func (r checkoutRequest) freightID() string {
	if r.FreightID == "" && r.Freight != nil {
		return r.Freight.ID
	}
	return r.FreightID
}

type freightRequest struct {
	CEP string `json:"cep" binding:"required"`
}

// POST /api/checkout/freight
func (h *Handler) Freight(c *gin.Context) {
	var req freightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe o CEP"})
		return
	}

	ct, err := middleware.Storage(c).Cart(c.Request.Context())
	if err != nil {
		h.log.Error("cart load failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Carrinho indisponível"})
		return
	}

	opts, err := h.orch.QuoteAndRemember(c.Request.Context(), middleware.Storage(c), req.CEP, ct)
	switch {
	case errors.Is(err, checkout.ErrInvalidCEP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "CEP inválido"})
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seu carrinho está vazio"})
		return
	case errors.Is(err, checkout.ErrFreightUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível calcular o frete"})
		return
	case err != nil:
		h.log.Error("freight quote not stored", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}

	if opts == nil {
		opts = []models.FreightOption{}
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}

// POST /api/checkout stores the payload the payment step reads.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}

	ctx := c.Request.Context()
	storage := middleware.Storage(c)

	ct, err := storage.Cart(ctx)
	if err != nil {
		h.log.Error("cart load failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Carrinho indisponível"})
		return
	}
	userID, err := middleware.Users(c).UserID(ctx)
	if err != nil {
		h.log.Warn("user id unavailable", zap.String("session_id", storage.ID()), zap.Error(err))
	}

	var handoff checkout.Handoff
	freight, err := h.orch.Select(ctx, storage, ct, req.freightID())
	if err == nil {
		handoff, err = h.orch.Submit(ctx, storage, ct, freight, userID)
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, handoff)
	case errors.Is(err, checkout.ErrMissingShippingSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Selecione uma opção de frete"})
	case errors.Is(err, checkout.ErrStaleFreight):
		c.JSON(http.StatusConflict, gin.H{"error": "O carrinho mudou, calcule o frete novamente"})
	case errors.Is(err, checkout.ErrInvalidFreight):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Opção de frete inválida"})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seu carrinho está vazio"})
	default:
		h.log.Error("checkout failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Não foi possível finalizar a compra"})
	}
}
