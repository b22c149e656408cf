package payment

import (
	"errors"
	"net/http"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	svc "pisos_storefront/internal/services/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxWebhookBytes = int64(65536)

// POST /api/payment consumes the stored checkout payload.
func (h *Handler) Pay(c *gin.Context) {
	ctx := c.Request.Context()
	storage := middleware.Storage(c)

	var payload models.CheckoutPayload
	err := storage.GetJSON(ctx, cache.KeyCheckout, &payload)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "Nenhuma compra pendente"})
		return
	case errors.Is(err, cache.ErrDecode):
		h.log.Warn("stored checkout unreadable, discarding", zap.String("session_id", storage.ID()), zap.Error(err))
		_ = storage.Delete(ctx, cache.KeyCheckout)
		c.JSON(http.StatusConflict, gin.H{"error": "Nenhuma compra pendente"})
		return
	case err != nil:
		h.log.Error("checkout read failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}

	intent, err := h.gateway.CreateIntent(ctx, storage.ID(), payload)
	if err != nil {
		if errors.Is(err, svc.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valor inválido"})
			return
		}
		h.log.Error("payment intent failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível iniciar o pagamento"})
		return
	}

	if err := storage.Delete(ctx, cache.KeyCheckout); err != nil {
		h.log.Warn("checkout payload not cleared", zap.String("session_id", storage.ID()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
		"totalPrice":   payload.TotalPrice,
	})
}

// GET /api/payment/result?payment_intent=
func (h *Handler) Result(c *gin.Context) {
	id := c.Query("payment_intent")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_intent obrigatório"})
		return
	}

	intent, err := h.gateway.Intent(c.Request.Context(), id)
	if errors.Is(err, svc.ErrIntentNotFound) || (err == nil && intent.SessionID() != middleware.SessionID(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pagamento não encontrado"})
		return
	}
	if err != nil {
		h.log.Error("payment lookup failed", zap.String("intent_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível consultar o pagamento"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId": intent.ID,
		"status":    intent.Status,
		"paid":      intent.Status == "succeeded",
		"amount":    cart.Format(decimal.New(intent.Amount, -2)),
		"currency":  intent.Currency,
	})
}

// POST /api/payment/webhook clears the buyer's cart once Stripe confirms
// the payment. Runs without a session cookie.
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falha ao ler o corpo"})
		return
	}

	ev, err := h.gateway.ParseWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Evento inválido"})
		return
	}

	h.log.Info("stripe event received", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
	if ev.Type != svc.EventSucceeded || ev.Intent == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	sid := ev.Intent.SessionID()
	if sid == "" {
		h.log.Warn("payment without session metadata", zap.String("intent_id", ev.Intent.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.store.Session(sid).Delete(c.Request.Context(), cache.KeyCart); err != nil {
		h.log.Error("cart not cleared after payment", zap.String("session_id", sid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha ao processar evento"})
		return
	}
	h.log.Info("cart cleared after payment", zap.String("session_id", sid), zap.String("intent_id", ev.Intent.ID))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
