package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/services/backend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductSource resolves the catalog record behind a cart line.
type ProductSource interface {
	Product(ctx context.Context, id string) (models.Product, error)
}

type CartHandler struct {
	products ProductSource
	log      *zap.Logger
}

func NewCartHandler(products ProductSource, log *zap.Logger) *CartHandler {
	return &CartHandler{products: products, log: log}
}

type addItemRequest struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity"`
}

type cartResponse struct {
	Items    []models.CartItem `json:"items"`
	Subtotal string            `json:"subtotal"`
	Count    int               `json:"count"`
}

func cartView(c *cart.Cart) cartResponse {
	return cartResponse{Items: c.Items(), Subtotal: cart.Format(c.Subtotal()), Count: c.Count()}
}

func (h *CartHandler) load(c *gin.Context) (*cart.Cart, bool) {
	ct, err := middleware.Storage(c).Cart(c.Request.Context())
	if err != nil {
		h.log.Error("cart load failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Carrinho indisponível"})
		return nil, false
	}
	return ct, true
}

// mutate loads the cart, applies fn and saves the result.
func (h *CartHandler) mutate(c *gin.Context, fn func(*cart.Cart)) {
	ct, ok := h.load(c)
	if !ok {
		return
	}
	fn(ct)
	if err := middleware.Storage(c).SaveCart(c.Request.Context(), ct); err != nil {
		h.log.Error("cart save failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Carrinho indisponível"})
		return
	}
	c.JSON(http.StatusOK, cartView(ct))
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	ct, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartView(ct))
}

// POST /api/cart/items adds a product by id. Name, price and image come
// from the catalog; the client only picks the product and quantity.
func (h *CartHandler) Add(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Produto inválido"})
		return
	}
	id := strings.TrimSpace(req.ID)

	p, err := h.products.Product(c.Request.Context(), id)
	if err != nil {
		if backend.StatusOf(err) == http.StatusNotFound || errors.Is(err, models.ErrInvalidProduct) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produto não encontrado"})
			return
		}
		h.log.Error("product lookup failed", zap.String("product_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível carregar o produto"})
		return
	}

	item := models.CartItem{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    req.Quantity,
		Image:       p.FirstImage(),
		Description: p.Description,
		CategoryID:  p.CategoryID,
	}
	h.mutate(c, func(ct *cart.Cart) { ct.Add(item) })
}

// POST /api/cart/items/:id/increase
func (h *CartHandler) Increase(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, func(ct *cart.Cart) { ct.Increase(id) })
}

// POST /api/cart/items/:id/decrease
func (h *CartHandler) Decrease(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, func(ct *cart.Cart) { ct.Decrease(id) })
}

// DELETE /api/cart/items/:id
func (h *CartHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, func(ct *cart.Cart) { ct.Remove(id) })
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	h.mutate(c, func(ct *cart.Cart) { ct.Clear() })
}
