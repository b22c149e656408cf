package product

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/search"
	"pisos_storefront/internal/services/backend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog is the remote product and banner service.
type Catalog interface {
	Products(ctx context.Context, q search.Query) (models.ProductPage, error)
	Product(ctx context.Context, id string) (models.Product, error)
	Banners(ctx context.Context) ([]models.Banner, error)
}

type Handler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewHandler(catalog Catalog, log *zap.Logger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

type listResponse struct {
	Products   []CardView     `json:"products"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Filters    search.Filters `json:"filters"`
	Error      string         `json:"error,omitempty"`
}

// filtersFromQuery reads q, brand, min_price and max_price.
func filtersFromQuery(c *gin.Context) (search.Filters, error) {
	var f search.Filters
	f.SetTerm(c.Query("q"))
	f.SelectBrand(c.Query("brand"))

	min, err := search.ParsePrice(c.Query("min_price"))
	if err != nil {
		return f, err
	}
	max, err := search.ParsePrice(c.Query("max_price"))
	if err != nil {
		return f, err
	}
	if min != nil || max != nil {
		if err := f.SetPriceRange(min, max); err != nil {
			return f, err
		}
	}
	return f, nil
}

// GET /api/products
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	requested, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtro de preço inválido"})
		return
	}

	saved, err := middleware.Storage(c).Filters(ctx)
	if err != nil {
		h.log.Warn("saved filters unavailable", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
	}
	filters := saved.Merge(requested)
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtro de preço inválido"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	q := filters.Query(page)

	result, err := h.catalog.Products(ctx, q)
	if err != nil {
		h.log.Error("product listing failed", zap.String("search", q.Text), zap.Int("page", q.Page), zap.Error(err))
		c.JSON(http.StatusBadGateway, listResponse{
			Products: []CardView{},
			Page:     q.Page,
			Filters:  filters,
			Error:    "Não foi possível carregar os produtos",
		})
		return
	}

	if result.Page == 0 {
		result.Page = q.Page
	}
	c.JSON(http.StatusOK, listResponse{
		Products:   Cards(result.Products),
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Filters:    filters,
	})
}

// GET /api/products/:id?boxes=N
func (h *Handler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	boxes, _ := strconv.Atoi(c.DefaultQuery("boxes", "1"))

	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		if backend.StatusOf(err) == http.StatusNotFound || errors.Is(err, models.ErrInvalidProduct) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produto não encontrado"})
			return
		}
		h.log.Error("product fetch failed", zap.String("product_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível carregar o produto"})
		return
	}

	c.JSON(http.StatusOK, NewCardView(p, boxes))
}

// GET /api/banners
func (h *Handler) Banners(c *gin.Context) {
	banners, err := h.catalog.Banners(c.Request.Context())
	if err != nil {
		h.log.Error("banner fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"banners": []models.Banner{}, "error": "Não foi possível carregar os banners"})
		return
	}
	if banners == nil {
		banners = []models.Banner{}
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}
