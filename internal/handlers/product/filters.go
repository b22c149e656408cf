package product

import (
	"errors"
	"net/http"

	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/search"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type filtersRequest struct {
	Term     string `json:"term"`
	Brand    string `json:"brand"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

// GET /api/search/filters
func (h *Handler) GetFilters(c *gin.Context) {
	f, err := middleware.Storage(c).Filters(c.Request.Context())
	if err != nil {
		h.log.Error("filters read failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": f, "query": f.Query(1).Values().Encode()})
}

// PUT /api/search/filters replaces the whole filter state.
func (h *Handler) PutFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}

	var f search.Filters
	f.SetTerm(req.Term)
	f.SelectBrand(req.Brand)
	min, errMin := search.ParsePrice(req.MinPrice)
	max, errMax := search.ParsePrice(req.MaxPrice)
	if errMin != nil || errMax != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtro de preço inválido"})
		return
	}
	if err := f.SetPriceRange(min, max); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Preço mínimo maior que o máximo"})
		return
	}

	h.saveFilters(c, f)
}

// DELETE /api/search/filters/:dimension
func (h *Handler) ClearFilter(c *gin.Context) {
	storage := middleware.Storage(c)
	f, err := storage.Filters(c.Request.Context())
	if err != nil {
		h.log.Error("filters read failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}

	if err := f.Clear(search.Dimension(c.Param("dimension"))); errors.Is(err, search.ErrUnknownDimension) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtro desconhecido", "valid": []search.Dimension{
			search.DimensionTerm, search.DimensionBrand, search.DimensionPrice, search.DimensionAll,
		}})
		return
	}

	h.saveFilters(c, f)
}

func (h *Handler) saveFilters(c *gin.Context, f search.Filters) {
	storage := middleware.Storage(c)
	if err := storage.SaveFilters(c.Request.Context(), f); err != nil {
		h.log.Error("filters save failed", zap.String("session_id", storage.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": f, "query": f.Query(1).Values().Encode()})
}
