package admin

import (
	"errors"
	"net/http"
	"strings"

	"pisos_storefront/internal/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageBytes = 10 << 20

// POST /api/admin/products/images (multipart: product_id, file)
func (h *Handler) UploadImage(c *gin.Context) {
	productID := strings.TrimSpace(c.PostForm("product_id"))
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "O campo 'product_id' é obrigatório"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nenhum arquivo recebido"})
		return
	}
	if fh.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo vazio"})
		return
	}
	if fh.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Arquivo maior que 10MB"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Apenas imagens são aceitas"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao abrir o arquivo"})
		return
	}
	defer f.Close()

	img, err := h.images.Upload(c.Request.Context(), productID, fh.Filename, contentType, f, fh.Size)
	switch {
	case errors.Is(err, storage.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo vazio"})
		return
	case errors.Is(err, storage.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Upload de imagens desativado"})
		return
	case err != nil:
		h.log.Error("image upload failed", zap.String("product_id", productID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erro ao enviar a imagem"})
		return
	}

	c.JSON(http.StatusCreated, img)
}
