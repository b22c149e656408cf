package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"pisos_storefront/internal/models"
	"pisos_storefront/internal/search"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productRecord struct {
	ID          flexString      `json:"id"`
	MongoID     flexString      `json:"_id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CategoryID  flexString      `json:"category_id"`
	Images      json.RawMessage `json:"images"`
	Stock       flexInt         `json:"stock"`
	BoxArea     decimal.Decimal `json:"box_area"`
}

func (c *Client) toProduct(r productRecord) (models.Product, error) {
	id := string(r.ID)
	if id == "" {
		id = string(r.MongoID)
	}
	images, err := parseImages(r.Images)
	if err != nil {
		c.log.Warn("product images unreadable, using none", zap.String("product_id", id), zap.Error(err))
		images = nil
	}
	p := models.Product{
		ID:          id,
		Name:        r.Name,
		Brand:       r.Brand,
		Price:       r.Price,
		Description: r.Description,
		CategoryID:  string(r.CategoryID),
		Images:      images,
		Stock:       int(r.Stock),
		BoxArea:     r.BoxArea,
	}
	return p, p.Validate()
}

func (c *Client) decodeProducts(list []json.RawMessage) []models.Product {
	out := make([]models.Product, 0, len(list))
	for _, raw := range list {
		var rec productRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.log.Warn("dropping undecodable product", zap.Error(err))
			continue
		}
		p, err := c.toProduct(rec)
		if err != nil {
			c.log.Warn("dropping invalid product", zap.String("product_id", p.ID), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

// Products fetches one page of the catalog for q.
func (c *Client) Products(ctx context.Context, q search.Query) (models.ProductPage, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: q.Values()}, &raw)
	if err != nil {
		return models.ProductPage{}, err
	}

	list, err := decodeList(raw, "products", "data", "items")
	if err != nil {
		return models.ProductPage{}, fmt.Errorf("decode /products: %w", err)
	}

	page := models.ProductPage{Products: c.decodeProducts(list), Page: q.Page, TotalPages: 1}
	var meta struct {
		Page       flexInt `json:"page"`
		TotalPages flexInt `json:"totalPages"`
	}
	if json.Unmarshal(raw, &meta) == nil {
		if meta.Page > 0 {
			page.Page = int(meta.Page)
		}
		if meta.TotalPages > 0 {
			page.TotalPages = int(meta.TotalPages)
		}
	}
	return page, nil
}

func (c *Client) Product(ctx context.Context, id string) (models.Product, error) {
	var rec productRecord
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}, &rec); err != nil {
		return models.Product{}, err
	}
	p, err := c.toProduct(rec)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	return p, nil
}

func (c *Client) Banners(ctx context.Context) ([]models.Banner, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/banners"}, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList(raw, "banners", "data")
	if err != nil {
		return nil, fmt.Errorf("decode /banners: %w", err)
	}

	out := make([]models.Banner, 0, len(list))
	for _, item := range list {
		var rec struct {
			ID      flexString      `json:"id"`
			MongoID flexString      `json:"_id"`
			Title   string          `json:"title"`
			Image   json.RawMessage `json:"image"`
			Link    string          `json:"link"`
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			c.log.Warn("dropping undecodable banner", zap.Error(err))
			continue
		}
		images, err := parseImages(rec.Image)
		if err != nil || len(images) == 0 {
			c.log.Warn("dropping banner without image", zap.String("banner_id", string(rec.ID)), zap.Error(err))
			continue
		}
		id := string(rec.ID)
		if id == "" {
			id = string(rec.MongoID)
		}
		out = append(out, models.Banner{ID: id, Title: rec.Title, Image: images[0], Link: rec.Link})
	}
	return out, nil
}
