package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderRecord struct {
	ID         flexString      `json:"id"`
	MongoID    flexString      `json:"_id"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"createdAt"`
	Products   []struct {
		ProductID flexString      `json:"productId"`
		Title     string          `json:"title"`
		Name      string          `json:"name"`
		Quantity  flexInt         `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	} `json:"products"`
}

func (r orderRecord) toOrder() models.Order {
	id := string(r.ID)
	if id == "" {
		id = string(r.MongoID)
	}
	o := models.Order{
		ID:         id,
		TotalPrice: r.TotalPrice,
		Status:     models.OrderStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		Products:   make([]models.OrderProduct, 0, len(r.Products)),
	}
	for _, p := range r.Products {
		title := p.Title
		if title == "" {
			title = p.Name
		}
		o.Products = append(o.Products, models.OrderProduct{
			ProductID: string(p.ProductID),
			Title:     title,
			Quantity:  int(p.Quantity),
			UnitPrice: p.UnitPrice,
		})
	}
	return o
}

func (c *Client) decodeOrders(raw json.RawMessage, path string) ([]models.Order, error) {
	list, err := decodeList(raw, "orders", "data")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]models.Order, 0, len(list))
	for _, item := range list {
		var rec orderRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			c.log.Warn("dropping undecodable order", zap.Error(err))
			continue
		}
		o := rec.toOrder()
		if err := o.Validate(); err != nil {
			c.log.Warn("dropping invalid order", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// MyOrders lists the orders of the user owning token.
func (c *Client) MyOrders(ctx context.Context, token string) ([]models.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/me", header: authed(token)}, &raw); err != nil {
		return nil, err
	}
	return c.decodeOrders(raw, "/orders/me")
}

// Orders lists every order (admin token).
func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders", header: authed(token)}, &raw); err != nil {
		return nil, err
	}
	return c.decodeOrders(raw, "/orders")
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status models.OrderStatus) (models.Order, error) {
	var rec orderRecord
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/orders/" + url.PathEscape(id),
		header: authed(token),
		body:   map[string]string{"status": string(status)},
	}, &rec)
	if err != nil {
		return models.Order{}, err
	}

	o := rec.toOrder()
	if o.ID == "" {
		// some deployments answer with an empty body or a bare message
		o.ID = id
		o.Status = status
	}
	return o, nil
}
