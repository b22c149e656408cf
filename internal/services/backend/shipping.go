package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNoShippingToken = errors.New("shipping service returned no token")

type freightRecord struct {
	ID           flexString      `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime flexInt         `json:"delivery_time"`
	Error        string          `json:"error"`
}

func (c *Client) shippingToken(ctx context.Context) (string, error) {
	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/shipping/token"}, &resp); err != nil {
		return "", err
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	if resp.AccessToken != "" {
		return resp.AccessToken, nil
	}
	return "", ErrNoShippingToken
}

// CalculateShipping quotes freight options for one package. Options the
// carrier flagged as unavailable are dropped.
func (c *Client) CalculateShipping(ctx context.Context, req models.ShippingRequest) ([]models.FreightOption, error) {
	token, err := c.shippingToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("shipping token: %w", err)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)

	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPost, path: "/shipping/calculate", header: h, body: req}, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList(raw, "options", "data")
	if err != nil {
		return nil, fmt.Errorf("decode /shipping/calculate: %w", err)
	}

	out := make([]models.FreightOption, 0, len(list))
	for _, item := range list {
		var rec freightRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			c.log.Warn("dropping undecodable freight option", zap.Error(err))
			continue
		}
		if rec.Error != "" || rec.Name == "" || rec.Price.IsNegative() {
			continue
		}
		out = append(out, models.FreightOption{
			ID:           string(rec.ID),
			Name:         rec.Name,
			Price:        rec.Price,
			DeliveryTime: int(rec.DeliveryTime),
		})
	}
	return out, nil
}
