package cache

import (
	"context"
	"errors"

	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/search"

	"go.uber.org/zap"
)

// Cart loads the session cart. A missing cart is empty; a malformed one is
// logged and treated as empty.
func (s *SessionStorage) Cart(ctx context.Context) (*cart.Cart, error) {
	var items []models.CartItem
	err := s.GetJSON(ctx, KeyCart, &items)
	switch {
	case errors.Is(err, ErrNotFound):
		return cart.New(nil), nil
	case errors.Is(err, ErrDecode):
		s.store.log.Warn("stored cart unreadable, starting empty",
			zap.String("session_id", s.sid), zap.Error(err))
		return cart.New(nil), nil
	case err != nil:
		return nil, err
	}
	return cart.New(items), nil
}

func (s *SessionStorage) SaveCart(ctx context.Context, c *cart.Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, KeyCart)
	}
	return s.SetJSON(ctx, KeyCart, c.Items())
}

func (s *SessionStorage) Filters(ctx context.Context) (search.Filters, error) {
	var f search.Filters
	err := s.GetJSON(ctx, KeyFilters, &f)
	switch {
	case errors.Is(err, ErrNotFound):
		return search.Filters{}, nil
	case errors.Is(err, ErrDecode):
		s.store.log.Warn("stored filters unreadable, resetting", zap.String("session_id", s.sid), zap.Error(err))
		return search.Filters{}, nil
	case err != nil:
		return search.Filters{}, err
	}
	return f, nil
}

func (s *SessionStorage) SaveFilters(ctx context.Context, f search.Filters) error {
	if f.IsEmpty() {
		return s.Delete(ctx, KeyFilters)
	}
	return s.SetJSON(ctx, KeyFilters, f)
}
