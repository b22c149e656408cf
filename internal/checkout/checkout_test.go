package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/config"
	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	values map[string]any
	err    error
}

func (m *memStorage) SetJSON(_ context.Context, key string, v any) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]any{}
	}
	m.values[key] = v
	return nil
}

func (m *memStorage) GetJSON(_ context.Context, key string, dest any) error {
	if m.err != nil {
		return m.err
	}
	v, ok := m.values[key]
	if !ok {
		return cache.ErrNotFound
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

type fakeShipping struct {
	calls int
	last  models.ShippingRequest
	opts  []models.FreightOption
	err   error
}

func (f *fakeShipping) CalculateShipping(_ context.Context, req models.ShippingRequest) ([]models.FreightOption, error) {
	f.calls++
	f.last = req
	return f.opts, f.err
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pac(p string) *models.FreightOption {
	return &models.FreightOption{ID: "1", Name: "PAC", Price: price(p)}
}

func testBox() config.ShippingConfig {
	return config.ShippingConfig{CepOrigem: "01001000", Height: 10, Width: 60, Length: 60, Weight: 22.5}
}

func TestBuildPayload_TotalIncludesFreight(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Name: "Porcelanato", Price: price("50.00"), Quantity: 2}}
	freight := &models.FreightOption{ID: "1", Name: "PAC", Price: price("15.50")}

	p, err := BuildPayload(items, freight, "u1")
	require.NoError(t, err)

	assert.Equal(t, "115.50", p.TotalPrice)
	assert.True(t, p.Amount.Equal(price("115.50")))
	assert.Equal(t, "u1", p.UserID)
	require.NotNil(t, p.Freight)
	assert.Equal(t, "PAC", p.Freight.Name)
}

func TestBuildPayload_Defaults(t *testing.T) {
	items := []models.CartItem{
		{ID: "p1", Name: "Laminado", Price: price("10"), Quantity: 1},
		{ID: "p2", Name: "Vinílico", Price: price("20"), Quantity: 3, Description: "Régua 1,2m", CategoryID: "vinil"},
	}

	p, err := BuildPayload(items, pac("0"), "")
	require.NoError(t, err)
	require.Len(t, p.Items, 2)

	assert.Equal(t, DefaultDescription, p.Items[0].Description)
	assert.Equal(t, DefaultCategoryID, p.Items[0].CategoryID)
	assert.Equal(t, "Régua 1,2m", p.Items[1].Description)
	assert.Equal(t, "vinil", p.Items[1].CategoryID)
	assert.Equal(t, "p2", p.Items[1].ProductID)
	assert.Equal(t, "Vinílico", p.Items[1].Title)
	assert.Equal(t, 3, p.Items[1].Quantity)
	assert.Equal(t, "70.00", p.TotalPrice)
}

func TestBuildPayload_RoundsHalfAwayFromZero(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Name: "x", Price: price("0.335"), Quantity: 1}}

	p, err := BuildPayload(items, pac("0"), "")
	require.NoError(t, err)
	assert.Equal(t, "0.34", p.TotalPrice)
}

func TestBuildPayload_RoundsOnlyTheFinalTotal(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Name: "x", Price: price("0.004"), Quantity: 1}}

	p, err := BuildPayload(items, pac("0.001"), "")
	require.NoError(t, err)
	assert.Equal(t, "0.01", p.TotalPrice)
}

func TestBuildPayload_Preconditions(t *testing.T) {
	items := []models.CartItem{{ID: "p1", Name: "x", Price: price("1"), Quantity: 1}}

	_, err := BuildPayload(items, nil, "u1")
	assert.ErrorIs(t, err, ErrMissingShippingSelection)

	_, err = BuildPayload(items, &models.FreightOption{}, "u1")
	assert.ErrorIs(t, err, ErrMissingShippingSelection, "zero-value option is not a selection")

	_, err = BuildPayload(items, &models.FreightOption{ID: "1", Price: price("10")}, "u1")
	assert.ErrorIs(t, err, ErrMissingShippingSelection)

	_, err = BuildPayload(items, pac("-99.00"), "u1")
	assert.ErrorIs(t, err, ErrInvalidFreight)

	_, err = BuildPayload(nil, pac("10"), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmit_PersistsPayload(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{}, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "x", Price: price("100.00"), Quantity: 1}})

	h, err := o.Submit(context.Background(), store, c, &models.FreightOption{ID: "2", Name: "Sedex", Price: price("15.50")}, "u1")
	require.NoError(t, err)

	assert.Equal(t, PaymentPath, h.Next)
	assert.Equal(t, "115.50", h.Payload.TotalPrice)
	assert.Equal(t, h.Payload, store.values[cache.KeyCheckout])
	assert.Equal(t, 1, c.Len(), "cart is not cleared at checkout")
}

func TestSubmit_LastWriteWins(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{}, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "x", Price: price("10"), Quantity: 1}})
	ctx := context.Background()

	_, err := o.Submit(ctx, store, c, pac("1"), "u1")
	require.NoError(t, err)
	_, err = o.Submit(ctx, store, c, pac("2"), "u1")
	require.NoError(t, err)

	stored := store.values[cache.KeyCheckout].(models.CheckoutPayload)
	assert.Equal(t, "12.00", stored.TotalPrice)
}

func TestSubmit_NoFreightPersistsNothing(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{}, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "x", Price: price("10"), Quantity: 1}})

	_, err := o.Submit(context.Background(), store, c, nil, "u1")
	assert.ErrorIs(t, err, ErrMissingShippingSelection)
	assert.Empty(t, store.values)
}

func TestSubmit_StorageFailure(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{}, testBox(), nil)
	store := &memStorage{err: errors.New("redis down")}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "x", Price: price("10"), Quantity: 1}})

	_, err := o.Submit(context.Background(), store, c, pac("5"), "u1")
	assert.Error(t, err)
}

func TestSubmit_NegativeFreightPersistsNothing(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{}, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "x", Price: price("100.00"), Quantity: 1}})

	_, err := o.Submit(context.Background(), store, c, pac("-99.00"), "u1")
	assert.ErrorIs(t, err, ErrInvalidFreight)
	assert.Empty(t, store.values)
}

func TestSelect_UsesQuotedOption(t *testing.T) {
	ship := &fakeShipping{opts: []models.FreightOption{
		{ID: "1", Name: "PAC", Price: price("30"), DeliveryTime: 8},
		{ID: "2", Name: "Sedex", Price: price("55"), DeliveryTime: 2},
	}}
	o := NewOrchestrator(ship, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "a", Price: price("10"), Quantity: 2}})
	ctx := context.Background()

	_, err := o.Select(ctx, store, c, "2")
	assert.ErrorIs(t, err, ErrMissingShippingSelection, "nothing quoted yet")

	_, err = o.QuoteAndRemember(ctx, store, "04538-133", c)
	require.NoError(t, err)

	opt, err := o.Select(ctx, store, c, "2")
	require.NoError(t, err)
	assert.Equal(t, "Sedex", opt.Name)
	assert.True(t, opt.Price.Equal(price("55")))

	_, err = o.Select(ctx, store, c, "")
	assert.ErrorIs(t, err, ErrMissingShippingSelection)
	_, err = o.Select(ctx, store, c, "9")
	assert.ErrorIs(t, err, ErrMissingShippingSelection)

	c.Increase("p1")
	_, err = o.Select(ctx, store, c, "2")
	assert.ErrorIs(t, err, ErrStaleFreight)

	_, err = o.Select(ctx, store, cart.New(nil), "2")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestQuoteAndRemember_FailureStoresNothing(t *testing.T) {
	o := NewOrchestrator(&fakeShipping{err: errors.New("timeout")}, testBox(), nil)
	store := &memStorage{}
	c := cart.New([]models.CartItem{{ID: "p1", Name: "a", Price: price("10"), Quantity: 1}})

	_, err := o.QuoteAndRemember(context.Background(), store, "04538133", c)
	assert.ErrorIs(t, err, ErrFreightUnavailable)
	assert.Empty(t, store.values)
}

func TestQuoteFreight_ScalesByBoxes(t *testing.T) {
	ship := &fakeShipping{opts: []models.FreightOption{{ID: "1", Name: "PAC", Price: price("30"), DeliveryTime: 5}}}
	o := NewOrchestrator(ship, testBox(), nil)
	c := cart.New([]models.CartItem{
		{ID: "p1", Name: "a", Price: price("10"), Quantity: 2},
		{ID: "p2", Name: "b", Price: price("10"), Quantity: 1},
	})

	opts, err := o.QuoteFreight(context.Background(), "04538-133", c)
	require.NoError(t, err)
	require.Len(t, opts, 1)

	assert.Equal(t, "04538133", ship.last.CepDestino)
	assert.Equal(t, "01001000", ship.last.CepOrigem)
	assert.InDelta(t, 67.5, ship.last.Weight, 0.001)
	assert.InDelta(t, 30.0, ship.last.Height, 0.001)
	assert.InDelta(t, 60.0, ship.last.Width, 0.001)
}

func TestQuoteFreight_FailureIsNotRetried(t *testing.T) {
	ship := &fakeShipping{err: errors.New("timeout")}
	o := NewOrchestrator(ship, testBox(), nil)
	c := cart.New([]models.CartItem{{ID: "p1", Name: "a", Price: price("10"), Quantity: 1}})

	_, err := o.QuoteFreight(context.Background(), "04538133", c)
	assert.ErrorIs(t, err, ErrFreightUnavailable)
	assert.Equal(t, 1, ship.calls)
	assert.Equal(t, 1, c.Len())
}

func TestQuoteFreight_Preconditions(t *testing.T) {
	ship := &fakeShipping{}
	o := NewOrchestrator(ship, testBox(), nil)

	_, err := o.QuoteFreight(context.Background(), "123", cart.New(nil))
	assert.ErrorIs(t, err, ErrInvalidCEP)

	_, err = o.QuoteFreight(context.Background(), "04538133", cart.New(nil))
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, ship.calls)
}

func TestNormalizeCEP(t *testing.T) {
	cep, err := NormalizeCEP(" 01310-100 ")
	require.NoError(t, err)
	assert.Equal(t, "01310100", cep)

	_, err = NormalizeCEP("0131a100")
	assert.ErrorIs(t, err, ErrInvalidCEP)
}
