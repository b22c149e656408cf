package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/checkout"
	"pisos_storefront/internal/config"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	svc "pisos_storefront/internal/services/payment"
	"pisos_storefront/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sessionOpts = middleware.SessionOptions{Secret: []byte("test-secret"), TTL: time.Hour}

type fakeGateway struct {
	created   []models.CheckoutPayload
	createErr error
	intent    *svc.Intent
	event     *svc.WebhookEvent
	parseErr  error
}

func (f *fakeGateway) CreateIntent(_ context.Context, sid string, p models.CheckoutPayload) (*svc.Intent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return &svc.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Metadata: map[string]string{"session_id": sid}}, nil
}

func (f *fakeGateway) Intent(_ context.Context, id string) (*svc.Intent, error) {
	if f.intent == nil {
		return nil, svc.ErrIntentNotFound
	}
	return f.intent, nil
}

func (f *fakeGateway) ParseWebhook([]byte, string) (*svc.WebhookEvent, error) {
	return f.event, f.parseErr
}

type fakeShipping struct {
	opts []models.FreightOption
	err  error
}

func (f *fakeShipping) CalculateShipping(context.Context, models.ShippingRequest) ([]models.FreightOption, error) {
	return f.opts, f.err
}

type testEnv struct {
	router   *gin.Engine
	store    *cache.Store
	gateway  *fakeGateway
	shipping *fakeShipping
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		store:    cache.NewStore(client, time.Hour, nil),
		gateway: &fakeGateway{},
		shipping: &fakeShipping{opts: []models.FreightOption{
			{ID: "1", Name: "PAC", Price: decimal.RequireFromString("15.50"), DeliveryTime: 6},
		}},
	}
	box := config.ShippingConfig{CepOrigem: "01001000", Height: 10, Width: 60, Length: 60, Weight: 22.5}
	h := NewHandler(checkout.NewOrchestrator(env.shipping, box, nil), env.gateway, env.store, zap.NewNop())

	r := gin.New()
	r.POST("/api/payment/webhook", h.Webhook)
	api := r.Group("/api", middleware.Session(env.store, sessionOpts, zap.NewNop()))
	api.POST("/checkout", h.Checkout)
	api.POST("/checkout/freight", h.Freight)
	api.POST("/payment", h.Pay)
	api.GET("/payment/result", h.Result)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, sid, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := utils.GenerateSessionJWT(sessionOpts.Secret, sid, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tok})
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) fillCart(t *testing.T, sid string) {
	t.Helper()
	c := cart.New([]models.CartItem{{ID: "p1", Name: "Porcelanato", Price: decimal.RequireFromString("50.00"), Quantity: 2}})
	require.NoError(t, e.store.Session(sid).SaveCart(context.Background(), c))
}

// quote asks for freight so the session holds the options checkout accepts.
func (e *testEnv) quote(t *testing.T, sid string) {
	t.Helper()
	require.Equal(t, http.StatusOK, e.do(t, sid, http.MethodPost, "/api/checkout/freight", `{"cep":"01310-100"}`).Code)
}

const freightBody = `{"freight":{"id":"1","name":"PAC","price":"15.50","delivery_time":6}}`

func TestCheckout_StoresPayload(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")
	env.quote(t, "s1")

	w := env.do(t, "s1", http.MethodPost, "/api/checkout", freightBody)
	require.Equal(t, http.StatusOK, w.Code)

	var handoff checkout.Handoff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &handoff))
	assert.Equal(t, "/api/payment", handoff.Next)
	assert.Equal(t, "115.50", handoff.Payload.TotalPrice)

	var stored models.CheckoutPayload
	require.NoError(t, env.store.Session("s1").GetJSON(context.Background(), cache.KeyCheckout, &stored))
	assert.Equal(t, "115.50", stored.TotalPrice)

	ct, err := env.store.Session("s1").Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ct.Len(), "cart survives checkout")
}

func TestCheckout_Preconditions(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout", freightBody).Code, "empty cart")

	env.fillCart(t, "s1")
	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout", `{}`).Code, "no freight")

	_, err := env.store.Session("s1").Get(context.Background(), cache.KeyCheckout)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCheckout_RejectsUnquotedFreight(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")

	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout", freightBody).Code, "nothing quoted")

	env.quote(t, "s1")
	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout", `{"freight":{}}`).Code, "empty option")
	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout", `{"freight_id":"9"}`).Code, "unknown option")

	_, err := env.store.Session("s1").Get(context.Background(), cache.KeyCheckout)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCheckout_FreightPriceComesFromQuote(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")
	env.quote(t, "s1")

	w := env.do(t, "s1", http.MethodPost, "/api/checkout", `{"freight":{"id":"1","name":"PAC","price":"-99.00"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.CheckoutPayload
	require.NoError(t, env.store.Session("s1").GetJSON(context.Background(), cache.KeyCheckout, &stored))
	assert.Equal(t, "115.50", stored.TotalPrice)
	require.NotNil(t, stored.Freight)
	assert.True(t, stored.Freight.Price.Equal(decimal.RequireFromString("15.50")))
}

func TestCheckout_CartChangedAfterQuote(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")
	env.quote(t, "s1")

	c := cart.New([]models.CartItem{{ID: "p1", Name: "Porcelanato", Price: decimal.RequireFromString("50.00"), Quantity: 9}})
	require.NoError(t, env.store.Session("s1").SaveCart(context.Background(), c))

	assert.Equal(t, http.StatusConflict, env.do(t, "s1", http.MethodPost, "/api/checkout", `{"freight_id":"1"}`).Code)
}

func TestFreight(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout/freight", `{"cep":"01310-100"}`).Code, "empty cart")

	env.fillCart(t, "s1")
	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodPost, "/api/checkout/freight", `{"cep":"12"}`).Code)

	w := env.do(t, "s1", http.MethodPost, "/api/checkout/freight", `{"cep":"01310-100"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"PAC"`)

	env.shipping.err = errors.New("timeout")
	assert.Equal(t, http.StatusBadGateway, env.do(t, "s1", http.MethodPost, "/api/checkout/freight", `{"cep":"01310100"}`).Code)
}

func TestPay_ConsumesPayload(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")

	assert.Equal(t, http.StatusConflict, env.do(t, "s1", http.MethodPost, "/api/payment", "").Code)

	env.quote(t, "s1")
	require.Equal(t, http.StatusOK, env.do(t, "s1", http.MethodPost, "/api/checkout", freightBody).Code)
	w := env.do(t, "s1", http.MethodPost, "/api/payment", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clientSecret":"pi_1_secret"`)
	require.Len(t, env.gateway.created, 1)
	assert.True(t, env.gateway.created[0].Amount.Equal(decimal.RequireFromString("115.50")))

	_, err := env.store.Session("s1").Get(context.Background(), cache.KeyCheckout)
	assert.ErrorIs(t, err, cache.ErrNotFound)
	assert.Equal(t, http.StatusConflict, env.do(t, "s1", http.MethodPost, "/api/payment", "").Code)
}

func TestPay_GatewayFailureKeepsPayload(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")
	env.gateway.createErr = errors.New("stripe down")

	env.quote(t, "s1")
	require.Equal(t, http.StatusOK, env.do(t, "s1", http.MethodPost, "/api/checkout", freightBody).Code)
	assert.Equal(t, http.StatusBadGateway, env.do(t, "s1", http.MethodPost, "/api/payment", "").Code)

	_, err := env.store.Session("s1").Get(context.Background(), cache.KeyCheckout)
	assert.NoError(t, err)
}

func TestResult(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "s1", http.MethodGet, "/api/payment/result", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "s1", http.MethodGet, "/api/payment/result?payment_intent=pi_x", "").Code)

	env.gateway.intent = &svc.Intent{ID: "pi_1", Status: "succeeded", Amount: 11550, Currency: "brl", Metadata: map[string]string{"session_id": "s1"}}
	w := env.do(t, "s1", http.MethodGet, "/api/payment/result?payment_intent=pi_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"115.50"`)
	assert.Contains(t, w.Body.String(), `"paid":true`)

	assert.Equal(t, http.StatusNotFound, env.do(t, "s2", http.MethodGet, "/api/payment/result?payment_intent=pi_1", "").Code,
		"another session cannot read the intent")
}

func TestWebhook_ClearsCartOnSuccess(t *testing.T) {
	env := setupTestEnv(t)
	env.fillCart(t, "s1")
	env.gateway.event = &svc.WebhookEvent{ID: "evt_1", Type: "payment_intent.created",
		Intent: &svc.Intent{ID: "pi_1", Metadata: map[string]string{"session_id": "s1"}}}

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, post())
	ct, err := env.store.Session("s1").Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ct.Len(), "other events leave the cart alone")

	env.gateway.event.Type = svc.EventSucceeded
	require.Equal(t, http.StatusOK, post())
	ct, err = env.store.Session("s1").Cart(context.Background())
	require.NoError(t, err)
	assert.True(t, ct.IsEmpty())

	env.gateway.parseErr = svc.ErrInvalidSignature
	assert.Equal(t, http.StatusBadRequest, post())
}
