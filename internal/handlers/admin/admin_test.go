package admin

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/services/backend"
	"pisos_storefront/internal/services/storage"
	"pisos_storefront/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sessionOpts = middleware.SessionOptions{Secret: []byte("test-secret"), TTL: time.Hour}

type fakeOrders struct {
	list      []models.Order
	updatedID string
	updatedTo models.OrderStatus
	err       error
}

func (f *fakeOrders) Orders(context.Context, string) ([]models.Order, error) {
	return f.list, f.err
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, _ string, id string, status models.OrderStatus) (models.Order, error) {
	if f.err != nil {
		return models.Order{}, f.err
	}
	f.updatedID, f.updatedTo = id, status
	return models.Order{ID: id, Status: status}, nil
}

type fakeUploader struct {
	calls int
	body  []byte
}

func (f *fakeUploader) Upload(_ context.Context, productID, filename, _ string, r io.Reader, size int64) (*storage.Image, error) {
	f.calls++
	if size == 0 {
		return nil, storage.ErrEmptyFile
	}
	f.body, _ = io.ReadAll(r)
	return &storage.Image{ProductID: productID, Object: "products/" + filename, Size: size}, nil
}

type testEnv struct {
	router   *gin.Engine
	store    *cache.Store
	orders   *fakeOrders
	uploader *fakeUploader
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		store:    cache.NewStore(client, time.Hour, nil),
		orders:   &fakeOrders{},
		uploader: &fakeUploader{},
	}
	log := zap.NewNop()
	h := NewHandler(env.orders, env.uploader, log)

	r := gin.New()
	admin := r.Group("/api/admin",
		middleware.Session(env.store, sessionOpts, log),
		middleware.AuthRequired(log),
		middleware.RequireAdmin)
	admin.GET("/orders", h.Orders)
	admin.PATCH("/orders/:id", h.UpdateOrderStatus)
	admin.POST("/products/images", h.UploadImage)
	env.router = r

	for sid, typ := range map[string]string{"admin": models.UserTypeAdmin, "customer": "customer"} {
		us := cache.NewUserStore(env.store.Session(sid), nil)
		require.NoError(t, us.Login(context.Background(), models.AuthResult{Token: "tok", UserID: sid, User: models.User{Name: sid, Type: typ}}))
	}
	return env
}

func (e *testEnv) send(t *testing.T, sid string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := utils.GenerateSessionJWT(sessionOpts.Secret, sid, time.Hour)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tok})
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func imageRequest(t *testing.T, productID string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if productID != "" {
		require.NoError(t, mw.WriteField("product_id", productID))
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="piso.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusForbidden, env.send(t, "customer", httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, env.send(t, "nobody", httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)).Code)
	assert.Equal(t, http.StatusOK, env.send(t, "admin", httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)).Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	env := setupTestEnv(t)

	w := env.send(t, "admin", jsonRequest(http.MethodPatch, "/api/admin/orders/o1", `{"status":"dispatched"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o1", env.orders.updatedID)
	assert.Equal(t, models.StatusDispatched, env.orders.updatedTo)
	assert.Contains(t, w.Body.String(), `"pipeline"`)

	w = env.send(t, "admin", jsonRequest(http.MethodPatch, "/api/admin/orders/o1", `{"status":"LOST"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.orders.err = &backend.Error{Status: http.StatusNotFound}
	w = env.send(t, "admin", jsonRequest(http.MethodPatch, "/api/admin/orders/o9", `{"status":"DELIVERED"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImage(t *testing.T) {
	env := setupTestEnv(t)

	w := env.send(t, "admin", imageRequest(t, "p1", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []byte("png-bytes"), env.uploader.body)
	assert.Contains(t, w.Body.String(), `"product_id":"p1"`)
}

func TestUploadImage_EmptyFileRejectedBeforeUpload(t *testing.T) {
	env := setupTestEnv(t)

	w := env.send(t, "admin", imageRequest(t, "p1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.uploader.calls)

	w = env.send(t, "admin", imageRequest(t, "", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.uploader.calls)
}
