package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope[T any] struct {
	Data    T               `json:"data"`
	Warning string          `json:"warning"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type failingStore struct{}

func (failingStore) Save(context.Context, []byte) error   { return errors.New("disk full") }
func (failingStore) Load(context.Context) ([]byte, error) { return nil, models.ErrNoSnapshot }
func (failingStore) Backend() string                      { return "failing" }

type memIdempotency struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memIdempotency) ReserveIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = nil
	return true, nil
}

func (m *memIdempotency) StoreIdempotentResponse(_ context.Context, key string, body []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = body
	return nil
}

func (m *memIdempotency) GetIdempotentResponse(_ context.Context, key string) ([]byte, bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.data[key]
	if !ok {
		return nil, false, false, nil
	}
	return body, true, body == nil, nil
}

func (m *memIdempotency) ReleaseIdempotencyKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func setupRouter(t *testing.T, store service.SnapshotStore, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := service.NewOrderEngine(store, nil, bcrypt.MinCost)
	router := gin.New()
	NewHandler(engine, opts...).SetupRoutes(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// seedCafe adds B001 (2.50, stock 5), P001 (2.00, stock 10), customer C1 and employee amanda
func seedCafe(t *testing.T, router *gin.Engine) {
	t.Helper()

	w := do(t, router, http.MethodPut, "/api/v1/products/B001",
		gin.H{"name": "Americano", "price": "2.50", "stock": 5, "category": "beverage", "size": "Medium"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPut, "/api/v1/products/P001",
		gin.H{"name": "Croissant", "price": 2.00, "stock": 10, "category": "dessert", "ingredients": []string{"flour"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPost, "/api/v1/customers", gin.H{"id": "C1", "name": "Ana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, router, http.MethodPost, "/api/v1/employees",
		gin.H{"name": "Amanda", "role": "Barista", "username": "amanda", "secret": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func createOrderBody(code string, qty int) gin.H {
	return gin.H{
		"customer_id": "C1",
		"items":       []gin.H{{"product_code": code, "quantity": qty}},
	}
}

func TestHealthAndReadiness(t *testing.T) {
	router := setupRouter(t, nil,
		WithReadinessCheck("redis", func(context.Context) error { return errors.New("connection refused") }))

	w := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestOrderLifecycle(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 3))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[orderResponse](t, w)
	assert.Equal(t, int64(1), created.Data.Number)
	assert.Equal(t, "7.5", created.Data.Total.String())
	assert.Equal(t, []string{"3x Americano - $7.50"}, created.Data.Receipt)

	w = do(t, router, http.MethodGet, "/api/v1/products/B001", nil)
	product := decode[models.Product](t, w)
	assert.Equal(t, 2, product.Data.Stock)

	w = do(t, router, http.MethodPost, "/api/v1/orders/1/deliver", gin.H{"username": "amanda"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/orders/1/prepare", gin.H{"username": "amanda"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusInPreparation, decode[orderResponse](t, w).Data.Status)

	w = do(t, router, http.MethodPost, "/api/v1/orders/1/deliver", gin.H{"username": "amanda"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	delivered := decode[orderResponse](t, w)
	assert.Contains(t, delivered.Data.DeliveryDetail, "delivered by amanda")

	w = do(t, router, http.MethodGet, "/api/v1/reports/sales", nil)
	report := decode[models.SalesReport](t, w)
	assert.Equal(t, "7.5", report.Data.TotalSales.String())
	assert.Equal(t, 1, report.Data.DeliveredCount)

	w = do(t, router, http.MethodGet, "/api/v1/orders?status=delivered", nil)
	assert.Len(t, decode[[]orderResponse](t, w).Data, 1)

	w = do(t, router, http.MethodGet, "/api/v1/customers/C1/orders", nil)
	assert.Len(t, decode[[]orderResponse](t, w).Data, 1)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 10))
	require.Equal(t, http.StatusConflict, w.Code)

	env := decode[any](t, w)
	var details models.InsufficientStockError
	require.NoError(t, json.Unmarshal(env.Details, &details))
	assert.Equal(t, "B001", details.Code)
	assert.Equal(t, 5, details.Available)
}

func TestErrorStatuses(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"bad body", http.MethodPost, "/api/v1/orders", gin.H{"customer_id": "C1"}, http.StatusBadRequest},
		{"unknown customer", http.MethodPost, "/api/v1/orders", gin.H{"customer_id": "C9", "items": []gin.H{{"product_code": "B001", "quantity": 1}}}, http.StatusNotFound},
		{"unknown product", http.MethodPost, "/api/v1/orders", createOrderBody("X1", 1), http.StatusNotFound},
		{"bad milk", http.MethodPost, "/api/v1/orders", gin.H{"customer_id": "C1", "items": []gin.H{{"product_code": "B001", "quantity": 1, "milk": "OAT"}}}, http.StatusBadRequest},
		{"bad order number", http.MethodGet, "/api/v1/orders/abc", nil, http.StatusBadRequest},
		{"missing order", http.MethodGet, "/api/v1/orders/42", nil, http.StatusNotFound},
		{"duplicate customer", http.MethodPost, "/api/v1/customers", gin.H{"id": "C1", "name": "Dup"}, http.StatusConflict},
		{"duplicate username", http.MethodPost, "/api/v1/employees", gin.H{"name": "A", "role": "R", "username": "amanda", "secret": "x"}, http.StatusConflict},
		{"unknown employee", http.MethodPost, "/api/v1/orders/1/prepare", gin.H{"username": "ghost"}, http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/v1/orders?status=LOST", nil, http.StatusBadRequest},
		{"bad category", http.MethodGet, "/api/v1/products?category=soup", nil, http.StatusBadRequest},
		{"negative price", http.MethodPut, "/api/v1/products/B009", gin.H{"name": "T", "price": "-1", "category": "beverage"}, http.StatusBadRequest},
		{"stock needs one field", http.MethodPost, "/api/v1/products/B001/stock", gin.H{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestModifyAndDeleteOrder(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 3))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/orders/1/lines", gin.H{"product_code": "P001", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "11.5", decode[orderResponse](t, w).Data.Total.String())

	w = do(t, router, http.MethodDelete, "/api/v1/orders/1/lines/B001", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "4", decode[orderResponse](t, w).Data.Total.String())

	w = do(t, router, http.MethodDelete, "/api/v1/orders/1/lines/B001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/orders/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// deletion keeps the reserved units out of stock
	w = do(t, router, http.MethodGet, "/api/v1/products/P001", nil)
	assert.Equal(t, 8, decode[models.Product](t, w).Data.Stock)
}

func TestProductsAndStock(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/products/B001/stock", gin.H{"delta": -50})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.Product](t, w).Data.Stock)

	w = do(t, router, http.MethodGet, "/api/v1/products?available=true", nil)
	available := decode[[]models.Product](t, w).Data
	require.Len(t, available, 1)
	assert.Equal(t, "P001", available[0].Code)

	w = do(t, router, http.MethodPost, "/api/v1/products/B001/stock", gin.H{"stock": 12})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, decode[models.Product](t, w).Data.Stock)

	w = do(t, router, http.MethodGet, "/api/v1/products?category=dessert", nil)
	desserts := decode[[]models.Product](t, w).Data
	require.Len(t, desserts, 1)
	assert.Equal(t, []string{"flour"}, desserts[0].Dessert.Ingredients)
}

func TestLogin(t *testing.T) {
	router := setupRouter(t, nil)
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/employees/login", gin.H{"username": "amanda", "secret": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	emp := decode[models.Employee](t, w)
	assert.Equal(t, "Barista", emp.Data.Role)
	assert.NotContains(t, w.Body.String(), "secret")

	w = do(t, router, http.MethodPost, "/api/v1/employees/login", gin.H{"username": "amanda", "secret": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdempotentCreateOrder(t *testing.T) {
	idem := &memIdempotency{data: map[string][]byte{}}
	router := setupRouter(t, nil, WithIdempotency(idem, time.Hour))
	seedCafe(t, router)

	first := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 1), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)

	second := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 1), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	w := do(t, router, http.MethodGet, "/api/v1/products/B001", nil)
	assert.Equal(t, 4, decode[models.Product](t, w).Data.Stock, "only one order reserved stock")

	// a failed request frees its key
	w = do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 99), "Idempotency-Key", "xyz")
	require.Equal(t, http.StatusConflict, w.Code)
	_, found, _, _ := idem.GetIdempotentResponse(context.Background(), "xyz")
	assert.False(t, found)
}

func TestPersistenceWarning(t *testing.T) {
	router := setupRouter(t, failingStore{})
	seedCafe(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/orders", createOrderBody("B001", 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decode[orderResponse](t, w)
	assert.Equal(t, int64(1), env.Data.Number)
	assert.Contains(t, env.Warning, "disk full")
}

type staticAudit map[int64][]models.AuditEntry

func (s staticAudit) AuditTrail(_ context.Context, orderNumber int64) ([]models.AuditEntry, error) {
	return s[orderNumber], nil
}

func TestOrderAudit(t *testing.T) {
	router := setupRouter(t, nil)
	w := do(t, router, http.MethodGet, "/api/v1/orders/1/audit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "disabled without an audit reader")

	router = setupRouter(t, nil, WithAuditTrail(staticAudit{
		1: {{EventID: "e1", EventType: models.EventTypeOrderAdvanced, OrderNumber: 1, FromStatus: "NEW", ToStatus: "IN_PREPARATION", Actor: "amanda"}},
	}))

	w = do(t, router, http.MethodGet, "/api/v1/orders/1/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]models.AuditEntry](t, w).Data
	require.Len(t, entries, 1)
	assert.Equal(t, "amanda", entries[0].Actor)

	w = do(t, router, http.MethodGet, "/api/v1/orders/2/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
