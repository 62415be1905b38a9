package stock

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestRouter(t *testing.T, cfg ServiceConfig) (*chi.Mux, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil, nil, nil, logger, cfg), nil)

	r := chi.NewRouter()
	r.Route("/stock", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithTenant(req.Context(), testTenant)))
			})
		})
		handler.MountRoutes(r)
	})
	return r, repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRecordMovement(t *testing.T) {
	router, repo := newTestRouter(t, ServiceConfig{AllowNegativeStock: true})

	rec := doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
		"warehouse_id": 1,
		"product_id":   1,
		"type":         "entry",
		"quantity":     "100",
		"unit_cost":    "10.00",
		"reference":    "GRN-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var movement Movement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &movement))
	assert.Equal(t, MovementEntry, movement.Type)
	assert.NotZero(t, movement.ID)
	require.Len(t, repo.movements, 1)

	rec = doJSON(t, router, http.MethodGet, "/stock/positions/1/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pos Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.True(t, pos.Quantity.Equal(dec("100")))
	assert.True(t, pos.AverageCost.Equal(dec("10")))
}

func TestHandleRecordMovementValidation(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{AllowNegativeStock: true})

	rec := doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
		"warehouse_id": 1,
		"product_id":   1,
		"type":         "teleport",
		"quantity":     "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
		"product_id": 1,
		"type":       "entry",
		"quantity":   "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, "missing warehouse_id")
}

func TestHandleRecordMovementInsufficientStock(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{AllowNegativeStock: false})

	rec := doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
		"warehouse_id": 1,
		"product_id":   1,
		"type":         "exit",
		"quantity":     "5",
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestHandleMissingTenant(t *testing.T) {
	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil, nil, nil, logger, ServiceConfig{}), nil)

	r := chi.NewRouter()
	r.Route("/stock", handler.MountRoutes)

	rec := doJSON(t, r, http.MethodPost, "/stock/movements", map[string]any{
		"warehouse_id": 1, "product_id": 1, "type": "entry", "quantity": "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListMovements(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{AllowNegativeStock: true})

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
			"warehouse_id": 1, "product_id": 1, "type": "entry", "quantity": "1", "unit_cost": "2",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/stock/movements?warehouse_id=1&product_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Movements  []Movement        `json:"movements"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Movements, 3)
	assert.Equal(t, 3, resp.Pagination.Total)

	rec = doJSON(t, router, http.MethodGet, "/stock/movements?product_id=1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "warehouse_id is required")
}

func TestHandleReservations(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{AllowNegativeStock: true})

	rec := doJSON(t, router, http.MethodPost, "/stock/movements", map[string]any{
		"warehouse_id": 1, "product_id": 1, "type": "entry", "quantity": "10", "unit_cost": "4",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/stock/reservations", map[string]any{
		"warehouse_id": 1, "product_id": 1, "quantity": "4",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pos Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.True(t, pos.ReservedQuantity.Equal(dec("4")))

	rec = doJSON(t, router, http.MethodPost, "/stock/reservations", map[string]any{
		"warehouse_id": 1, "product_id": 1, "quantity": "7",
	})
	require.Equal(t, http.StatusConflict, rec.Code, "over-reservation is rejected")

	rec = doJSON(t, router, http.MethodDelete, "/stock/reservations", map[string]any{
		"warehouse_id": 1, "product_id": 1, "quantity": "4",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.True(t, pos.ReservedQuantity.IsZero())
}
