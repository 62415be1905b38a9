package alerts

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestRouter(repo *memoryAlertRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, &staticProducts{}, nil, logger, nil, time.Minute))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithTenant(req.Context(), testTenant)))
		})
	})
	handler.MountRoutes(r)
	return r
}

func TestHandleListStatusFilter(t *testing.T) {
	router := newTestRouter(newMemoryAlertRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?status=open", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?status=snoozed", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code, "unknown status is a client error")
}

func TestHandleListRepositoryFailure(t *testing.T) {
	repo := newMemoryAlertRepo()
	repo.listErr = errors.New("connection reset")
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code, "infrastructure failures are not validation errors")
}
