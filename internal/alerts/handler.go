package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the alerts module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs alerts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/alerts", h.handleList)
}

type alertListResponse struct {
	Alerts []Alert `json:"alerts"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	q := r.URL.Query()
	warehouseID, _ := strconv.ParseInt(q.Get("warehouse_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	result, err := h.service.List(r.Context(), tenantID, warehouseID, q.Get("status"), limit)
	if err != nil {
		h.logger.Error("list alerts failed", slog.Any("error", err))
		if errors.Is(err, ErrUnknownStatus) {
			err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alertListResponse{Alerts: result})
}
