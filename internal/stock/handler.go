package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), metrics: metrics}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.handleRecordMovement)
	r.Get("/movements", h.handleListMovements)
	r.Get("/positions", h.handleListPositions)
	r.Get("/positions/{warehouseID}/{productID}", h.handleGetPosition)
	r.Post("/reservations", h.handleReserve)
	r.Delete("/reservations", h.handleRelease)
}

func (h *Handler) handleRecordMovement(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	var req recordMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	movement, err := h.service.RecordMovement(r.Context(), MovementInput{
		TenantID:       tenantID,
		WarehouseID:    req.WarehouseID,
		ProductID:      req.ProductID,
		Type:           MovementType(req.Type),
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		Reference:      req.Reference,
		Notes:          req.Notes,
		UserID:         req.UserID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.Error("record movement failed",
			slog.Any("error", err),
			slog.Int64("warehouse_id", req.WarehouseID),
			slog.Int64("product_id", req.ProductID),
			slog.String("type", req.Type))
		httpx.RespondError(w, mapError(err))
		return
	}

	if h.metrics != nil {
		h.metrics.MovementRecorded(string(movement.Type))
	}
	h.logger.Info("movement recorded",
		slog.Int64("movement_id", movement.ID),
		slog.Int64("warehouse_id", movement.WarehouseID),
		slog.Int64("product_id", movement.ProductID),
		slog.String("type", string(movement.Type)))
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	filter, err := parseMovementFilter(r, tenantID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	movements, total, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements failed", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, movementListResponse{
		Movements:  movements,
		Pagination: shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	warehouseID, err := strconv.ParseInt(r.URL.Query().Get("warehouse_id"), 10, 64)
	if err != nil || warehouseID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: warehouse_id required", httpx.ErrValidation))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	positions, err := h.service.ListPositions(r.Context(), tenantID, warehouseID, limit)
	if err != nil {
		h.logger.Error("list positions failed", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, positionListResponse{Positions: positions})
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	warehouseID, err := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid warehouse id", httpx.ErrValidation))
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid product id", httpx.ErrValidation))
		return
	}
	pos, err := h.service.GetPosition(r.Context(), tenantID, warehouseID, productID)
	if err != nil {
		h.logger.Error("get position failed", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	h.handleReservation(w, r, h.service.Reserve, "reserve")
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleReservation(w, r, h.service.ReleaseReservation, "release")
}

func (h *Handler) handleReservation(w http.ResponseWriter, r *http.Request, op func(context.Context, ReservationInput) (Position, error), action string) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, shared.ErrTenantMissing))
		return
	}
	var req reservationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	pos, err := op(r.Context(), ReservationInput{
		TenantID:    tenantID,
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		h.logger.Error("reservation failed",
			slog.Any("error", err),
			slog.String("action", action),
			slog.Int64("warehouse_id", req.WarehouseID),
			slog.Int64("product_id", req.ProductID))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func parseMovementFilter(r *http.Request, tenantID uuid.UUID) (MovementFilter, error) {
	q := r.URL.Query()
	filter := MovementFilter{TenantID: tenantID}
	var err error
	if filter.WarehouseID, err = strconv.ParseInt(q.Get("warehouse_id"), 10, 64); err != nil {
		return MovementFilter{}, errors.New("warehouse_id required")
	}
	if filter.ProductID, err = strconv.ParseInt(q.Get("product_id"), 10, 64); err != nil {
		return MovementFilter{}, errors.New("product_id required")
	}
	if from := q.Get("from"); from != "" {
		if filter.From, err = time.Parse("2006-01-02", from); err != nil {
			return MovementFilter{}, errors.New("invalid from date")
		}
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return MovementFilter{}, errors.New("invalid to date")
		}
		// End of day.
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	return filter, nil
}

// mapError wraps domain errors into httpx sentinels for status mapping.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownMovementType),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidUnitCost),
		errors.Is(err, shared.ErrTenantMissing):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, ErrPositionNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrReservationExceedsStock):
		return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	case errors.Is(err, ErrLockUnavailable):
		return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	default:
		return err
	}
}
