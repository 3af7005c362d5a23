package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Overview(w http.ResponseWriter, r *http.Request)
	AdjustStock(w http.ResponseWriter, r *http.Request)
	SetReorderPoint(w http.ResponseWriter, r *http.Request)
	Alerts(w http.ResponseWriter, r *http.Request)
	Transactions(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	inventoryService Service
	logger           *slog.Logger
}

func NewHandlerImpl(inventoryService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// Overview returns stock statistics plus per-product inventory rows.
func (h *HandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Overview"))

	stats, items, err := h.inventoryService.Overview(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch inventory overview", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch inventory")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data: map[string]any{
			"stats":     stats,
			"inventory": items,
		},
	})
}

func (h *HandlerImpl) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "AdjustStock"))

	var params types.AdjustStockParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	result, err := h.inventoryService.AdjustStock(ctx, actor, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to adjust stock", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to adjust stock")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Stock adjusted successfully",
		Data:    result,
	})
}

func (h *HandlerImpl) SetReorderPoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "SetReorderPoint"))

	var params types.ReorderPointParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	if err := h.inventoryService.SetReorderPoint(ctx, actor, params); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to set reorder point", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to set reorder point")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Reorder point updated successfully",
	})
}

func (h *HandlerImpl) Alerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Alerts"))

	alerts, err := h.inventoryService.Alerts(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch stock alerts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch stock alerts")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: alerts})
}

func (h *HandlerImpl) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Transactions"))

	var productID *uuid.UUID
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
			return
		}
		productID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	txs, err := h.inventoryService.Transactions(ctx, productID, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch inventory transactions", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch inventory transactions")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: txs})
}
