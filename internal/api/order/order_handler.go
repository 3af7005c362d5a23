package order

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	orderService Service
	logger       *slog.Logger
}

func NewHandlerImpl(orderService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		orderService: orderService,
		logger:       logger,
	}
}

// List returns a page of orders with customers and items attached.
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "List"))

	p, err := query.FromRequest(r.URL.Query(), listSchema)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	orders, pagination, err := h.orderService.List(ctx, p)
	if err != nil {
		if api.IsQueryError(err) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to list orders", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data: map[string]any{
			"orders":     orders,
			"pagination": pagination,
		},
	})
}

func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	detail, err := h.orderService.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Order not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch order", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: detail})
}

func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Create"))

	var params types.CreateOrderParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	created, err := h.orderService.Create(ctx, actor, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to create order", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: "Order created successfully",
		Data:    created,
	})
}

func (h *HandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateStatus"))

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var params types.UpdateOrderStatusParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	updated, err := h.orderService.UpdateStatus(ctx, actor, orderID, params)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Order not found")
			return
		}
		l.ErrorContext(ctx, "Failed to update order status", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Order status updated successfully",
		Data:    updated,
	})
}

// Stats returns the 30-day order overview for the dashboard cards.
func (h *HandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Stats"))

	stats, err := h.orderService.Stats(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch order stats", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch order statistics")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: stats})
}
