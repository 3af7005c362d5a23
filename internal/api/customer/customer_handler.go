package customer

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
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	customerService Service
	logger          *slog.Logger
}

func NewHandlerImpl(customerService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		customerService: customerService,
		logger:          logger,
	}
}

func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "List"))

	p, err := query.FromRequest(r.URL.Query(), listSchema)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	customers, pagination, err := h.customerService.List(ctx, p)
	if err != nil {
		if api.IsQueryError(err) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to list customers", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch customers")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data: map[string]any{
			"customers":  customers,
			"pagination": pagination,
		},
	})
}

// Get returns a customer with the stored addresses attached.
func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	detail, err := h.customerService.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Customer not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch customer", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch customer")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: detail})
}

func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Create"))

	var params types.CreateCustomerParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	created, err := h.customerService.Create(ctx, actor, params)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "A customer with this email already exists")
			return
		}
		l.ErrorContext(ctx, "Failed to create customer", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: "Customer created successfully",
		Data:    created,
	})
}

func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Update"))

	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var params types.UpdateCustomerParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	updated, err := h.customerService.Update(ctx, actor, customerID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Customer not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "A customer with this email already exists")
		default:
			l.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update customer")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Customer updated successfully",
		Data:    updated,
	})
}

func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Delete"))

	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	if err := h.customerService.Delete(ctx, actor, customerID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Customer not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Customer deleted successfully",
	})
}
