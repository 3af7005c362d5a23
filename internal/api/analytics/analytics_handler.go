package analytics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	DashboardOverview(w http.ResponseWriter, r *http.Request)
	SalesReport(w http.ResponseWriter, r *http.Request)
	CustomerReport(w http.ResponseWriter, r *http.Request)
	InventoryReport(w http.ResponseWriter, r *http.Request)
	ComprehensiveReport(w http.ResponseWriter, r *http.Request)
	TrackActivity(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	analyticsService Service
	logger           *slog.Logger
}

func NewHandlerImpl(analyticsService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (h *HandlerImpl) DashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DashboardOverview"))

	overview, err := h.analyticsService.DashboardOverview(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch dashboard overview", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch dashboard overview")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: overview})
}

func (h *HandlerImpl) SalesReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "SalesReport"))

	q := r.URL.Query()
	report, err := h.analyticsService.SalesReport(ctx, q.Get("startDate"), q.Get("endDate"), q.Get("groupBy"))
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to fetch sales report", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch sales report")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: report})
}

func (h *HandlerImpl) CustomerReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CustomerReport"))

	report, err := h.analyticsService.CustomerReport(ctx, r.URL.Query().Get("period"))
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to fetch customer report", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch customer report")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: report})
}

func (h *HandlerImpl) InventoryReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "InventoryReport"))

	report, err := h.analyticsService.InventoryReport(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch inventory report", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch inventory report")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: report})
}

func (h *HandlerImpl) ComprehensiveReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ComprehensiveReport"))

	q := r.URL.Query()
	report, err := h.analyticsService.ComprehensiveReport(ctx, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to fetch comprehensive report", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch comprehensive report")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: report})
}

func (h *HandlerImpl) TrackActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "TrackActivity"))

	var params types.TrackActivityParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	var actorID *uuid.UUID
	if actor != nil {
		actorID = &actor.ID
	}

	if err := h.analyticsService.TrackActivity(ctx, actorID, params); err != nil {
		l.ErrorContext(ctx, "Failed to track activity", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to track activity")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Activity tracked successfully",
	})
}
