package settings

import (
	"log/slog"
	"net/http"

	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	SystemInfo(w http.ResponseWriter, r *http.Request)
	DatabaseStats(w http.ResponseWriter, r *http.Request)
	ClearCache(w http.ResponseWriter, r *http.Request)
	Backup(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	settingsService Service
	logger          *slog.Logger
}

func NewHandlerImpl(settingsService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		settingsService: settingsService,
		logger:          logger,
	}
}

func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	settings, err := h.settingsService.Get(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch settings", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: settings})
}

func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Update"))

	var params UpdateSettingsParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	settings, err := h.settingsService.Update(ctx, actor, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update settings", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Settings updated successfully",
		Data:    settings,
	})
}

func (h *HandlerImpl) SystemInfo(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    h.settingsService.SystemInfo(r.Context()),
	})
}

func (h *HandlerImpl) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DatabaseStats"))

	stats, err := h.settingsService.DatabaseStats(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch database stats", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch database statistics")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: stats})
}

func (h *HandlerImpl) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.GetIdentityFromContext(ctx)

	if err := h.settingsService.ClearCache(ctx, actor); err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Cache cleared successfully",
	})
}

func (h *HandlerImpl) Backup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.GetIdentityFromContext(ctx)

	if err := h.settingsService.Backup(ctx, actor); err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create backup")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Database backup initiated successfully",
	})
}
