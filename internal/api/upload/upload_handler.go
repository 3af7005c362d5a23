package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/types"
)

const (
	maxFilesPerRequest = 10
	multipartMemory    = 32 << 20
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Single(w http.ResponseWriter, r *http.Request)
	Multiple(w http.ResponseWriter, r *http.Request)
	ProductImages(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Info(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	uploadService Service
	logger        *slog.Logger
}

func NewHandlerImpl(uploadService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		uploadService: uploadService,
		logger:        logger,
	}
}

func (h *HandlerImpl) Single(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Single"))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	_, fh, err := r.FormFile("file")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "No file uploaded")
		return
	}

	stored, err := h.uploadService.Save(fh, KindAny)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to store file", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "File uploaded successfully",
		Data:    stored,
	})
}

func (h *HandlerImpl) Multiple(w http.ResponseWriter, r *http.Request) {
	h.saveMany(w, r, "files", KindAny, "No files uploaded")
}

// ProductImages accepts up to ten image files for the product gallery.
func (h *HandlerImpl) ProductImages(w http.ResponseWriter, r *http.Request) {
	h.saveMany(w, r, "images", KindImage, "No images uploaded")
}

// List returns every stored file, newest first.
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "List"))

	files, err := h.uploadService.List()
	if err != nil {
		l.ErrorContext(ctx, "Failed to list files", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list files")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: files})
}

func (h *HandlerImpl) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Info"))

	info, err := h.uploadService.Info(chi.URLParam(r, "filename"))
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "File not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to read file info", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to get file info")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: info})
}

func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Delete"))

	if err := h.uploadService.Delete(chi.URLParam(r, "filename")); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "File not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to delete file", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete file")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "File deleted successfully",
	})
}

func (h *HandlerImpl) saveMany(w http.ResponseWriter, r *http.Request, field string, kind Kind, emptyMsg string) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "saveMany"), slog.String("field", field))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, emptyMsg)
		return
	}
	if len(files) > maxFilesPerRequest {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("Too many files: at most %d per request", maxFilesPerRequest))
		return
	}

	stored := make([]*UploadedFile, 0, len(files))
	for _, fh := range files {
		f, err := h.uploadService.Save(fh, kind)
		if err != nil {
			if errors.Is(err, types.ErrValidation) {
				api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
				return
			}
			l.ErrorContext(ctx, "Failed to store file", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to upload files")
			return
		}
		stored = append(stored, f)
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: fmt.Sprintf("%d file(s) uploaded successfully", len(stored)),
		Data:    stored,
	})
}
