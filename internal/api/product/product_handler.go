package product

import (
	"errors"
	"fmt"
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
	UploadImages(w http.ResponseWriter, r *http.Request)
	Categories(w http.ResponseWriter, r *http.Request)
}

const (
	maxGalleryFiles = 10
	galleryMemory   = 32 << 20
)

type HandlerImpl struct {
	productService Service
	logger         *slog.Logger
}

func NewHandlerImpl(productService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		productService: productService,
		logger:         logger,
	}
}

// List returns a page of products filtered by category/search/status.
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "List"))

	p, err := query.FromRequest(r.URL.Query(), listSchema)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	products, pagination, err := h.productService.List(ctx, p)
	if err != nil {
		if api.IsQueryError(err) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data: map[string]any{
			"products":   products,
			"pagination": pagination,
		},
	})
}

func (h *HandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Get"))

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	detail, err := h.productService.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch product", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: detail})
}

func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Create"))

	var params types.CreateProductParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	created, err := h.productService.Create(ctx, actor, params)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusConflict, "A product with this SKU already exists")
			return
		}
		l.ErrorContext(ctx, "Failed to create product", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create product")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: "Product created successfully",
		Data:    created,
	})
}

func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Update"))

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var params types.UpdateProductParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.ValidateStruct(params); errs != nil {
		api.ValidationErrorResponse(w, r, errs)
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	updated, err := h.productService.Update(ctx, actor, productID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "A product with this SKU already exists")
		default:
			l.ErrorContext(ctx, "Failed to update product", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    updated,
	})
}

func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Delete"))

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	if err := h.productService.Delete(ctx, actor, productID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete product", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// UploadImages stores up to ten gallery images for the product; the first
// becomes the primary image.
func (h *HandlerImpl) UploadImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UploadImages"))

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := r.ParseMultipartForm(galleryMemory); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > maxGalleryFiles {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("Too many files: at most %d per request", maxGalleryFiles))
		return
	}

	actor, _ := auth.GetIdentityFromContext(ctx)
	saved, err := h.productService.UploadImages(ctx, actor, productID, files)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to upload product images", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to upload images")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: fmt.Sprintf("%d image(s) uploaded successfully", len(saved)),
		Data:    saved,
	})
}

// Categories lists every category for the filter dropdowns.
func (h *HandlerImpl) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Categories"))

	categories, err := h.productService.Categories(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list categories", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Data: categories})
}
