package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/api/upload"
	"github.com/hongfa/admin-api/internal/events"
	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type eventPublisher interface {
	Publish(evt events.Event)
}

type activityTracker interface {
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

// fileStore writes uploaded gallery files to disk; satisfied by the upload
// service.
type fileStore interface {
	Save(fh *multipart.FileHeader, kind upload.Kind) (*upload.UploadedFile, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for the catalog.
type Service interface {
	List(ctx context.Context, p query.Params) ([]types.Product, types.Pagination, error)
	Get(ctx context.Context, productID uuid.UUID) (*types.ProductDetail, error)
	Create(ctx context.Context, actor *types.Identity, params types.CreateProductParams) (*types.Product, error)
	Update(ctx context.Context, actor *types.Identity, productID uuid.UUID, params types.UpdateProductParams) (*types.ProductDetail, error)
	Delete(ctx context.Context, actor *types.Identity, productID uuid.UUID) error
	// UploadImages stores the files and appends them to the product gallery;
	// the first file becomes the primary image.
	UploadImages(ctx context.Context, actor *types.Identity, productID uuid.UUID, files []*multipart.FileHeader) ([]types.ProductImage, error)
	Categories(ctx context.Context) ([]types.Category, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	hub     eventPublisher
	tracker activityTracker
	store   fileStore
}

func NewService(repo Repository, hub eventPublisher, tracker activityTracker, store fileStore, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		hub:     hub,
		tracker: tracker,
		store:   store,
	}
}

func (s *ServiceImpl) List(ctx context.Context, p query.Params) ([]types.Product, types.Pagination, error) {
	products, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return products, types.NewPagination(p.Page, query.ClampLimit(p.Limit), total), nil
}

func (s *ServiceImpl) Get(ctx context.Context, productID uuid.UUID) (*types.ProductDetail, error) {
	return s.repo.GetByID(ctx, productID)
}

func (s *ServiceImpl) Create(ctx context.Context, actor *types.Identity, params types.CreateProductParams) (*types.Product, error) {
	l := s.logger.With(slog.String("method", "Create"), slog.String("sku", params.SKU))

	slug, err := s.resolveSlug(ctx, params.Name, nil)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, params, slug)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	s.track(ctx, actor, "product_created", map[string]any{
		"productId": created.ID.String(),
		"name":      created.Name,
		"sku":       created.SKU,
	})
	s.hub.Publish(events.Event{Type: events.ProductCreated, Payload: created})
	l.InfoContext(ctx, "Product created", slog.String("productID", created.ID.String()))
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, actor *types.Identity, productID uuid.UUID, params types.UpdateProductParams) (*types.ProductDetail, error) {
	l := s.logger.With(slog.String("method", "Update"), slog.String("productID", productID.String()))

	// Renaming regenerates the slug so product URLs track the name.
	var slug *string
	if params.Name != nil {
		resolved, err := s.resolveSlug(ctx, *params.Name, &productID)
		if err != nil {
			return nil, err
		}
		slug = &resolved
	}

	if err := s.repo.Update(ctx, productID, params, slug); err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("error updating product: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("error reloading product: %w", err)
	}

	s.track(ctx, actor, "product_updated", map[string]any{"productId": productID.String()})
	s.hub.Publish(events.Event{Type: events.ProductUpdated, Payload: updated})
	l.InfoContext(ctx, "Product updated")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, actor *types.Identity, productID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("productID", productID.String()))

	if err := s.repo.Delete(ctx, productID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete product", slog.Any("error", err))
		return fmt.Errorf("error deleting product: %w", err)
	}

	s.track(ctx, actor, "product_deleted", map[string]any{"productId": productID.String()})
	s.hub.Publish(events.Event{Type: events.ProductDeleted, Payload: map[string]any{"id": productID.String()}})
	l.InfoContext(ctx, "Product deleted")
	return nil
}

func (s *ServiceImpl) UploadImages(ctx context.Context, actor *types.Identity, productID uuid.UUID, files []*multipart.FileHeader) ([]types.ProductImage, error) {
	l := s.logger.With(slog.String("method", "UploadImages"), slog.String("productID", productID.String()))

	images := make([]types.ProductImage, 0, len(files))
	for i, fh := range files {
		stored, err := s.store.Save(fh, upload.KindImage)
		if err != nil {
			if errors.Is(err, types.ErrValidation) {
				return nil, err
			}
			l.ErrorContext(ctx, "Failed to store product image", slog.Any("error", err))
			return nil, fmt.Errorf("error storing product image: %w", err)
		}
		images = append(images, types.ProductImage{
			ImageURL:  stored.URL,
			AltText:   fh.Filename,
			SortOrder: i,
			IsPrimary: i == 0,
		})
	}

	saved, err := s.repo.AddImages(ctx, productID, images)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to save product images", slog.Any("error", err))
		return nil, fmt.Errorf("error saving product images: %w", err)
	}

	s.track(ctx, actor, "product_images_uploaded", map[string]any{
		"productId": productID.String(),
		"count":     len(saved),
	})
	l.InfoContext(ctx, "Product images uploaded", slog.Int("count", len(saved)))
	return saved, nil
}

func (s *ServiceImpl) Categories(ctx context.Context) ([]types.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *ServiceImpl) resolveSlug(ctx context.Context, name string, excludeID *uuid.UUID) (string, error) {
	slug := Slugify(name)
	if slug == "" {
		slug = uuid.NewString()[:8]
	}
	taken, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", fmt.Errorf("error checking slug: %w", err)
	}
	if taken {
		slug = uniqueSuffix(slug)
	}
	return slug, nil
}

func (s *ServiceImpl) track(ctx context.Context, actor *types.Identity, event string, data map[string]any) {
	if s.tracker == nil {
		return
	}
	var actorID *uuid.UUID
	if actor != nil {
		actorID = &actor.ID
	}
	if err := s.tracker.TrackActivity(ctx, actorID, types.TrackActivityParams{
		EventType: event,
		EventData: data,
	}); err != nil {
		s.logger.WarnContext(ctx, "Failed to record activity event",
			slog.String("event", event), slog.Any("error", err))
	}
}
