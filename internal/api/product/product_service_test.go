package product

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/api/upload"
	"github.com/hongfa/admin-api/internal/events"
	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, p query.Params) ([]types.Product, int, error) {
	args := m.Called(ctx, p)
	var products []types.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]types.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, productID uuid.UUID) (*types.ProductDetail, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ProductDetail), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, params types.CreateProductParams, slug string) (*types.Product, error) {
	args := m.Called(ctx, params, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, productID uuid.UUID, params types.UpdateProductParams, slug *string) error {
	args := m.Called(ctx, productID, params, slug)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductRepository) AddImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) ([]types.ProductImage, error) {
	args := m.Called(ctx, productID, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ProductImage), args.Error(1)
}

func (m *MockProductRepository) ListCategories(ctx context.Context) ([]types.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockProductRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

// recordingHub captures published events for assertions.
type recordingHub struct {
	mu     sync.Mutex
	events []events.Event
}

func (h *recordingHub) Publish(evt events.Event) {
	h.mu.Lock()
	h.events = append(h.events, evt)
	h.mu.Unlock()
}

func (h *recordingHub) published() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.events...)
}

type noopTracker struct{}

func (noopTracker) TrackActivity(context.Context, *uuid.UUID, types.TrackActivityParams) error {
	return nil
}

// fakeStore hands back deterministic URLs without touching the filesystem.
type fakeStore struct {
	saved []string
	err   error
}

func (f *fakeStore) Save(fh *multipart.FileHeader, kind upload.Kind) (*upload.UploadedFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, fh.Filename)
	return &upload.UploadedFile{
		Filename:     fmt.Sprintf("stored-%d%s", len(f.saved), filepath.Ext(fh.Filename)),
		OriginalName: fh.Filename,
		URL:          fmt.Sprintf("/uploads/stored-%d%s", len(f.saved), filepath.Ext(fh.Filename)),
	}, nil
}

func setupProductServiceTest() (*ServiceImpl, *MockProductRepository, *recordingHub, *fakeStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockProductRepository)
	hub := &recordingHub{}
	store := &fakeStore{}
	service := NewService(mockRepo, hub, noopTracker{}, store, logger)
	return service, mockRepo, hub, store
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Widget", "widget"},
		{"Widget Pro 2000", "widget-pro-2000"},
		{"  Spaces  everywhere  ", "spaces-everywhere"},
		{"Ümlaut & Co.", "mlaut-co"},
		{"---", ""},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

func TestProductService_Create(t *testing.T) {
	service, mockRepo, hub, _ := setupProductServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleManager}

	params := types.CreateProductParams{Name: "Widget Pro", SKU: "WID-001", Price: 19.99}

	t.Run("generates slug and broadcasts product-created", func(t *testing.T) {
		created := &types.Product{ID: uuid.New(), Name: "Widget Pro", Slug: "widget-pro", SKU: "WID-001"}
		mockRepo.On("SlugExists", ctx, "widget-pro", (*uuid.UUID)(nil)).Return(false, nil).Once()
		mockRepo.On("Create", ctx, params, "widget-pro").Return(created, nil).Once()

		got, err := service.Create(ctx, actor, params)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		published := hub.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.ProductCreated, published[0].Type)
		mockRepo.AssertExpectations(t)
	})

	t.Run("taken slug gets a suffix", func(t *testing.T) {
		mockRepo.On("SlugExists", ctx, "widget-pro", (*uuid.UUID)(nil)).Return(true, nil).Once()
		mockRepo.On("Create", ctx, params, mock.MatchedBy(func(slug string) bool {
			return len(slug) == len("widget-pro")+9 && slug[:11] == "widget-pro-"
		})).Return(&types.Product{ID: uuid.New()}, nil).Once()

		_, err := service.Create(ctx, actor, params)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate SKU surfaces as conflict and publishes nothing", func(t *testing.T) {
		before := len(hub.published())
		mockRepo.On("SlugExists", ctx, "widget-pro", (*uuid.UUID)(nil)).Return(false, nil).Once()
		mockRepo.On("Create", ctx, params, "widget-pro").Return(nil, types.ErrConflict).Once()

		_, err := service.Create(ctx, actor, params)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Len(t, hub.published(), before)
		mockRepo.AssertExpectations(t)
	})
}

func TestProductService_Update(t *testing.T) {
	service, mockRepo, hub, _ := setupProductServiceTest()
	ctx := context.Background()
	productID := uuid.New()

	t.Run("rename regenerates the slug", func(t *testing.T) {
		name := "New Name"
		params := types.UpdateProductParams{Name: &name}
		detail := &types.ProductDetail{Product: types.Product{ID: productID, Name: name, Slug: "new-name"}}

		mockRepo.On("SlugExists", ctx, "new-name", &productID).Return(false, nil).Once()
		mockRepo.On("Update", ctx, productID, params, mock.MatchedBy(func(slug *string) bool {
			return slug != nil && *slug == "new-name"
		})).Return(nil).Once()
		mockRepo.On("GetByID", ctx, productID).Return(detail, nil).Once()

		got, err := service.Update(ctx, nil, productID, params)
		require.NoError(t, err)
		assert.Equal(t, detail, got)

		published := hub.published()
		assert.Equal(t, events.ProductUpdated, published[len(published)-1].Type)
		mockRepo.AssertExpectations(t)
	})

	t.Run("update without rename keeps the slug", func(t *testing.T) {
		price := 9.99
		params := types.UpdateProductParams{Price: &price}

		mockRepo.On("Update", ctx, productID, params, (*string)(nil)).Return(nil).Once()
		mockRepo.On("GetByID", ctx, productID).Return(&types.ProductDetail{}, nil).Once()

		_, err := service.Update(ctx, nil, productID, params)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing product", func(t *testing.T) {
		price := 9.99
		params := types.UpdateProductParams{Price: &price}
		mockRepo.On("Update", ctx, productID, params, (*string)(nil)).Return(types.ErrNotFound).Once()

		_, err := service.Update(ctx, nil, productID, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestProductService_Delete(t *testing.T) {
	service, mockRepo, hub, _ := setupProductServiceTest()
	ctx := context.Background()
	productID := uuid.New()

	mockRepo.On("Delete", ctx, productID).Return(nil).Once()

	err := service.Delete(ctx, nil, productID)
	require.NoError(t, err)

	published := hub.published()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assert.Equal(t, events.ProductDeleted, last.Type)
	assert.Equal(t, map[string]any{"id": productID.String()}, last.Payload)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UploadImages(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	files := []*multipart.FileHeader{
		{Filename: "front.png"},
		{Filename: "back.jpg"},
	}

	t.Run("stores files and appends gallery rows, first image primary", func(t *testing.T) {
		service, mockRepo, _, store := setupProductServiceTest()

		mockRepo.On("AddImages", ctx, productID, mock.MatchedBy(func(images []types.ProductImage) bool {
			return len(images) == 2 &&
				images[0].IsPrimary && images[0].SortOrder == 0 && images[0].AltText == "front.png" &&
				!images[1].IsPrimary && images[1].SortOrder == 1 && images[1].AltText == "back.jpg"
		})).Return([]types.ProductImage{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

		saved, err := service.UploadImages(ctx, nil, productID, files)
		require.NoError(t, err)
		assert.Len(t, saved, 2)
		assert.Equal(t, []string{"front.png", "back.jpg"}, store.saved)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing product surfaces as not found", func(t *testing.T) {
		service, mockRepo, _, _ := setupProductServiceTest()

		mockRepo.On("AddImages", ctx, productID, mock.Anything).Return(nil, types.ErrNotFound).Once()

		_, err := service.UploadImages(ctx, nil, productID, files)
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejected file stops the upload before any gallery write", func(t *testing.T) {
		service, mockRepo, _, store := setupProductServiceTest()
		store.err = fmt.Errorf("%w: file type \".exe\" not allowed", types.ErrValidation)

		_, err := service.UploadImages(ctx, nil, productID, files)
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "AddImages", mock.Anything, mock.Anything, mock.Anything)
	})
}
