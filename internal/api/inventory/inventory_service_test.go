package inventory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/events"
	"github.com/hongfa/admin-api/internal/types"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Overview(ctx context.Context) (*types.InventoryStats, []types.InventoryItem, error) {
	args := m.Called(ctx)
	var stats *types.InventoryStats
	if args.Get(0) != nil {
		stats = args.Get(0).(*types.InventoryStats)
	}
	var items []types.InventoryItem
	if args.Get(1) != nil {
		items = args.Get(1).([]types.InventoryItem)
	}
	return stats, items, args.Error(2)
}

func (m *MockInventoryRepository) AdjustStock(ctx context.Context, productID uuid.UUID, adjType string, quantity int, reason string, createdBy *uuid.UUID) (*types.AdjustStockResult, *types.StockAlert, error) {
	args := m.Called(ctx, productID, adjType, quantity, reason, createdBy)
	var result *types.AdjustStockResult
	if args.Get(0) != nil {
		result = args.Get(0).(*types.AdjustStockResult)
	}
	var alert *types.StockAlert
	if args.Get(1) != nil {
		alert = args.Get(1).(*types.StockAlert)
	}
	return result, alert, args.Error(2)
}

func (m *MockInventoryRepository) SetReorderPoint(ctx context.Context, productID uuid.UUID, reorderPoint int) error {
	args := m.Called(ctx, productID, reorderPoint)
	return args.Error(0)
}

func (m *MockInventoryRepository) Alerts(ctx context.Context) ([]types.StockAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.StockAlert), args.Error(1)
}

func (m *MockInventoryRepository) Transactions(ctx context.Context, productID *uuid.UUID, limit int) ([]types.InventoryTransaction, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.InventoryTransaction), args.Error(1)
}

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

func setupInventoryServiceTest() (*ServiceImpl, *MockInventoryRepository, *recordingHub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockInventoryRepository)
	hub := &recordingHub{}
	service := NewService(mockRepo, hub, noopTracker{}, logger)
	return service, mockRepo, hub
}

func TestInventoryService_AdjustStock(t *testing.T) {
	service, mockRepo, hub := setupInventoryServiceTest()
	ctx := context.Background()
	productID := uuid.New()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleManager}

	t.Run("adjustment below threshold broadcasts a stock alert", func(t *testing.T) {
		params := types.AdjustStockParams{ProductID: productID.String(), Type: "remove", Quantity: 8}
		result := &types.AdjustStockResult{PreviousStock: 10, NewStock: 2, Adjustment: -8}
		alert := &types.StockAlert{ID: productID, SKU: "WID-001", StockQuantity: 2, LowStockThreshold: 5, AlertLevel: "low_stock"}
		mockRepo.On("AdjustStock", ctx, productID, "remove", 8, "Manual adjustment", &actor.ID).
			Return(result, alert, nil).Once()

		got, err := service.AdjustStock(ctx, actor, params)
		require.NoError(t, err)
		assert.Equal(t, result, got)

		published := hub.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.StockAlert, published[0].Type)
		assert.Equal(t, alert, published[0].Payload)
		mockRepo.AssertExpectations(t)
	})

	t.Run("adjustment above threshold stays quiet", func(t *testing.T) {
		before := len(hub.published())
		reason := "Restock delivery"
		params := types.AdjustStockParams{ProductID: productID.String(), Type: "add", Quantity: 50, Reason: &reason}
		result := &types.AdjustStockResult{PreviousStock: 2, NewStock: 52, Adjustment: 50}
		mockRepo.On("AdjustStock", ctx, productID, "add", 50, "Restock delivery", &actor.ID).
			Return(result, nil, nil).Once()

		got, err := service.AdjustStock(ctx, actor, params)
		require.NoError(t, err)
		assert.Equal(t, result, got)
		assert.Len(t, hub.published(), before)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed product id", func(t *testing.T) {
		params := types.AdjustStockParams{ProductID: "not-a-uuid", Type: "add", Quantity: 1}

		_, err := service.AdjustStock(ctx, actor, params)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		params := types.AdjustStockParams{ProductID: productID.String(), Type: "set", Quantity: 5}
		mockRepo.On("AdjustStock", ctx, productID, "set", 5, "Manual adjustment", &actor.ID).
			Return(nil, nil, types.ErrNotFound).Once()

		_, err := service.AdjustStock(ctx, actor, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestInventoryService_Transactions(t *testing.T) {
	service, mockRepo, _ := setupInventoryServiceTest()
	ctx := context.Background()

	t.Run("zero limit falls back to the default", func(t *testing.T) {
		mockRepo.On("Transactions", ctx, (*uuid.UUID)(nil), defaultTransactionLimit).
			Return([]types.InventoryTransaction{}, nil).Once()

		_, err := service.Transactions(ctx, nil, 0)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("oversized limit falls back to the default", func(t *testing.T) {
		mockRepo.On("Transactions", ctx, (*uuid.UUID)(nil), defaultTransactionLimit).
			Return([]types.InventoryTransaction{}, nil).Once()

		_, err := service.Transactions(ctx, nil, 5000)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}
