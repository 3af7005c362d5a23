package order

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/events"
	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) List(ctx context.Context, p query.Params) ([]types.Order, int, error) {
	args := m.Called(ctx, p)
	var orders []types.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]types.Order)
	}
	return orders, args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*types.OrderDetail, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, orderNumber string, params types.CreateOrderParams) (*types.OrderDetail, error) {
	args := m.Called(ctx, orderNumber, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, params types.UpdateOrderStatusParams) error {
	args := m.Called(ctx, orderID, params)
	return args.Error(0)
}

func (m *MockOrderRepository) Stats(ctx context.Context) (*types.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.OrderStats), args.Error(1)
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

func setupOrderServiceTest() (*ServiceImpl, *MockOrderRepository, *recordingHub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockOrderRepository)
	hub := &recordingHub{}
	service := NewService(mockRepo, hub, noopTracker{}, logger)
	return service, mockRepo, hub
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+-[0-9A-Z]{9}$`)

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		n := newOrderNumber()
		assert.Regexp(t, orderNumberPattern, n)
		seen[n] = struct{}{}
	}
	// Random suffixes make collisions within a run vanishingly unlikely.
	assert.Len(t, seen, 100)
}

func TestOrderService_Create(t *testing.T) {
	service, mockRepo, hub := setupOrderServiceTest()
	ctx := context.Background()

	params := types.CreateOrderParams{
		Items: []types.CreateOrderItemParams{{ProductID: uuid.NewString(), Quantity: 2}},
	}

	t.Run("assigns an order number and broadcasts order-created", func(t *testing.T) {
		detail := &types.OrderDetail{Order: types.Order{ID: uuid.New(), OrderNumber: "ORD-1-AAAAAAAAA", Total: 23.8}}
		mockRepo.On("Create", ctx, mock.MatchedBy(func(n string) bool {
			return orderNumberPattern.MatchString(n)
		}), params).Return(detail, nil).Once()

		created, err := service.Create(ctx, nil, params)
		require.NoError(t, err)
		assert.Equal(t, detail, created)

		published := hub.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.OrderCreated, published[0].Type)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing product publishes nothing", func(t *testing.T) {
		before := len(hub.published())
		mockRepo.On("Create", ctx, mock.Anything, params).Return(nil, types.ErrNotFound).Once()

		_, err := service.Create(ctx, nil, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Len(t, hub.published(), before)
		mockRepo.AssertExpectations(t)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	service, mockRepo, hub := setupOrderServiceTest()
	ctx := context.Background()
	orderID := uuid.New()
	params := types.UpdateOrderStatusParams{Status: types.OrderStatusShipped}

	t.Run("broadcasts order-updated after reload", func(t *testing.T) {
		detail := &types.OrderDetail{Order: types.Order{ID: orderID, Status: types.OrderStatusShipped}}
		mockRepo.On("UpdateStatus", ctx, orderID, params).Return(nil).Once()
		mockRepo.On("GetByID", ctx, orderID).Return(detail, nil).Once()

		updated, err := service.UpdateStatus(ctx, nil, orderID, params)
		require.NoError(t, err)
		assert.Equal(t, detail, updated)

		published := hub.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.OrderUpdated, published[0].Type)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown order publishes nothing", func(t *testing.T) {
		before := len(hub.published())
		mockRepo.On("UpdateStatus", ctx, orderID, params).Return(types.ErrNotFound).Once()

		_, err := service.UpdateStatus(ctx, nil, orderID, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Len(t, hub.published(), before)
		mockRepo.AssertExpectations(t)
	})
}
