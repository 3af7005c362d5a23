package customer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) List(ctx context.Context, p query.Params) ([]types.Customer, int, error) {
	args := m.Called(ctx, p)
	var customers []types.Customer
	if args.Get(0) != nil {
		customers = args.Get(0).([]types.Customer)
	}
	return customers, args.Int(1), args.Error(2)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, customerID uuid.UUID) (*types.CustomerDetail, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CustomerDetail), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, params types.CreateCustomerParams) (*types.Customer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customerID uuid.UUID, params types.UpdateCustomerParams) error {
	args := m.Called(ctx, customerID, params)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type recordingTracker struct {
	events []string
}

func (t *recordingTracker) TrackActivity(_ context.Context, _ *uuid.UUID, params types.TrackActivityParams) error {
	t.events = append(t.events, params.EventType)
	return nil
}

func setupCustomerServiceTest() (*ServiceImpl, *MockCustomerRepository, *recordingTracker) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockCustomerRepository)
	tracker := &recordingTracker{}
	service := NewService(mockRepo, tracker, logger)
	return service, mockRepo, tracker
}

func TestCustomerService_Create(t *testing.T) {
	service, mockRepo, tracker := setupCustomerServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleManager}
	params := types.CreateCustomerParams{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}

	t.Run("success records a customer_created event", func(t *testing.T) {
		created := &types.Customer{ID: uuid.New(), Email: "jane@example.com"}
		mockRepo.On("Create", ctx, params).Return(created, nil).Once()

		got, err := service.Create(ctx, actor, params)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		assert.Contains(t, tracker.events, "customer_created")
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces as conflict", func(t *testing.T) {
		mockRepo.On("Create", ctx, params).Return(nil, types.ErrConflict).Once()

		_, err := service.Create(ctx, actor, params)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_Update(t *testing.T) {
	service, mockRepo, _ := setupCustomerServiceTest()
	ctx := context.Background()
	customerID := uuid.New()
	email := "new@example.com"
	params := types.UpdateCustomerParams{Email: &email}

	t.Run("reloads the detail after a successful update", func(t *testing.T) {
		detail := &types.CustomerDetail{Customer: types.Customer{ID: customerID, Email: email}}
		mockRepo.On("Update", ctx, customerID, params).Return(nil).Once()
		mockRepo.On("GetByID", ctx, customerID).Return(detail, nil).Once()

		got, err := service.Update(ctx, nil, customerID, params)
		require.NoError(t, err)
		assert.Equal(t, detail, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing customer", func(t *testing.T) {
		mockRepo.On("Update", ctx, customerID, params).Return(types.ErrNotFound).Once()

		_, err := service.Update(ctx, nil, customerID, params)
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_List(t *testing.T) {
	service, mockRepo, _ := setupCustomerServiceTest()
	ctx := context.Background()

	p := query.Params{Page: 2, Limit: 10}
	mockRepo.On("List", ctx, p).Return([]types.Customer{{ID: uuid.New()}}, 45, nil).Once()

	customers, pagination, err := service.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 45, pagination.Total)
	assert.Equal(t, 5, pagination.Pages)
	mockRepo.AssertExpectations(t)
}
