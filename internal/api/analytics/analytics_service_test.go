package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/types"
)

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) DashboardOverview(ctx context.Context) (*types.DashboardOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DashboardOverview), args.Error(1)
}

func (m *MockAnalyticsRepository) SalesReport(ctx context.Context, start, end string, groupBy string) (*types.SalesReport, error) {
	args := m.Called(ctx, start, end, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SalesReport), args.Error(1)
}

func (m *MockAnalyticsRepository) CustomerReport(ctx context.Context, days int) (*types.CustomerReport, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CustomerReport), args.Error(1)
}

func (m *MockAnalyticsRepository) InventoryReport(ctx context.Context) (*types.InventoryReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.InventoryReport), args.Error(1)
}

func (m *MockAnalyticsRepository) ComprehensiveReport(ctx context.Context, start, end string) (*types.ComprehensiveReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ComprehensiveReport), args.Error(1)
}

func (m *MockAnalyticsRepository) InsertEvent(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error {
	args := m.Called(ctx, userID, params)
	return args.Error(0)
}

func setupAnalyticsServiceTest() (*ServiceImpl, *MockAnalyticsRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockAnalyticsRepository)
	service := NewService(mockRepo, logger)
	return service, mockRepo
}

func TestAnalyticsService_SalesReport(t *testing.T) {
	service, mockRepo := setupAnalyticsServiceTest()
	ctx := context.Background()

	t.Run("defaults to the last 30 days grouped by day", func(t *testing.T) {
		wantStart := time.Now().AddDate(0, 0, -30).Format(dateLayout)
		wantEnd := time.Now().Format(dateLayout)
		mockRepo.On("SalesReport", ctx, wantStart, wantEnd, "day").
			Return(&types.SalesReport{}, nil).Once()

		_, err := service.SalesReport(ctx, "", "", "")
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("explicit range and grouping are passed through", func(t *testing.T) {
		mockRepo.On("SalesReport", ctx, "2026-01-01", "2026-03-31", "month").
			Return(&types.SalesReport{}, nil).Once()

		_, err := service.SalesReport(ctx, "2026-01-01", "2026-03-31", "month")
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := service.SalesReport(ctx, "January 1st", "", "day")
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("unknown grouping", func(t *testing.T) {
		_, err := service.SalesReport(ctx, "", "", "hour")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestAnalyticsService_CustomerReport(t *testing.T) {
	service, mockRepo := setupAnalyticsServiceTest()
	ctx := context.Background()

	t.Run("period keywords map to day counts", func(t *testing.T) {
		mockRepo.On("CustomerReport", ctx, 90).Return(&types.CustomerReport{}, nil).Once()

		report, err := service.CustomerReport(ctx, "90d")
		require.NoError(t, err)
		assert.Equal(t, "90d", report.Period)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty period defaults to 30d", func(t *testing.T) {
		mockRepo.On("CustomerReport", ctx, 30).Return(&types.CustomerReport{}, nil).Once()

		report, err := service.CustomerReport(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "30d", report.Period)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, err := service.CustomerReport(ctx, "2w")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestAnalyticsService_TrackActivity(t *testing.T) {
	service, mockRepo := setupAnalyticsServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	params := types.TrackActivityParams{
		EventType: "product_created",
		EventData: map[string]any{"productId": uuid.NewString()},
	}
	mockRepo.On("InsertEvent", ctx, &userID, params).Return(nil).Once()

	err := service.TrackActivity(ctx, &userID, params)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
