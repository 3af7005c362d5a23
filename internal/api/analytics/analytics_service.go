package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the reporting and activity-tracking contract. TrackActivity
// is also consumed by the other domain services to log admin actions.
type Service interface {
	DashboardOverview(ctx context.Context) (*types.DashboardOverview, error)
	SalesReport(ctx context.Context, startDate, endDate, groupBy string) (*types.SalesReport, error)
	CustomerReport(ctx context.Context, period string) (*types.CustomerReport, error)
	InventoryReport(ctx context.Context) (*types.InventoryReport, error)
	ComprehensiveReport(ctx context.Context, startDate, endDate string) (*types.ComprehensiveReport, error)
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

const dateLayout = "2006-01-02"

func (s *ServiceImpl) DashboardOverview(ctx context.Context) (*types.DashboardOverview, error) {
	return s.repo.DashboardOverview(ctx)
}

func (s *ServiceImpl) SalesReport(ctx context.Context, startDate, endDate, groupBy string) (*types.SalesReport, error) {
	start, end, err := resolveDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if groupBy == "" {
		groupBy = "day"
	}
	if _, ok := periodExpr[groupBy]; !ok {
		return nil, fmt.Errorf("%w: groupBy must be one of day, week, month", types.ErrValidation)
	}
	return s.repo.SalesReport(ctx, start, end, groupBy)
}

func (s *ServiceImpl) CustomerReport(ctx context.Context, period string) (*types.CustomerReport, error) {
	if period == "" {
		period = "30d"
	}
	days, err := periodDays(period)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.CustomerReport(ctx, days)
	if err != nil {
		return nil, err
	}
	report.Period = period
	return report, nil
}

func (s *ServiceImpl) InventoryReport(ctx context.Context) (*types.InventoryReport, error) {
	return s.repo.InventoryReport(ctx)
}

func (s *ServiceImpl) ComprehensiveReport(ctx context.Context, startDate, endDate string) (*types.ComprehensiveReport, error) {
	start, end, err := resolveDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ComprehensiveReport(ctx, start, end)
}

func (s *ServiceImpl) TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error {
	return s.repo.InsertEvent(ctx, userID, params)
}

// resolveDateRange validates the optional bounds and defaults to the last 30
// days.
func resolveDateRange(startDate, endDate string) (string, string, error) {
	now := time.Now()
	if startDate == "" {
		startDate = now.AddDate(0, 0, -30).Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, startDate); err != nil {
		return "", "", fmt.Errorf("%w: startDate must be YYYY-MM-DD", types.ErrValidation)
	}
	if endDate == "" {
		endDate = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, endDate); err != nil {
		return "", "", fmt.Errorf("%w: endDate must be YYYY-MM-DD", types.ErrValidation)
	}
	return startDate, endDate, nil
}

func periodDays(period string) (int, error) {
	switch period {
	case "", "30d":
		return 30, nil
	case "7d":
		return 7, nil
	case "90d":
		return 90, nil
	case "1y":
		return 365, nil
	default:
		return 0, fmt.Errorf("%w: period must be one of 7d, 30d, 90d, 1y", types.ErrValidation)
	}
}
