package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type activityTracker interface {
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for customer management.
type Service interface {
	List(ctx context.Context, p query.Params) ([]types.Customer, types.Pagination, error)
	Get(ctx context.Context, customerID uuid.UUID) (*types.CustomerDetail, error)
	Create(ctx context.Context, actor *types.Identity, params types.CreateCustomerParams) (*types.Customer, error)
	Update(ctx context.Context, actor *types.Identity, customerID uuid.UUID, params types.UpdateCustomerParams) (*types.CustomerDetail, error)
	Delete(ctx context.Context, actor *types.Identity, customerID uuid.UUID) error
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	tracker activityTracker
}

func NewService(repo Repository, tracker activityTracker, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		tracker: tracker,
	}
}

func (s *ServiceImpl) List(ctx context.Context, p query.Params) ([]types.Customer, types.Pagination, error) {
	customers, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return customers, types.NewPagination(p.Page, query.ClampLimit(p.Limit), total), nil
}

func (s *ServiceImpl) Get(ctx context.Context, customerID uuid.UUID) (*types.CustomerDetail, error) {
	return s.repo.GetByID(ctx, customerID)
}

func (s *ServiceImpl) Create(ctx context.Context, actor *types.Identity, params types.CreateCustomerParams) (*types.Customer, error) {
	l := s.logger.With(slog.String("method", "Create"))

	created, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create customer", slog.Any("error", err))
		return nil, fmt.Errorf("error creating customer: %w", err)
	}

	s.track(ctx, actor, "customer_created", map[string]any{
		"customerId": created.ID.String(),
		"email":      created.Email,
	})
	l.InfoContext(ctx, "Customer created", slog.String("customerID", created.ID.String()))
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, actor *types.Identity, customerID uuid.UUID, params types.UpdateCustomerParams) (*types.CustomerDetail, error) {
	l := s.logger.With(slog.String("method", "Update"), slog.String("customerID", customerID.String()))

	if err := s.repo.Update(ctx, customerID, params); err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return nil, fmt.Errorf("error updating customer: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("error reloading customer: %w", err)
	}

	s.track(ctx, actor, "customer_updated", map[string]any{"customerId": customerID.String()})
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, actor *types.Identity, customerID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("customerID", customerID.String()))

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("error deleting customer: %w", err)
	}

	s.track(ctx, actor, "customer_deleted", map[string]any{"customerId": customerID.String()})
	l.InfoContext(ctx, "Customer deleted")
	return nil
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
