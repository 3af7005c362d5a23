package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/events"
	"github.com/hongfa/admin-api/internal/types"
)

type eventPublisher interface {
	Publish(evt events.Event)
}

type activityTracker interface {
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

const defaultTransactionLimit = 50

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for stock management.
type Service interface {
	Overview(ctx context.Context) (*types.InventoryStats, []types.InventoryItem, error)
	AdjustStock(ctx context.Context, actor *types.Identity, params types.AdjustStockParams) (*types.AdjustStockResult, error)
	SetReorderPoint(ctx context.Context, actor *types.Identity, params types.ReorderPointParams) error
	Alerts(ctx context.Context) ([]types.StockAlert, error)
	Transactions(ctx context.Context, productID *uuid.UUID, limit int) ([]types.InventoryTransaction, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	hub     eventPublisher
	tracker activityTracker
}

func NewService(repo Repository, hub eventPublisher, tracker activityTracker, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		hub:     hub,
		tracker: tracker,
	}
}

func (s *ServiceImpl) Overview(ctx context.Context) (*types.InventoryStats, []types.InventoryItem, error) {
	return s.repo.Overview(ctx)
}

// AdjustStock applies a manual stock movement and broadcasts a stock alert
// when the product ends at or below its low-stock threshold.
func (s *ServiceImpl) AdjustStock(ctx context.Context, actor *types.Identity, params types.AdjustStockParams) (*types.AdjustStockResult, error) {
	l := s.logger.With(slog.String("method", "AdjustStock"), slog.String("productID", params.ProductID))

	productID, err := uuid.Parse(params.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product id", types.ErrValidation)
	}

	reason := "Manual adjustment"
	if params.Reason != nil && *params.Reason != "" {
		reason = *params.Reason
	}
	var createdBy *uuid.UUID
	if actor != nil {
		createdBy = &actor.ID
	}

	result, alert, err := s.repo.AdjustStock(ctx, productID, params.Type, params.Quantity, reason, createdBy)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to adjust stock", slog.Any("error", err))
		return nil, fmt.Errorf("error adjusting stock: %w", err)
	}

	s.track(ctx, actor, "stock_adjusted", map[string]any{
		"productId":  params.ProductID,
		"type":       params.Type,
		"quantity":   params.Quantity,
		"adjustment": result.Adjustment,
	})
	if alert != nil {
		s.hub.Publish(events.Event{Type: events.StockAlert, Payload: alert})
		l.InfoContext(ctx, "Stock alert broadcast",
			slog.String("sku", alert.SKU),
			slog.String("alertLevel", alert.AlertLevel),
		)
	}
	return result, nil
}

func (s *ServiceImpl) SetReorderPoint(ctx context.Context, actor *types.Identity, params types.ReorderPointParams) error {
	l := s.logger.With(slog.String("method", "SetReorderPoint"), slog.String("productID", params.ProductID))

	productID, err := uuid.Parse(params.ProductID)
	if err != nil {
		return fmt.Errorf("%w: invalid product id", types.ErrValidation)
	}

	if err := s.repo.SetReorderPoint(ctx, productID, params.ReorderPoint); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to set reorder point", slog.Any("error", err))
		return fmt.Errorf("error setting reorder point: %w", err)
	}

	s.track(ctx, actor, "reorder_point_updated", map[string]any{
		"productId":    params.ProductID,
		"reorderPoint": params.ReorderPoint,
	})
	return nil
}

func (s *ServiceImpl) Alerts(ctx context.Context) ([]types.StockAlert, error) {
	return s.repo.Alerts(ctx)
}

func (s *ServiceImpl) Transactions(ctx context.Context, productID *uuid.UUID, limit int) ([]types.InventoryTransaction, error) {
	if limit < 1 || limit > 200 {
		limit = defaultTransactionLimit
	}
	return s.repo.Transactions(ctx, productID, limit)
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
