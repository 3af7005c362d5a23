package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

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

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for orders.
type Service interface {
	List(ctx context.Context, p query.Params) ([]types.Order, types.Pagination, error)
	Get(ctx context.Context, orderID uuid.UUID) (*types.OrderDetail, error)
	Create(ctx context.Context, actor *types.Identity, params types.CreateOrderParams) (*types.OrderDetail, error)
	UpdateStatus(ctx context.Context, actor *types.Identity, orderID uuid.UUID, params types.UpdateOrderStatusParams) (*types.OrderDetail, error)
	Stats(ctx context.Context) (*types.OrderStats, error)
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

func (s *ServiceImpl) List(ctx context.Context, p query.Params) ([]types.Order, types.Pagination, error) {
	orders, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return orders, types.NewPagination(p.Page, query.ClampLimit(p.Limit), total), nil
}

func (s *ServiceImpl) Get(ctx context.Context, orderID uuid.UUID) (*types.OrderDetail, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *ServiceImpl) Create(ctx context.Context, actor *types.Identity, params types.CreateOrderParams) (*types.OrderDetail, error) {
	l := s.logger.With(slog.String("method", "Create"))

	orderNumber := newOrderNumber()
	created, err := s.repo.Create(ctx, orderNumber, params)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("error creating order: %w", err)
	}

	s.track(ctx, actor, "order_created", map[string]any{
		"orderId":     created.ID.String(),
		"orderNumber": created.OrderNumber,
		"total":       created.Total,
	})
	s.hub.Publish(events.Event{Type: events.OrderCreated, Payload: created})
	l.InfoContext(ctx, "Order created",
		slog.String("orderID", created.ID.String()),
		slog.String("orderNumber", created.OrderNumber),
	)
	return created, nil
}

func (s *ServiceImpl) UpdateStatus(ctx context.Context, actor *types.Identity, orderID uuid.UUID, params types.UpdateOrderStatusParams) (*types.OrderDetail, error) {
	l := s.logger.With(slog.String("method", "UpdateStatus"), slog.String("orderID", orderID.String()))

	if err := s.repo.UpdateStatus(ctx, orderID, params); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("error updating order status: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("error reloading order: %w", err)
	}

	s.track(ctx, actor, "order_status_updated", map[string]any{
		"orderId": orderID.String(),
		"status":  params.Status,
	})
	s.hub.Publish(events.Event{Type: events.OrderUpdated, Payload: updated})
	l.InfoContext(ctx, "Order status updated", slog.String("status", params.Status))
	return updated, nil
}

func (s *ServiceImpl) Stats(ctx context.Context) (*types.OrderStats, error) {
	return s.repo.Stats(ctx)
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderNumber builds a human-readable unique order number:
// ORD-<unix millis>-<9 random base36 chars>.
func newOrderNumber() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))])
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), b.String())
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
