package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

// activityTracker records audit events for administrative writes. Failures
// are logged, never surfaced to the caller.
type activityTracker interface {
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for user management.
type Service interface {
	List(ctx context.Context, p query.Params) ([]types.User, types.Pagination, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
	Create(ctx context.Context, actor *types.Identity, params types.CreateUserParams) (*types.User, error)
	Update(ctx context.Context, actor *types.Identity, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error)
	// Delete hard-deletes a user. Returns types.ErrForbidden when the actor
	// targets their own account.
	Delete(ctx context.Context, actor *types.Identity, userID uuid.UUID) error
	ResetPassword(ctx context.Context, actor *types.Identity, userID uuid.UUID, newPassword string) error
	// Bulk applies activate/deactivate/delete to a set of users. The actor's
	// own account must not be in the set.
	Bulk(ctx context.Context, actor *types.Identity, params types.BulkUserParams) (int, error)
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

func (s *ServiceImpl) List(ctx context.Context, p query.Params) ([]types.User, types.Pagination, error) {
	users, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return users, types.NewPagination(p.Page, query.ClampLimit(p.Limit), total), nil
}

func (s *ServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *ServiceImpl) Create(ctx context.Context, actor *types.Identity, params types.CreateUserParams) (*types.User, error) {
	l := s.logger.With(slog.String("method", "Create"), slog.String("email", params.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	created, err := s.repo.Create(ctx, params, string(hash))
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.track(ctx, actor, "user_created", map[string]any{
		"userId": created.ID.String(),
		"email":  created.Email,
		"role":   created.Role,
	})
	l.InfoContext(ctx, "User created", slog.String("userID", created.ID.String()))
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, actor *types.Identity, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error) {
	l := s.logger.With(slog.String("method", "Update"), slog.String("userID", userID.String()))

	if err := s.repo.Update(ctx, userID, params); err != nil {
		if errors.Is(err, types.ErrConflict) || errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reloading user: %w", err)
	}

	s.track(ctx, actor, "user_updated", map[string]any{"userId": userID.String()})
	l.InfoContext(ctx, "User updated")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, actor *types.Identity, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("userID", userID.String()))

	if actor != nil && actor.ID == userID {
		return types.ErrForbidden
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.track(ctx, actor, "user_deleted", map[string]any{"userId": userID.String()})
	l.InfoContext(ctx, "User deleted")
	return nil
}

func (s *ServiceImpl) ResetPassword(ctx context.Context, actor *types.Identity, userID uuid.UUID, newPassword string) error {
	l := s.logger.With(slog.String("method", "ResetPassword"), slog.String("userID", userID.String()))

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to reset password", slog.Any("error", err))
		return fmt.Errorf("error resetting password: %w", err)
	}

	s.track(ctx, actor, "user_password_reset", map[string]any{"userId": userID.String()})
	l.InfoContext(ctx, "Password reset")
	return nil
}

func (s *ServiceImpl) Bulk(ctx context.Context, actor *types.Identity, params types.BulkUserParams) (int, error) {
	l := s.logger.With(slog.String("method", "Bulk"), slog.String("operation", params.Operation))

	ids := make([]uuid.UUID, 0, len(params.UserIDs))
	for _, raw := range params.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid user id %q", types.ErrValidation, raw)
		}
		if actor != nil && actor.ID == id {
			return 0, types.ErrForbidden
		}
		ids = append(ids, id)
	}

	var (
		affected int
		err      error
	)
	switch params.Operation {
	case "activate":
		affected, err = s.repo.SetActive(ctx, ids, true)
	case "deactivate":
		affected, err = s.repo.SetActive(ctx, ids, false)
	case "delete":
		affected, err = s.repo.DeleteMany(ctx, ids)
	default:
		return 0, fmt.Errorf("%w: unknown operation %q", types.ErrValidation, params.Operation)
	}
	if err != nil {
		l.ErrorContext(ctx, "Bulk operation failed", slog.Any("error", err))
		return 0, fmt.Errorf("error applying bulk operation: %w", err)
	}

	s.track(ctx, actor, "user_bulk_"+params.Operation, map[string]any{
		"userIds":  params.UserIDs,
		"affected": affected,
	})
	l.InfoContext(ctx, "Bulk operation applied", slog.Int("affected", affected))
	return affected, nil
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
