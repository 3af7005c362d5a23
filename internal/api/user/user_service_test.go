package user

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context, p query.Params) ([]types.User, int, error) {
	args := m.Called(ctx, p)
	var users []types.User
	if args.Get(0) != nil {
		users = args.Get(0).([]types.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, params types.CreateUserParams, passwordHash string) (*types.User, error) {
	args := m.Called(ctx, params, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error {
	args := m.Called(ctx, userID, params)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, userIDs []uuid.UUID, active bool) (int, error) {
	args := m.Called(ctx, userIDs, active)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) DeleteMany(ctx context.Context, userIDs []uuid.UUID) (int, error) {
	args := m.Called(ctx, userIDs)
	return args.Int(0), args.Error(1)
}

type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error {
	args := m.Called(ctx, userID, params)
	return args.Error(0)
}

func setupUserServiceTest() (*ServiceImpl, *MockUserRepository, *MockTracker) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockUserRepository)
	tracker := new(MockTracker)
	service := NewService(mockRepo, tracker, logger)
	return service, mockRepo, tracker
}

func TestServiceImpl_Create(t *testing.T) {
	service, mockRepo, tracker := setupUserServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleSuperAdmin}

	params := types.CreateUserParams{
		Email:     "new@example.com",
		Password:  "secret-pass",
		FirstName: "New",
		LastName:  "Person",
		Role:      "manager",
	}

	t.Run("hashes the password before persisting", func(t *testing.T) {
		created := &types.User{ID: uuid.New(), Email: params.Email, Role: types.RoleManager}
		mockRepo.On("Create", ctx, params, mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret-pass")) == nil
		})).Return(created, nil).Once()
		tracker.On("TrackActivity", ctx, &actor.ID, mock.MatchedBy(func(p types.TrackActivityParams) bool {
			return p.EventType == "user_created"
		})).Return(nil).Once()

		got, err := service.Create(ctx, actor, params)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		mockRepo.AssertExpectations(t)
		tracker.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces as conflict", func(t *testing.T) {
		mockRepo.On("Create", ctx, params, mock.Anything).Return(nil, types.ErrConflict).Once()

		_, err := service.Create(ctx, actor, params)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	service, mockRepo, tracker := setupUserServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleSuperAdmin}

	t.Run("cannot delete own account", func(t *testing.T) {
		err := service.Delete(ctx, actor, actor.ID)
		assert.ErrorIs(t, err, types.ErrForbidden)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes another account", func(t *testing.T) {
		target := uuid.New()
		mockRepo.On("Delete", ctx, target).Return(nil).Once()
		tracker.On("TrackActivity", ctx, &actor.ID, mock.Anything).Return(nil).Once()

		err := service.Delete(ctx, actor, target)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceImpl_Bulk(t *testing.T) {
	service, mockRepo, tracker := setupUserServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleSuperAdmin}
	other1, other2 := uuid.New(), uuid.New()

	t.Run("rejects sets containing the actor", func(t *testing.T) {
		_, err := service.Bulk(ctx, actor, types.BulkUserParams{
			Operation: "deactivate",
			UserIDs:   []string{other1.String(), actor.ID.String()},
		})
		assert.ErrorIs(t, err, types.ErrForbidden)
		mockRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		_, err := service.Bulk(ctx, actor, types.BulkUserParams{
			Operation: "activate",
			UserIDs:   []string{"not-a-uuid"},
		})
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("deactivate", func(t *testing.T) {
		mockRepo.On("SetActive", ctx, []uuid.UUID{other1, other2}, false).Return(2, nil).Once()
		tracker.On("TrackActivity", ctx, &actor.ID, mock.Anything).Return(nil).Once()

		affected, err := service.Bulk(ctx, actor, types.BulkUserParams{
			Operation: "deactivate",
			UserIDs:   []string{other1.String(), other2.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, affected)
		mockRepo.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		mockRepo.On("DeleteMany", ctx, []uuid.UUID{other1}).Return(1, nil).Once()
		tracker.On("TrackActivity", ctx, &actor.ID, mock.Anything).Return(nil).Once()

		affected, err := service.Bulk(ctx, actor, types.BulkUserParams{
			Operation: "delete",
			UserIDs:   []string{other1.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, affected)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceImpl_List(t *testing.T) {
	service, mockRepo, _ := setupUserServiceTest()
	ctx := context.Background()

	p := query.Params{Page: 2, Limit: 10, Filters: map[string]string{}}
	mockRepo.On("List", ctx, p).Return([]types.User{{Email: "a@example.com"}}, 31, nil).Once()

	users, pagination, err := service.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, types.Pagination{Page: 2, Limit: 10, Total: 31, Pages: 4}, pagination)
	mockRepo.AssertExpectations(t)
}
