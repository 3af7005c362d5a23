package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongfa/admin-api/config"
	"github.com/hongfa/admin-api/internal/types"
)

// MockAuthRepository is a mock implementation of Repository
type MockAuthRepository struct {
	mock.Mock
}

func (m *MockAuthRepository) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepository) GetIdentity(ctx context.Context, userID uuid.UUID) (*types.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func (m *MockAuthRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) error {
	args := m.Called(ctx, userID, params)
	return args.Error(0)
}

func (m *MockAuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockAuthRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var testJWTCfg = config.JWTConfig{
	SecretKey:      "test-secret-key",
	AccessTokenTTL: 24 * time.Hour,
	Issuer:         "admin-api",
	Audience:       "admin-dashboard",
}

func setupAuthServiceTest() (*ServiceImpl, *MockAuthRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockAuthRepository)
	service := NewService(mockRepo, testJWTCfg, logger)
	return service, mockRepo
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestServiceImpl_Login(t *testing.T) {
	service, mockRepo := setupAuthServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	activeUser := func() *types.User {
		return &types.User{
			ID:           userID,
			Email:        "admin@example.com",
			PasswordHash: hashPassword(t, "correct-horse"),
			Role:         types.RoleAdmin,
			IsActive:     true,
		}
	}

	t.Run("success issues a verifiable token", func(t *testing.T) {
		mockRepo.On("GetUserByEmail", ctx, "admin@example.com").Return(activeUser(), nil).Once()
		mockRepo.On("UpdateLastLogin", ctx, userID).Return(nil).Once()

		token, user, err := service.Login(ctx, "admin@example.com", "correct-horse")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.NotNil(t, user.LastLogin)

		claims := &types.Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testJWTCfg.SecretKey), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, string(types.RoleAdmin), claims.Role)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, types.ErrNotFound).Once()

		_, _, err := service.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo.On("GetUserByEmail", ctx, "admin@example.com").Return(activeUser(), nil).Once()

		_, _, err := service.Login(ctx, "admin@example.com", "wrong")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("deactivated account", func(t *testing.T) {
		u := activeUser()
		u.IsActive = false
		mockRepo.On("GetUserByEmail", ctx, "admin@example.com").Return(u, nil).Once()

		_, _, err := service.Login(ctx, "admin@example.com", "correct-horse")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repoErr := errors.New("database connection error")
		mockRepo.On("GetUserByEmail", ctx, "admin@example.com").Return(nil, repoErr).Once()

		_, _, err := service.Login(ctx, "admin@example.com", "correct-horse")
		require.Error(t, err)
		assert.ErrorIs(t, err, repoErr)
		mockRepo.AssertExpectations(t)
	})

	t.Run("last login update failure is non-fatal", func(t *testing.T) {
		mockRepo.On("GetUserByEmail", ctx, "admin@example.com").Return(activeUser(), nil).Once()
		mockRepo.On("UpdateLastLogin", ctx, userID).Return(errors.New("write timeout")).Once()

		token, _, err := service.Login(ctx, "admin@example.com", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceImpl_ChangePassword(t *testing.T) {
	service, mockRepo := setupAuthServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	user := func() *types.User {
		return &types.User{
			ID:           userID,
			Email:        "admin@example.com",
			PasswordHash: hashPassword(t, "old-password"),
			IsActive:     true,
		}
	}

	t.Run("success stores a bcrypt hash of the new password", func(t *testing.T) {
		mockRepo.On("GetUserByID", ctx, userID).Return(user(), nil).Once()
		mockRepo.On("UpdatePassword", ctx, userID, mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
		})).Return(nil).Once()

		err := service.ChangePassword(ctx, userID, types.ChangePasswordParams{
			CurrentPassword: "old-password",
			NewPassword:     "new-password",
		})
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockRepo.On("GetUserByID", ctx, userID).Return(user(), nil).Once()

		err := service.ChangePassword(ctx, userID, types.ChangePasswordParams{
			CurrentPassword: "not-it",
			NewPassword:     "new-password",
		})
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}
