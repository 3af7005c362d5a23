package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/types"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	args := m.Called(ctx, email, password)
	var user *types.User
	if args.Get(1) != nil {
		user = args.Get(1).(*types.User)
	}
	return args.String(0), user, args.Error(2)
}

func (m *MockAuthService) Identity(ctx context.Context, userID uuid.UUID) (*types.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func (m *MockAuthService) Profile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, params types.ChangePasswordParams) error {
	args := m.Called(ctx, userID, params)
	return args.Error(0)
}

func signTestToken(t *testing.T, userID uuid.UUID, role types.Role, ttl time.Duration) string {
	t.Helper()
	claims := types.Claims{
		UserID: userID.String(),
		Email:  "admin@example.com",
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWTCfg.Issuer,
			Audience:  jwt.ClaimStrings{testJWTCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-ttl / 2)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTCfg.SecretKey))
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		ident, ok := GetIdentityFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, ident.ID)
		w.WriteHeader(http.StatusOK)
	})

	do := func(t *testing.T, service Service, authHeader string) *httptest.ResponseRecorder {
		t.Helper()
		nextCalled = false
		handler := Authenticate(service, testJWTCfg, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token for active user passes", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Identity", mock.Anything, userID).
			Return(&types.Identity{ID: userID, Email: "admin@example.com", Role: types.RoleAdmin, IsActive: true}, nil).Once()

		rec := do(t, service, "Bearer "+signTestToken(t, userID, types.RoleAdmin, time.Hour))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, nextCalled)
		service.AssertExpectations(t)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := do(t, new(MockAuthService), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := do(t, new(MockAuthService), "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("expired token", func(t *testing.T) {
		rec := do(t, new(MockAuthService), "Bearer "+signTestToken(t, userID, types.RoleAdmin, -time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
		assert.False(t, nextCalled)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := signTestToken(t, userID, types.RoleAdmin, time.Hour)
		rec := do(t, new(MockAuthService), "Bearer "+token+"x")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("deactivated user is rejected despite valid token", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Identity", mock.Anything, userID).
			Return(&types.Identity{ID: userID, Role: types.RoleAdmin, IsActive: false}, nil).Once()

		rec := do(t, service, "Bearer "+signTestToken(t, userID, types.RoleAdmin, time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
		service.AssertExpectations(t)
	})

	t.Run("deleted user is rejected despite valid token", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Identity", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()

		rec := do(t, service, "Bearer "+signTestToken(t, userID, types.RoleAdmin, time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
		service.AssertExpectations(t)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	do := func(t *testing.T, min types.Role, ident *types.Identity) *httptest.ResponseRecorder {
		t.Helper()
		handler := RequireRole(logger, min)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil)
		if ident != nil {
			req = req.WithContext(context.WithValue(req.Context(), identityKey, ident))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	cases := []struct {
		name string
		min  types.Role
		role types.Role
		want int
	}{
		{"manager meets manager", types.RoleManager, types.RoleManager, http.StatusOK},
		{"manager fails admin", types.RoleAdmin, types.RoleManager, http.StatusForbidden},
		{"admin meets admin", types.RoleAdmin, types.RoleAdmin, http.StatusOK},
		{"admin fails super admin", types.RoleSuperAdmin, types.RoleAdmin, http.StatusForbidden},
		{"super admin meets everything", types.RoleManager, types.RoleSuperAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, tc.min, &types.Identity{ID: uuid.New(), Role: tc.role, IsActive: true})
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("missing identity", func(t *testing.T) {
		rec := do(t, types.RoleManager, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
