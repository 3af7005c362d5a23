package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongfa/admin-api/config"
	"github.com/hongfa/admin-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for authentication.
type Service interface {
	// Login verifies the credentials and returns a signed access token plus
	// the authenticated user. Returns types.ErrUnauthenticated for unknown
	// emails, wrong passwords and deactivated accounts alike.
	Login(ctx context.Context, email, password string) (string, *types.User, error)

	// Identity re-checks the token subject against the live users table.
	Identity(ctx context.Context, userID uuid.UUID) (*types.Identity, error)

	// Profile returns the authenticated user's own account.
	Profile(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// UpdateProfile applies a partial self-service update.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)

	// ChangePassword verifies the current password before storing the new one.
	ChangePassword(ctx context.Context, userID uuid.UUID, params types.ChangePasswordParams) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	jwtCfg config.JWTConfig
}

func NewService(repo Repository, jwtCfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

func (s *ServiceImpl) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login attempt for unknown email")
			return "", nil, types.ErrUnauthenticated
		}
		l.ErrorContext(ctx, "Failed to fetch user for login", slog.Any("error", err))
		return "", nil, fmt.Errorf("error fetching user: %w", err)
	}

	if !user.IsActive {
		l.WarnContext(ctx, "Login attempt for deactivated account")
		return "", nil, types.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.WarnContext(ctx, "Password mismatch")
		return "", nil, types.ErrUnauthenticated
	}

	token, err := s.signToken(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to sign access token", slog.Any("error", err))
		return "", nil, fmt.Errorf("error signing token: %w", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Non-fatal: the login itself succeeded.
		l.WarnContext(ctx, "Failed to update last login", slog.Any("error", err))
	}
	now := time.Now()
	user.LastLogin = &now

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return token, user, nil
}

func (s *ServiceImpl) Identity(ctx context.Context, userID uuid.UUID) (*types.Identity, error) {
	return s.repo.GetIdentity(ctx, userID)
}

func (s *ServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))

	if err := s.repo.UpdateProfile(ctx, userID, params); err != nil {
		if errors.Is(err, types.ErrConflict) || errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reloading profile: %w", err)
	}
	l.InfoContext(ctx, "Profile updated")
	return user, nil
}

func (s *ServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, params types.ChangePasswordParams) error {
	l := s.logger.With(slog.String("method", "ChangePassword"), slog.String("userID", userID.String()))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.CurrentPassword)); err != nil {
		l.WarnContext(ctx, "Current password mismatch")
		return types.ErrUnauthenticated
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		l.ErrorContext(ctx, "Failed to store new password", slog.Any("error", err))
		return fmt.Errorf("error updating password: %w", err)
	}

	l.InfoContext(ctx, "Password changed")
	return nil
}

func (s *ServiceImpl) signToken(user *types.User) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
