package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hongfa/admin-api/config"
	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/types"
)

// Typed context keys for values set by Authenticate.
type contextKey string

const identityKey contextKey = "identity"

// GetIdentityFromContext returns the identity stored by Authenticate.
func GetIdentityFromContext(ctx context.Context) (*types.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*types.Identity)
	return ident, ok
}

// GetUserIDFromContext returns the authenticated user's ID.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	ident, ok := GetIdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return ident.ID, true
}

// Authenticate validates the bearer token and re-checks the subject against
// the users table, so deactivating an account locks it out immediately even
// while its tokens are still unexpired.
func Authenticate(service Service, jwtCfg config.JWTConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := headerParts[1]

			claims := &types.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secretKey, nil
			})
			if err != nil {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					errMsg = "Token has expired"
				} else if errors.Is(err, jwt.ErrTokenMalformed) {
					errMsg = "Malformed token"
				} else if errors.Is(err, jwt.ErrSignatureInvalid) {
					errMsg = "Invalid token signature"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}

			if !token.Valid {
				l.WarnContext(ctx, "Token marked as invalid")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token subject is not a valid UUID", slog.String("sub", claims.UserID))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			// Live lookup: the token alone is not enough, the account must
			// still exist and be active right now.
			ident, err := service.Identity(ctx, userID)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					l.WarnContext(ctx, "Token subject no longer exists", slog.String("userID", claims.UserID))
					api.ErrorResponse(w, r, http.StatusUnauthorized, "User not found or inactive")
					return
				}
				l.ErrorContext(ctx, "Failed to verify token subject", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Authentication check failed")
				return
			}
			if !ident.IsActive {
				l.WarnContext(ctx, "Token subject is deactivated", slog.String("userID", claims.UserID))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "User not found or inactive")
				return
			}

			ctx = context.WithValue(ctx, identityKey, ident)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the authenticated user's
// role ranks at or above min. Runs AFTER the Authenticate middleware.
func RequireRole(logger *slog.Logger, min types.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ident, ok := GetIdentityFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Identity missing from context, is Authenticate wired?")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !ident.Role.AtLeast(min) {
				logger.WarnContext(ctx, "Role check failed",
					slog.String("required", string(min)),
					slog.String("actual", string(ident.Role)),
				)
				api.ErrorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireManager gates routes open to every back-office role.
func RequireManager(logger *slog.Logger) func(next http.Handler) http.Handler {
	return RequireRole(logger, types.RoleManager)
}

// RequireAdmin gates routes reserved for admins and super admins.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return RequireRole(logger, types.RoleAdmin)
}

// RequireSuperAdmin gates the destructive user-management routes.
func RequireSuperAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return RequireRole(logger, types.RoleSuperAdmin)
}
