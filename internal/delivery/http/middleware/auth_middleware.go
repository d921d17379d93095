package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-doctor-review/internal/domain/entity"
	"go-doctor-review/pkg/jwt"
	"go-doctor-review/pkg/response"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleKey      contextKey = "role"
	TokenIDKey   contextKey = "token_id"
)

// AuthMiddleware verifies bearer tokens issued by the identity service.
type AuthMiddleware struct {
	jwtService *jwt.JWTService
}

func NewAuthMiddleware(jwtService *jwt.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		if claims.UserID == uuid.Nil || claims.Role == "" {
			response.Unauthorized(w, "Token is missing user information")
			return
		}

		// Add user info to context
		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetRoleFromContext extracts role name from context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetActingUserFromContext returns the authenticated caller
func GetActingUserFromContext(ctx context.Context) (entity.ActingUser, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return entity.ActingUser{}, false
	}
	role, ok := GetRoleFromContext(ctx)
	if !ok {
		return entity.ActingUser{}, false
	}
	return entity.ActingUser{ID: userID, Role: role}, true
}
