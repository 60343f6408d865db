package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"table-booking/internal/data/entity"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

// ActorResolver looks the token subject up in the actor directory.
type ActorResolver interface {
	Resolve(ctx context.Context, userID string) (entity.Actor, error)
}

// Auth middleware validates the bearer JWT and puts the resolved actor in the
// request context. Role and branch come from the directory, not the token.
func Auth(secret string, resolver ActorResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			userID, err := utils.ParseAccessToken(secret, token)
			if err != nil {
				logger.Warn("Invalid or expired token", zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			actor, err := resolver.Resolve(r.Context(), userID)
			if errors.Is(err, entity.ErrNotFound) {
				logger.Warn("Token subject not in directory", zap.String("user_id", userID))
				utils.ResponseUnauthorized(w, "Unknown user")
				return
			}
			if err != nil {
				logger.Error("Failed to resolve actor",
					zap.String("user_id", userID),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetActorContext(r.Context(), actor)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := utils.GetActorFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Role check: access denied",
				zap.String("user_id", actor.ID),
				zap.String("role", actor.Role.String()),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Insufficient role")
		})
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// an EventSource, so the stream endpoint may pass access_token instead.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		token := r.URL.Query().Get("access_token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
