package middleware

import (
	"net/http"
	"strings"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/data/repository"
	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthSession validates the bearer session token and puts the user id and
// role into the request context.
func AuthSession(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			token, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			session, err := sessionRepo.FindValidSession(r.Context(), token)
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if session == nil {
				logger.Warn("Invalid or expired session", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			user, err := userRepo.FindByID(r.Context(), session.UserID)
			if err != nil {
				logger.Error("Failed to load session user",
					zap.Error(err), zap.String("user_id", session.UserID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil || !user.IsActive {
				logger.Warn("Session user missing or inactive", zap.String("user_id", session.UserID.String()))
				utils.ResponseUnauthorized(w, "Account is not active")
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != string(entity.RoleAdmin) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
