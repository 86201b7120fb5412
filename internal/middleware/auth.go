package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/request"
	"github.com/quietgrove/intently/internal/services/auth"
)

// Auth creates authentication middleware that validates bearer tokens and
// resolves the calling user, creating a row on first sight of a new subject.
func Auth(verifier *auth.Verifier, users *database.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Warn("token_verification_failed", zap.Error(err))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetBySubject(ctx, claims.Subject)
			if err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.Error("user_lookup_failed", zap.Error(err))
					respondError(w, http.StatusInternalServerError, "Database error")
					return
				}
				user = &models.User{
					ID:      uuid.New(),
					Subject: claims.Subject,
					Email:   claims.Email,
				}
				if err := users.Create(ctx, user); err != nil {
					logger.Error("user_create_failed", zap.Error(err))
					respondError(w, http.StatusInternalServerError, "Failed to create user")
					return
				}
			} else if claims.Email != "" && user.Email != claims.Email {
				user.Email = claims.Email
				if err := users.UpdateEmail(ctx, user.ID, claims.Email); err != nil {
					logger.Warn("user_email_update_failed", zap.Error(err))
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
