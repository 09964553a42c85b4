package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aldenhq/alden-api/internal/database"
	logpkg "github.com/aldenhq/alden-api/internal/logger"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/services/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity resolves the acting user for every request and attaches it to the
// request context.
//
// When a verifier is configured, requests must carry a Bearer token and the
// user is looked up (or created) by the token's email claim. Without a
// verifier the API runs in single-user mode and the default user is attached
// to every request.
func Identity(users database.UserRepositoryInterface, verifier *auth.Verifier, defaultEmail, defaultName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			email := defaultEmail
			name := defaultName

			if verifier != nil {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
					return
				}

				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
					return
				}

				claims, err := verifier.Verify(ctx, parts[1])
				if err != nil {
					logger.Warn("token_verification_failed",
						zap.String("error", logpkg.SanitizeError(err)),
					)
					respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
					return
				}
				if claims.Email == "" {
					respondAuthError(w, http.StatusUnauthorized, "Token missing email claim", logger)
					return
				}
				email = claims.Email
				if claims.Name != "" {
					name = claims.Name
				}
			}

			user, err := users.GetByEmail(ctx, email)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					user = &models.User{
						ID:        uuid.New(),
						Email:     email,
						Name:      name,
						DailyGoal: models.DefaultDailyGoalMinutes,
					}
					if err := users.Create(ctx, user); err != nil {
						// Another request may have created the user concurrently.
						user, err = users.GetByEmail(ctx, email)
						if err != nil {
							logger.Error("user_bootstrap_failed",
								zap.String("error", logpkg.SanitizeError(err)),
							)
							respondAuthError(w, http.StatusInternalServerError, "Failed to resolve user", logger)
							return
						}
					}
				} else {
					logger.Error("user_lookup_failed",
						zap.String("error", logpkg.SanitizeError(err)),
					)
					respondAuthError(w, http.StatusInternalServerError, "Database error", logger)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondAuthError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_auth_error", zap.Error(err))
	}
}
