package middleware

import (
	"context"
	"errors"
	"net/http"

	"digicommerce/internal/model"
	"digicommerce/internal/service"

	"github.com/rs/zerolog"
)

// UserHeader carries the authenticated email set by the upstream auth proxy.
const UserHeader = "X-User-Email"

type contextKey struct{}

var userKey = contextKey{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by Identity.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// Identity resolves the caller from UserHeader and stores the user in the
// request context. Requests without a usable identity get 401.
func Identity(users service.UserService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get(UserHeader)
			if email == "" {
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
				return
			}

			user, err := users.EnsureUser(r.Context(), email)
			if err != nil {
				if errors.Is(err, model.ErrUnauthorised) {
					logger.Warn().Str("path", r.URL.Path).Msg("rejected identity header")
					writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
					return
				}
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to resolve user")
				writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
