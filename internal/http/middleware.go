package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hubble-app/identity-api/internal/httputil"
	"github.com/hubble-app/identity-api/internal/identity"
)

type contextKey string

const (
	userIDContextKey contextKey = "userID"
	emailContextKey  contextKey = "email"
)

// GetUserIDFromContext returns the provider user id stored by RequireSession.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDContextKey).(string)
	return uid, ok
}

// GetEmailFromContext returns the account email stored by RequireSession.
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	return email, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireSession rejects requests without a live provider session and puts
// the session identity on the request context.
func RequireSession(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondErrorWithCode(w, "invalid authorization header", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}

			sess, err := provider.ValidateSession(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, identity.ErrSessionExpired):
					httputil.RespondErrorWithCode(w, "session expired", httputil.CodeSessionExpired, http.StatusUnauthorized)
				case errors.Is(err, identity.ErrInvalidSessionToken), errors.Is(err, identity.ErrSessionNotFound):
					httputil.RespondErrorWithCode(w, "invalid session", httputil.CodeInvalidSession, http.StatusUnauthorized)
				default:
					httputil.RespondErrorWithCode(w, "failed to validate session", httputil.CodeInternalError, http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, sess.UserID)
			ctx = context.WithValue(ctx, emailContextKey, sess.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders sets baseline security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
