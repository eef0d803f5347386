package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"financas/internal/log"
)

type userContextKey struct{}

// userID extracts the authenticated user ID from the request context.
func userID(ctx context.Context) string {
	if id, ok := ctx.Value(userContextKey{}).(string); ok {
		return id
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAuth validates the access token and stores the user ID in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.VerifyAccessToken(token)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Rejected access token",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

// requireCron guards scheduler-only endpoints with a shared bearer secret.
func (s *Server) requireCron(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cronSecret == "" {
			writeError(w, http.StatusServiceUnavailable, "dispatch not configured")
			return
		}
		token := bearerToken(r)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
