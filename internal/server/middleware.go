package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"aidlink/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyIdentity contextKey = "identity"

// Identity is the authenticated caller as asserted by the external
// identity provider. Role arrives as a token claim; it is consumed
// here, never derived.
type Identity struct {
	UserID string
	Email  string
	Role   types.Role
}

func withIdentity(r *http.Request, identity *Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), contextKeyIdentity, identity))
}

// WithTestUser returns a request whose context carries a pre-resolved
// identity, letting handler tests bypass token verification.
func WithTestUser(r *http.Request, identity *Identity) *http.Request {
	return withIdentity(r, identity)
}

func identityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextKeyIdentity).(*Identity)
	return identity, ok
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth verifies the bearer token against the provider's JWKS
// and stores the caller identity in the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identityFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		accessToken := strings.TrimPrefix(header, "Bearer ")

		set, err := s.jwksCache.Lookup(r.Context(), s.jwksURL)
		if err != nil {
			s.logger.WithError(err).Error("failed to fetch JWKS")
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		token, err := jwt.Parse(
			[]byte(accessToken),
			jwt.WithKeySet(set),
			jwt.WithValidate(true),
		)
		if err != nil {
			s.logger.WithError(err).Debug("failed to parse JWT")
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		userID, ok := token.Subject()
		if !ok || userID == "" {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		var email string
		if err := token.Get("email", &email); err != nil {
			s.logger.WithError(err).Warn("no email claim in JWT")
		}

		var role string
		if err := token.Get("role", &role); err != nil || !types.Role(role).Valid() {
			s.respondJSON(w, http.StatusForbidden, errorResponse{Error: "unknown role"})
			return
		}

		identity := &Identity{UserID: userID, Email: email, Role: types.Role(role)}
		next.ServeHTTP(w, withIdentity(r, identity))
	})
}

// RequireRole gates a route to the given roles. Admins pass every
// gate.
func (s *Service) RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromContext(r.Context())
			if !ok {
				s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
				return
			}

			if identity.Role == types.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			s.respondJSON(w, http.StatusForbidden, errorResponse{Error: "insufficient role"})
		})
	}
}
