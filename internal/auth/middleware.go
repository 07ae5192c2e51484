package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/toko-promo/internal/common"
)

// Middleware wires bearer-token authentication into chi routes.
type Middleware struct {
	Verifier *Verifier
}

// Authenticate attaches the actor when a valid token is present and passes anonymous requests through.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || m.Verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Verifier.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithActor(r.Context(), actor)))
	})
}

// RequireAuth rejects requests without a valid token with 401.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication unavailable", nil)
			return
		}
		actor, err := m.Verifier.Verify(bearerToken(r))
		if err != nil {
			if appErr, ok := common.AsAppError(err); ok {
				common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithActor(r.Context(), actor)))
	})
}

// RequireRole answers 403 unless the authenticated actor holds one of roles.
// It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := common.ActorFrom(r.Context())
			if !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			if !actor.HasAnyRole(roles...) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
