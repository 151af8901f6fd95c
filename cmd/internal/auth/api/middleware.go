package authapi

import (
	"context"
	"net/http"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/tokens"
)

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	SessionID string
}

// PrincipalFromContext returns the caller set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// requireAuth verifies the access token. It does not consult the session store,
// so a deleted session stays usable until its access token expires.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "authapi.requireAuth"

		raw, ok := accessToken(r)
		if !ok {
			h.fail(w, r, apperr.Unauthorized(op, "authentication required"))
			return
		}
		p, err := h.tokens.Verify(raw, tokens.Access)
		if err != nil {
			h.fail(w, r, apperr.Unauthorized(op, "invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, Principal{UserID: p.UserID, SessionID: p.SessionID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
