package httptransport

import (
	"net/http"
	"strings"
	"time"

	"inkregister/internal/transport/http/shared"
	dErrors "inkregister/pkg/domain-errors"
)

// handleLogout revokes the presented token until its natural expiry. The
// route runs behind RequireAuth, so the token has already been validated
// once; it is re-inspected here to read the expiry.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 {
		if err := h.identity.Logout(r.Context(), claims.ID, ttl); err != nil {
			h.logError(r, "logout failed", err)
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "error revoking token"))
			return
		}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out.",
	})
}
