package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "inkregister/pkg/domain"
	"inkregister/pkg/requestcontext"
)

// TokenValidator validates bearer tokens and yields the claims we care about.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims expected from the token validator.
type TokenClaims struct {
	MasterID string
	TokenID  string
}

// RevocationChecker reports whether a token ID has been revoked (logout).
// A nil checker disables revocation checks.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RoleLookup resolves the role for an authenticated master.
type RoleLookup interface {
	Role(ctx context.Context, masterID id.MasterID) (string, error)
}

// RequireAuth validates the bearer token, rejects revoked tokens, and injects
// the master ID into the request context.
func RequireAuth(validator TokenValidator, revoked RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revoked != nil && claims.TokenID != "" {
				isRevoked, err := revoked.IsRevoked(ctx, claims.TokenID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					// Fail closed: an unverifiable token is an invalid token.
					writeUnauthorized(w, "Token could not be verified")
					return
				}
				if isRevoked {
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			masterID, err := id.ParseMasterID(claims.MasterID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid token subject")
				return
			}

			ctx = requestcontext.WithMasterID(ctx, masterID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole resolves the caller's role and rejects callers outside the
// allowed set. Must run after RequireAuth.
func RequireRole(roles RoleLookup, logger *slog.Logger, allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			masterID := requestcontext.MasterID(ctx)
			if masterID.IsNil() {
				writeUnauthorized(w, "Authentication required")
				return
			}

			role, err := roles.Role(ctx, masterID)
			if err != nil {
				logger.ErrorContext(ctx, "role lookup failed",
					"error", err,
					"master_id", masterID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeForbidden(w)
				return
			}
			if !allowedSet[role] {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithRole(ctx, role)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden"}`))
}
