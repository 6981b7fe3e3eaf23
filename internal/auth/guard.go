package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	applog "coffeeshop/internal/log"
)

type claimsKey struct{}

// ContextWithClaims attaches verified claims to ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the Guard, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// TokenVerifier is satisfied by *Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// Guard enforces a required permission in front of a handler.
type Guard struct {
	verifier TokenVerifier
}

// NewGuard returns a Guard that verifies tokens with verifier.
func NewGuard(verifier TokenVerifier) *Guard {
	return &Guard{verifier: verifier}
}

// RequirePermission wraps next so it only runs for requests carrying a valid
// bearer token that grants permission.
func (g *Guard) RequirePermission(permission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, authErr := g.Authorize(r, permission)
		if authErr != nil {
			if authErr.Status >= http.StatusInternalServerError {
				applog.Error(r.Context(), "authorization unavailable", "permission", permission, "error", authErr.Unwrap())
			} else {
				applog.Debug(r.Context(), "authorization rejected", "permission", permission, "code", authErr.Code, "status", authErr.Status)
			}
			WriteError(w, authErr)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// Authorize runs the header, token and permission checks for r.
func (g *Guard) Authorize(r *http.Request, permission string) (*Claims, *AuthError) {
	raw, authErr := BearerToken(r)
	if authErr != nil {
		return nil, authErr
	}

	claims, err := g.verifier.Verify(r.Context(), raw)
	if err != nil {
		return nil, fromVerifyError(err)
	}

	if !claims.HasPermissions() {
		return nil, newAuthError(http.StatusBadRequest, "invalid_claims", "permissions not included in JWT", ErrPermissionsMissing)
	}
	if !claims.Grants(permission) {
		return nil, newAuthError(http.StatusForbidden, "unauthorized", "permission not found", ErrPermissionDenied)
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, *AuthError) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 0 {
		return "", newAuthError(http.StatusUnauthorized, "authorization_header_missing", "authorization header is expected", nil)
	}

	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", newAuthError(http.StatusUnauthorized, "invalid_header", "authorization header must start with \"Bearer\"", nil)
	case len(parts) == 1:
		return "", newAuthError(http.StatusUnauthorized, "invalid_header", "token not found", nil)
	case len(parts) > 2:
		return "", newAuthError(http.StatusUnauthorized, "invalid_header", "authorization header must be bearer token", nil)
	}
	return parts[1], nil
}

type authErrorResponse struct {
	Success     bool   `json:"success"`
	Error       int    `json:"error"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// WriteError renders authErr with its status code.
func WriteError(w http.ResponseWriter, authErr *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.Status)
	resp := authErrorResponse{
		Success:     false,
		Error:       authErr.Status,
		Code:        authErr.Code,
		Description: authErr.Description,
		Message:     authErr.Description,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(context.Background(), "failed to encode auth error response", "error", err)
	}
}
