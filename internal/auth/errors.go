package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Verification failures. The Guard turns each into an AuthError.
var (
	ErrMalformedToken     = errors.New("auth: malformed token")
	ErrUnknownSigningKey  = errors.New("auth: unknown signing key")
	ErrInvalidSignature   = errors.New("auth: invalid signature")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrInvalidAudience    = errors.New("auth: invalid audience")
	ErrInvalidIssuer      = errors.New("auth: invalid issuer")
	ErrMissingClaim       = errors.New("auth: required claim missing")
	ErrKeySetUnavailable  = errors.New("auth: signing key set unavailable")
	ErrPermissionsMissing = errors.New("auth: permissions not included in token")
	ErrPermissionDenied   = errors.New("auth: permission not found")
)

// AuthError is a client-visible authorization failure with an explicit status.
type AuthError struct {
	Status      int
	Code        string
	Description string
	cause       error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Description)
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

func newAuthError(status int, code, description string, cause error) *AuthError {
	return &AuthError{Status: status, Code: code, Description: description, cause: cause}
}

// fromVerifyError maps a Verifier failure onto the response the client sees.
func fromVerifyError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		return newAuthError(http.StatusInternalServerError, "key_set_unavailable", "unable to load signing keys", err)
	case errors.Is(err, ErrTokenExpired):
		return newAuthError(http.StatusUnauthorized, "token_expired", "token expired", err)
	case errors.Is(err, ErrInvalidAudience), errors.Is(err, ErrInvalidIssuer), errors.Is(err, ErrMissingClaim):
		return newAuthError(http.StatusUnauthorized, "invalid_claims", "incorrect claims. please, check the audience and issuer", err)
	case errors.Is(err, ErrUnknownSigningKey):
		return newAuthError(http.StatusUnauthorized, "invalid_header", "unable to find the appropriate key", err)
	case errors.Is(err, ErrInvalidSignature):
		return newAuthError(http.StatusUnauthorized, "invalid_signature", "token signature is invalid", err)
	default:
		return newAuthError(http.StatusUnauthorized, "invalid_header", "unable to parse authentication token", err)
	}
}
