// Package auth verifies bearer tokens issued by the external identity
// provider and enforces per-route permissions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	jwt.RegisteredClaims
	// Permissions is nil when the token carries no permissions claim, which
	// is distinct from an empty list.
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermissions reports whether the issuer embedded a permissions claim.
func (c *Claims) HasPermissions() bool {
	return c != nil && c.Permissions != nil
}

// Grants reports whether permission is among the granted permissions.
func (c *Claims) Grants(permission string) bool {
	return c != nil && slices.Contains(c.Permissions, permission)
}

// Verifier checks signature and standard claims of a bearer token.
type Verifier struct {
	keys      KeySource
	algorithm string
	audience  string
	issuer    string
	leeway    time.Duration
	now       func() time.Time
}

// VerifierOption customises a Verifier.
type VerifierOption func(*Verifier)

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.leeway = d
	}
}

// WithVerifierClock overrides time.Now for claim validation.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier returns a Verifier accepting only algorithm-signed tokens for
// audience from issuer. An empty issuer disables the issuer check.
func NewVerifier(keys KeySource, algorithm, audience, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys:      keys,
		algorithm: algorithm,
		audience:  audience,
		issuer:    issuer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses raw and returns its claims, or one of the package's
// verification errors.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMalformedToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	parser := jwt.NewParser(options...)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrMalformedToken)
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	for _, known := range []error{ErrKeySetUnavailable, ErrUnknownSigningKey, ErrMalformedToken} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrInvalidIssuer, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMissingClaim, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedToken, err)
}
