// Package authtest mints RS256 tokens and key sets for tests that exercise
// the authorization pipeline without a real identity provider.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coffeeshop/internal/auth"
)

const (
	DefaultIssuer   = "https://coffee.test/"
	DefaultAudience = "drinks"
)

// Issuer signs tokens with a freshly generated RSA key.
type Issuer struct {
	Key      *rsa.PrivateKey
	KID      string
	Issuer   string
	Audience string
}

// NewIssuer generates a 2048-bit key identified by kid.
func NewIssuer(t testing.TB, kid string) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Issuer{Key: key, KID: kid, Issuer: DefaultIssuer, Audience: DefaultAudience}
}

// JWKS renders the public half of the key as a JWKS document.
func (i *Issuer) JWKS(t testing.TB) []byte {
	t.Helper()
	doc := map[string]any{
		"keys": []map[string]string{{
			"kid": i.KID,
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(i.Key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(i.Key.PublicKey.E)).Bytes()),
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return data
}

// KeySource serves the issuer's public key without any network access.
func (i *Issuer) KeySource() auth.StaticKeySource {
	return auth.StaticKeySource{i.KID: &i.Key.PublicKey}
}

// Verifier accepts tokens minted by this issuer.
func (i *Issuer) Verifier() *auth.Verifier {
	return auth.NewVerifier(i.KeySource(), "RS256", i.Audience, i.Issuer)
}

// Claims returns a valid claim set expiring in an hour. A nil permissions
// slice leaves the claim out entirely.
func (i *Issuer) Claims(permissions []string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": i.Issuer,
		"sub": "auth0|barista",
		"aud": []string{i.Audience},
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if permissions != nil {
		claims["permissions"] = permissions
	}
	return claims
}

// Token signs a valid token granting permissions.
func (i *Issuer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	if permissions == nil {
		permissions = []string{}
	}
	return i.Sign(t, i.Claims(permissions))
}

// Sign signs arbitrary claims with the issuer's key and kid.
func (i *Issuer) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.KID
	signed, err := token.SignedString(i.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
