package tokencache

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoTokens is returned by Load when nothing is cached
var ErrNoTokens = errors.New("no tokens stored")

// Pair is the cached token pair together with the access token expiry
// derived from the token's 'exp' claim
type Pair struct {
	AccessToken       string    `json:"access_token"`
	RefreshToken      string    `json:"refresh_token"`
	AccessTokenExpiry time.Time `json:"access_token_expiry"`
}

// AccessExpired reports whether the cached access token is already stale
// A pair without a derived expiry counts as expired
func (p Pair) AccessExpired(now time.Time) bool {
	return p.AccessTokenExpiry.IsZero() || !now.Before(p.AccessTokenExpiry)
}

// Cache persists at most one token pair and the display username.
// The pair is replaced wholesale on every store and removed wholesale on clear.
type Cache interface {
	// Store saves the pair, deriving the expiry from the access token
	Store(access string, refresh string) (Pair, error)

	// Load returns the cached pair or ErrNoTokens
	Load() (Pair, error)

	// Clear removes the pair and the username
	Clear() error

	// SetUsername and Username keep the display name under its own key
	SetUsername(username string) error
	Username() (string, error)
}

// DeriveExpiry reads the 'exp' claim of the access token without verifying
// the signature. The client has no key material, it only needs the deadline
func DeriveExpiry(access string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}

	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(access, &claims)
	if err != nil {
		return time.Time{}, fmt.Errorf("can't decode access token claims: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}

	return claims.ExpiresAt.Time, nil
}
