package jwt

import (
	"encoding/json"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is an unverified JWT payload. It is a display and lookup convenience:
// nothing decoded here proves identity, only the backend's acceptance of the token does.
type Claims jwtlib.MapClaims

var segmentParser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// DecodeClaims splits the token on '.', base64url-decodes the payload segment and parses
// it as JSON. The signature is not checked. Malformed tokens yield nil.
func DecodeClaims(rawToken string) Claims {
	parts := strings.Split(strings.TrimSpace(rawToken), ".")
	if len(parts) < 2 {
		return nil
	}
	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil
	}
	var claims jwtlib.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return Claims(claims)
}

// Email returns the userEmail claim, falling back to email.
func (c Claims) Email() string {
	for _, key := range []string{"userEmail", "email"} {
		if v, ok := c[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Subject returns the sub claim.
func (c Claims) Subject() string {
	sub, _ := jwtlib.MapClaims(c).GetSubject()
	return sub
}

// ExpiresAt returns the exp claim, zero when absent.
func (c Claims) ExpiresAt() time.Time {
	exp, err := jwtlib.MapClaims(c).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the exp claim is in the past. Tokens without exp never expire here.
func (c Claims) Expired() bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && NowTimeFunc().After(exp)
}
