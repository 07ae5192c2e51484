package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrTokenExpired reports a token whose exp lies before now minus the skew.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenRejected covers every other claim the policy refuses.
	ErrTokenRejected = errors.New("auth: token rejected")
)

// TokenValidator holds the claim policy applied to storefront bearer tokens.
// Every accepted token names a subject and carries an expiry.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Validate checks tok against the policy as of now. algorithm is the alg
// header the token was signed with.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return fmt.Errorf("%w: no token", ErrTokenRejected)
	}
	switch {
	case algorithm == "":
		return fmt.Errorf("%w: missing algorithm", ErrTokenRejected)
	case v.Algorithm != "" && algorithm != v.Algorithm:
		return fmt.Errorf("%w: algorithm %s not accepted", ErrTokenRejected, algorithm)
	}

	if err := jwt.Validate(tok, v.options(now)...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	return nil
}

func (v TokenValidator) options(now time.Time) []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(max(v.ClockSkew, 0)),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	return opts
}
