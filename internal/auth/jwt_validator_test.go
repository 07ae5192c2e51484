package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type claims struct {
	issuer  string
	subject string
	nbf     time.Time
	exp     time.Time
}

func defaultClaims() claims {
	return claims{issuer: "toko-identity", subject: "admin-1", nbf: issuedAt, exp: issuedAt.Add(time.Minute)}
}

func (c claims) token(t *testing.T) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer(c.issuer).
		Audience([]string{"promo-api"}).
		IssuedAt(c.nbf).
		NotBefore(c.nbf)
	if c.subject != "" {
		b = b.Subject(c.subject)
	}
	if !c.exp.IsZero() {
		b = b.Expiration(c.exp)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func TestTokenValidator(t *testing.T) {
	policy := TokenValidator{Issuer: "toko-identity", Audience: "promo-api", ClockSkew: time.Second, Algorithm: jwa.HS256}

	cases := []struct {
		name   string
		mutate func(*claims)
		alg    jwa.SignatureAlgorithm
		nilTok bool
		want   error
	}{
		{name: "valid", alg: jwa.HS256},
		{name: "issuer mismatch", mutate: func(c *claims) { c.issuer = "other" }, alg: jwa.HS256, want: ErrTokenRejected},
		{name: "expired", mutate: func(c *claims) { c.nbf, c.exp = issuedAt.Add(-2*time.Hour), issuedAt.Add(-time.Minute) }, alg: jwa.HS256, want: ErrTokenExpired},
		{name: "not yet valid", mutate: func(c *claims) { c.nbf, c.exp = issuedAt.Add(5*time.Minute), issuedAt.Add(10*time.Minute) }, alg: jwa.HS256, want: ErrTokenRejected},
		{name: "no subject", mutate: func(c *claims) { c.subject = "" }, alg: jwa.HS256, want: ErrTokenRejected},
		{name: "no expiry", mutate: func(c *claims) { c.exp = time.Time{} }, alg: jwa.HS256, want: ErrTokenRejected},
		{name: "algorithm mismatch", alg: jwa.RS256, want: ErrTokenRejected},
		{name: "missing algorithm", want: ErrTokenRejected},
		{name: "nil token", alg: jwa.HS256, nilTok: true, want: ErrTokenRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := defaultClaims()
			if tc.mutate != nil {
				tc.mutate(&c)
			}
			var tok jwt.Token
			if !tc.nilTok {
				tok = c.token(t)
			}
			err := policy.Validate(tok, tc.alg, issuedAt)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTokenValidatorAcceptsSkew(t *testing.T) {
	c := defaultClaims()
	c.nbf, c.exp = issuedAt.Add(-time.Hour), issuedAt.Add(-10*time.Second)
	tok := c.token(t)

	strict := TokenValidator{Issuer: "toko-identity", Algorithm: jwa.HS256}
	require.ErrorIs(t, strict.Validate(tok, jwa.HS256, issuedAt), ErrTokenExpired)

	lenient := TokenValidator{Issuer: "toko-identity", Algorithm: jwa.HS256, ClockSkew: 30 * time.Second}
	require.NoError(t, lenient.Validate(tok, jwa.HS256, issuedAt))
}
