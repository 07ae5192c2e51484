package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/toko-promo/internal/common"
)

// RolesClaim is the private claim carrying the caller's roles.
const RolesClaim = "roles"

// Verifier checks bearer tokens issued by the storefront identity service.
type Verifier struct {
	Secret    []byte
	Validator TokenValidator
	Now       func() time.Time
}

// NewVerifier builds an HS256 verifier.
func NewVerifier(secret, issuer, audience string, skew time.Duration) *Verifier {
	return &Verifier{
		Secret: []byte(secret),
		Validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: skew,
			Algorithm: jwa.HS256,
		},
		Now: time.Now,
	}
}

// Verify parses token and returns the actor it identifies.
func (v *Verifier) Verify(token string) (common.Actor, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Actor{}, unauthorized("missing token", nil)
	}
	if len(v.Secret) == 0 {
		return common.Actor{}, errors.New("auth: verifier secret not configured")
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Actor{}, unauthorized("invalid token", err)
	}
	if v.Validator.Algorithm != "" && algorithm != v.Validator.Algorithm {
		return common.Actor{}, unauthorized("invalid token", fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.Secret), jwt.WithValidate(false))
	if err != nil {
		return common.Actor{}, unauthorized("invalid token", err)
	}
	if err := v.Validator.Validate(parsed, algorithm, v.now()); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return common.Actor{}, unauthorized("token expired", err)
		}
		return common.Actor{}, unauthorized("invalid token", err)
	}
	return common.Actor{ID: parsed.Subject(), Roles: rolesOf(parsed)}, nil
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func unauthorized(message string, err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(RolesClaim)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	}
	return nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", fmt.Errorf("auth: expected one signature, got %d", len(signatures))
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}
