package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidAssertion   = errors.New("invalid identity assertion")
	ErrEmailNotVerified   = errors.New("identity email is not verified")
	ErrAssertionsDisabled = errors.New("identity assertions are not configured")
)

// Identity is the verified subset of an identity provider assertion.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type assertionClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// AssertionVerifier checks HS256 identity assertions signed with a secret
// shared with the identity broker.
type AssertionVerifier struct {
	secret []byte
}

func NewAssertionVerifier(secret string) *AssertionVerifier {
	return &AssertionVerifier{secret: []byte(secret)}
}

// Verify returns the identity asserted by raw. The assertion must carry a
// subject and a verified email address.
func (v *AssertionVerifier) Verify(raw string) (*Identity, error) {
	if len(v.secret) == 0 {
		return nil, ErrAssertionsDisabled
	}

	claims := &assertionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if claims.Subject == "" || email == "" {
		return nil, ErrInvalidAssertion
	}
	if !claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   email,
		Name:    strings.TrimSpace(claims.Name),
		Picture: claims.Picture,
	}, nil
}
