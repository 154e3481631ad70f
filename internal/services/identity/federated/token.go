package federated

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/scoutbook/internal/model"
)

// Credential is what an identity provider hands back after sign-in.
// Providers may withhold email and names on repeat sign-ins.
type Credential struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// Claims is the payload of a provider identity token
type Claims struct {
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 identity tokens signed with a shared secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a Verifier. now may be nil to use the wall clock.
func NewVerifier(secret string, now func() time.Time) *Verifier {
	return &Verifier{secret: []byte(secret), now: now}
}

// Enabled reports whether a verification secret is configured. When it is,
// only signed tokens are trusted.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Parse verifies the token signature and expiry and returns the credential
// it carries. Any failure is reported as model.ErrInvalidFederatedToken.
func (v *Verifier) Parse(token string) (Credential, error) {
	if len(v.secret) == 0 {
		return Credential{}, fmt.Errorf("%w: no verification secret configured", model.ErrInvalidFederatedToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.now))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", model.ErrInvalidFederatedToken, err)
	}
	if !parsed.Valid {
		return Credential{}, model.ErrInvalidFederatedToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Credential{}, fmt.Errorf("%w: missing subject", model.ErrInvalidFederatedToken)
	}

	return Credential{
		ProviderID: subject,
		Email:      strings.TrimSpace(claims.Email),
		FirstName:  strings.TrimSpace(claims.GivenName),
		LastName:   strings.TrimSpace(claims.FamilyName),
	}, nil
}

// Sign issues a token for the credential, valid for ttl from issuedAt
func Sign(cred Credential, secret string, issuedAt time.Time, ttl time.Duration) (string, error) {
	if cred.ProviderID == "" {
		return "", errors.New("provider id required")
	}
	claims := &Claims{
		Email:      cred.Email,
		GivenName:  cred.FirstName,
		FamilyName: cred.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.ProviderID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
