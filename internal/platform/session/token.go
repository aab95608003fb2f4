package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims understood by the verifier.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Verifier validates HS256 access tokens issued by the identity provider.
type Verifier struct {
	cfg TokenConfig
}

func NewVerifier(cfg TokenConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

var errMissingSubject = errors.New("token has no subject")

// Verify parses and validates token, returning the session it represents.
func (v *Verifier) Verify(token string) (*Session, *User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("verify token: %w", err)
	}
	if !parsed.Valid {
		return nil, nil, fmt.Errorf("verify token: invalid")
	}
	if claims.Subject == "" {
		return nil, nil, errMissingSubject
	}

	user := &User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
	sess := &Session{User: user, AccessToken: token}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, user, nil
}

// Issue signs a token for user valid for ttl from now. The identity provider
// normally does this; the server uses it for development sign-in and tests.
func (v *Verifier) Issue(user User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
		Role:  user.Role,
	}
	if v.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.cfg.Secret)
}
