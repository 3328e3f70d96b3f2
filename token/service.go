// Package token issues and verifies the signed bearer tokens that carry a user's identity claim.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = time.Hour

// Config holds configuration for the token service.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string

	// SigningMethod is the JWT signing algorithm (HS256, HS384, HS512).
	SigningMethod string

	// TTL is the token lifetime. Defaults to DefaultTTL.
	TTL time.Duration

	// ClockSkew allows for clock differences between servers.
	ClockSkew time.Duration

	// Now is the clock used for issuance and verification. Defaults to time.Now.
	Now func() time.Time
}

// Issued is a freshly signed token.
type Issued struct {
	Token     string    `json:"token"`
	JTI       string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service signs and verifies tokens. It holds no mutable state and is safe for concurrent use.
type Service struct {
	config *Config
	method jwt.SigningMethod
	parser *jwt.Parser
}

// NewService creates a new token service.
func NewService(cfg *Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var method jwt.SigningMethod
	switch cfg.SigningMethod {
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		method = jwt.SigningMethodHS256
	}

	return &Service{
		config: cfg,
		method: method,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithTimeFunc(cfg.Now),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
		),
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a token for the given user that expires after the configured TTL.
func (s *Service) Issue(userID, email string) (*Issued, error) {
	now := s.config.Now()
	expiresAt := now.Add(s.config.TTL)
	jti := uuid.NewString()

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Issued{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// Verify parses a token, checks its signature and lifetime and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// Identify derives the request identity from a raw Authorization header value.
// It never fails: a missing, malformed, expired or forged credential yields the anonymous identity.
func (s *Service) Identify(header string) (id Identity) {
	defer func() {
		if recover() != nil {
			id = Anonymous()
		}
	}()

	raw, ok := SplitAuthorization(header)
	if !ok {
		return Anonymous()
	}

	claims, err := s.Verify(raw)
	if err != nil {
		return Anonymous()
	}

	return Authenticated(claims.UserID)
}

// SplitAuthorization extracts the credential from a "scheme credential" header value.
func SplitAuthorization(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// mapJWTError maps JWT library errors to our error types.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSig
	default:
		return ErrTokenMalformed
	}
}
