// Package identity resolves the dashboard admin behind a request from an
// HS256 bearer token, consulting a revoked-token list before trusting it.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pedalgate/internal/platform/config"
	"pedalgate/pkg/domain"
	dErrors "pedalgate/pkg/domain-errors"
)

// Claims represents the JWT claims carried by dashboard admin tokens. The
// subject is the user id; the JWT id is used for revocation.
type Claims struct {
	Role    string `json:"role"`
	AdminID string `json:"admin_id,omitempty"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts the claims into the request caller.
func (c *Claims) Caller() domain.Caller {
	return domain.Caller{
		UserID:  c.Subject,
		AdminID: c.AdminID,
		Role:    c.Role,
		Email:   c.Email,
	}
}

// TokenService issues and validates admin tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
}

func NewTokenService(cfg config.Auth) *TokenService {
	return &TokenService{
		signingKey: []byte(cfg.JWTSigningKey),
		issuer:     cfg.Issuer,
	}
}

// Configured reports whether a signing key is present.
func (s *TokenService) Configured() bool {
	return len(s.signingKey) > 0
}

// Issue signs a token for caller valid for ttl.
func (s *TokenService) Issue(caller domain.Caller, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Role:    caller.Role,
		AdminID: caller.AdminID,
		Email:   caller.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Validate parses and verifies tokenString.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if !s.Configured() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token validation is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}
