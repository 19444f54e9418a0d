package identity

import (
	"fmt"
	"net/http"
	"strings"

	"pedalgate/pkg/domain"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/sentinel"
)

// Provider implements auth.CallerProvider over bearer tokens.
type Provider struct {
	tokens  *TokenService
	revoked RevocationList
}

// NewProvider builds a Provider. A nil revocation list skips the check.
func NewProvider(tokens *TokenService, revoked RevocationList) *Provider {
	return &Provider{tokens: tokens, revoked: revoked}
}

// Caller resolves the admin behind r. Revocation lookups that fail are
// treated as unauthorized.
func (p *Provider) Caller(r *http.Request) (domain.Caller, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return domain.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}

	claims, err := p.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return domain.Caller{}, err
	}

	if p.revoked != nil && claims.ID != "" {
		revoked, err := p.revoked.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return domain.Caller{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token revocation unavailable")
		}
		if revoked {
			return domain.Caller{}, dErrors.Wrap(fmt.Errorf("jti %s: %w", claims.ID, sentinel.ErrRevoked),
				dErrors.CodeUnauthorized, "token has been revoked")
		}
	}
	return claims.Caller(), nil
}
