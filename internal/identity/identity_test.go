package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalgate/internal/platform/config"
	"pedalgate/pkg/domain"
	dErrors "pedalgate/pkg/domain-errors"
	"pedalgate/pkg/platform/sentinel"
)

var testAuth = config.Auth{JWTSigningKey: "test-signing-key", Issuer: "pedalgate-test"}

var admin = domain.Caller{UserID: "user-1", AdminID: "admin-1", Role: "admin", Email: "ops@example.com"}

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisRevocationList) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisRevocationList(client)
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/optimize/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testAuth)
	token, issued, err := svc.Issue(admin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, admin, claims.Caller())
	assert.Equal(t, "pedalgate-test", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService(testAuth)

	expired, _, err := svc.Issue(admin, -time.Hour)
	require.NoError(t, err)

	otherIssuer, _, err := NewTokenService(config.Auth{JWTSigningKey: "test-signing-key", Issuer: "someone-else"}).Issue(admin, time.Hour)
	require.NoError(t, err)

	wrongKey, _, err := NewTokenService(config.Auth{JWTSigningKey: "other-key", Issuer: "pedalgate-test"}).Issue(admin, time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "pedalgate-test"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, _, err := svc.Issue(domain.Caller{Role: "admin"}, time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"other issuer": otherIssuer,
		"wrong key":    wrongKey,
		"alg none":     noneAlg,
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
		})
	}
}

func TestTokenService_Unconfigured(t *testing.T) {
	_, err := NewTokenService(config.Auth{}).Validate("anything")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestProvider_Caller(t *testing.T) {
	svc := NewTokenService(testAuth)
	_, revocations := newRedis(t)
	provider := NewProvider(svc, revocations)

	token, _, err := svc.Issue(admin, time.Hour)
	require.NoError(t, err)

	caller, err := provider.Caller(bearer(token))
	require.NoError(t, err)
	assert.Equal(t, admin, caller)
}

func TestProvider_MissingHeader(t *testing.T) {
	provider := NewProvider(NewTokenService(testAuth), nil)

	for _, header := range []string{"", "Basic abc", "Bearer ", "bearer token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, err := provider.Caller(req)
		require.Error(t, err, header)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	}
}

func TestProvider_RevokedToken(t *testing.T) {
	svc := NewTokenService(testAuth)
	mr, revocations := newRedis(t)
	provider := NewProvider(svc, revocations)

	token, claims, err := svc.Issue(admin, time.Hour)
	require.NoError(t, err)
	require.NoError(t, revocations.Revoke(context.Background(), claims.ID, time.Minute))

	_, err = provider.Caller(bearer(token))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrRevoked))
	assert.True(t, mr.Exists("revoked:jti:"+claims.ID))

	mr.FastForward(2 * time.Minute)
	_, err = provider.Caller(bearer(token))
	require.NoError(t, err, "revocation expires with its ttl")
}

func TestProvider_RevocationStoreDownFailsClosed(t *testing.T) {
	svc := NewTokenService(testAuth)
	mr, revocations := newRedis(t)
	provider := NewProvider(svc, revocations)

	token, _, err := svc.Issue(admin, time.Hour)
	require.NoError(t, err)

	mr.Close()
	_, err = provider.Caller(bearer(token))
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
