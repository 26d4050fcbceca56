package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

const testIssuer = "https://securetoken.google.com/dealer-portal"

type jwksFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
	hits   int32
}

func newJWKSFixture(t *testing.T, delay time.Duration) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JWK{{
			Kid: "key-1",
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func (f *jwksFixture) verifier(mapper ClaimMapper, timeout time.Duration) *JWKSVerifier {
	return NewJWKSVerifier(JWKSConfig{
		Name:     "firebase",
		URL:      f.server.URL,
		Issuer:   testIssuer,
		Audience: "dealer-portal",
		Timeout:  timeout,
	}, mapper)
}

func baseClaims(email string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "uid-123",
		"email": email,
		"iss":   testIssuer,
		"aud":   "dealer-portal",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestJWKSVerifier_ExplicitClaims(t *testing.T) {
	f := newJWKSFixture(t, 0)
	v := f.verifier(ClaimMapper{}, time.Second)

	claims := baseClaims("someone@x.com")
	claims["role"] = "dealer_admin"
	claims["dealerId"] = 101

	principal, err := v.VerifyToken(context.Background(), f.sign(t, "key-1", claims))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", principal.ID)
	assert.Equal(t, models.RoleDealerAdmin, principal.Role)
	require.NotNil(t, principal.DealerID)
	assert.Equal(t, uint(101), *principal.DealerID)
}

func TestJWKSVerifier_CachesKeys(t *testing.T) {
	f := newJWKSFixture(t, 0)
	v := f.verifier(ClaimMapper{}, time.Second)

	token := f.sign(t, "key-1", baseClaims("a@x.com"))
	for i := 0; i < 3; i++ {
		_, err := v.VerifyToken(context.Background(), token)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.hits))
}

func TestJWKSVerifier_DefaultsWithoutHeuristic(t *testing.T) {
	f := newJWKSFixture(t, 0)
	v := f.verifier(ClaimMapper{DefaultDealerID: dealerPtr(101)}, time.Second)

	principal, err := v.VerifyToken(context.Background(), f.sign(t, "key-1", baseClaims("admin@x.com")))
	require.NoError(t, err)
	assert.Equal(t, models.RoleDealerUser, principal.Role)
	require.NotNil(t, principal.DealerID)
	assert.Equal(t, uint(101), *principal.DealerID)
}

func TestJWKSVerifier_RejectsWrongIssuerAndUnknownKid(t *testing.T) {
	f := newJWKSFixture(t, 0)
	v := f.verifier(ClaimMapper{}, time.Second)
	v.minRefreshInterval = 0

	claims := baseClaims("a@x.com")
	claims["iss"] = "https://evil.example.com"
	_, err := v.VerifyToken(context.Background(), f.sign(t, "key-1", claims))
	assert.Error(t, err)

	_, err = v.VerifyToken(context.Background(), f.sign(t, "key-2", baseClaims("a@x.com")))
	assert.Error(t, err)
}

func TestJWKSVerifier_RejectsLocalTokens(t *testing.T) {
	f := newJWKSFixture(t, 0)
	v := f.verifier(ClaimMapper{}, time.Second)

	codec, err := NewTokenCodec("test-secret")
	require.NoError(t, err)
	local, err := codec.Issue(&models.Principal{ID: "1", Role: models.RoleProducerAdmin})
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), local)
	assert.Error(t, err)
}

func TestJWKSVerifier_TimeoutIsFailure(t *testing.T) {
	f := newJWKSFixture(t, 300*time.Millisecond)
	v := f.verifier(ClaimMapper{}, 50*time.Millisecond)

	_, err := v.VerifyToken(context.Background(), f.sign(t, "key-1", baseClaims("a@x.com")))
	assert.Error(t, err)
}

func TestJWKSVerifier_ThrottlesAfterFailedFetch(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	f := newJWKSFixture(t, 0)
	v := NewJWKSVerifier(JWKSConfig{
		Name:     "firebase",
		URL:      server.URL,
		Issuer:   testIssuer,
		Audience: "dealer-portal",
		Timeout:  time.Second,
	}, ClaimMapper{})
	token := f.sign(t, "key-1", baseClaims("a@x.com"))

	for i := 0; i < 3; i++ {
		_, err := v.VerifyToken(context.Background(), token)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
