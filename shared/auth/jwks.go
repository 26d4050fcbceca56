package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

const firebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKSConfig describes where an identity provider publishes its keys and what
// its tokens must claim.
type JWKSConfig struct {
	Name     string
	URL      string
	Issuer   string
	Audience string
	Timeout  time.Duration
}

// CognitoJWKSConfig builds the key-set location of a Cognito user pool
func CognitoJWKSConfig(region, userPoolID, clientID string, timeout time.Duration) JWKSConfig {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
	return JWKSConfig{
		Name:     "cognito",
		URL:      issuer + "/.well-known/jwks.json",
		Issuer:   issuer,
		Audience: clientID,
		Timeout:  timeout,
	}
}

// FirebaseJWKSConfig builds the key-set location for Firebase ID tokens
func FirebaseJWKSConfig(projectID string, timeout time.Duration) JWKSConfig {
	return JWKSConfig{
		Name:     "firebase",
		URL:      firebaseJWKSURL,
		Issuer:   "https://securetoken.google.com/" + projectID,
		Audience: projectID,
		Timeout:  timeout,
	}
}

// JWKSVerifier validates RS256 tokens issued by an external identity provider
type JWKSVerifier struct {
	cfg    JWKSConfig
	client *resty.Client
	mapper ClaimMapper

	mutex              sync.RWMutex
	keys               map[string]*rsa.PublicKey
	lastRefresh        time.Time
	lastAttempt        time.Time
	refreshTTL         time.Duration
	minRefreshInterval time.Duration
}

// NewJWKSVerifier creates a verifier; keys are loaded lazily on first use.
func NewJWKSVerifier(cfg JWKSConfig, mapper ClaimMapper) *JWKSVerifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &JWKSVerifier{
		cfg:                cfg,
		client:             resty.New().SetTimeout(cfg.Timeout),
		mapper:             mapper,
		keys:               make(map[string]*rsa.PublicKey),
		refreshTTL:         24 * time.Hour,
		minRefreshInterval: time.Minute,
	}
}

func (v *JWKSVerifier) Name() string {
	return v.cfg.Name
}

// refreshKeys fetches and caches the public keys from the JWKS endpoint
func (v *JWKSVerifier) refreshKeys(ctx context.Context, force bool) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if !force && time.Since(v.lastRefresh) < v.refreshTTL {
		return nil
	}
	// failed fetches count too, so an unreachable endpoint is not hammered
	if time.Since(v.lastAttempt) < v.minRefreshInterval {
		return nil
	}
	v.lastAttempt = time.Now()

	var jwks JWKS
	resp, err := v.client.R().
		SetContext(ctx).
		SetResult(&jwks).
		Get(v.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode())
	}

	newKeys := make(map[string]*rsa.PublicKey)
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		pubKey, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		newKeys[jwk.Kid] = pubKey
	}

	v.keys = newKeys
	v.lastRefresh = time.Now()
	return nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode E: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// GetKey returns the public key for the given key ID
func (v *JWKSVerifier) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if err := v.refreshKeys(ctx, false); err != nil {
		return nil, err
	}

	v.mutex.RLock()
	key, exists := v.keys[kid]
	v.mutex.RUnlock()
	if exists {
		return key, nil
	}

	// Key not found, the provider may have rotated
	if err := v.refreshKeys(ctx, true); err != nil {
		return nil, fmt.Errorf("failed to refresh keys: %w", err)
	}

	v.mutex.RLock()
	key, exists = v.keys[kid]
	v.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("key with kid %s not found", kid)
	}
	return key, nil
}

// VerifyToken validates the token against the provider keys and maps its
// claims to a principal. Timeouts count as verification failure.
func (v *JWKSVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid not found in token header")
		}
		return v.GetKey(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token is invalid")
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return nil, errors.New("token has no subject")
	}
	email := stringClaim(claims, "email")
	role := stringClaim(claims, "role", "custom:role")
	dealerID := uintClaim(claims, "dealerId", "custom:dealerId", "custom:dealer_id")

	return v.mapper.Principal(subject, email, role, dealerID), nil
}

func stringClaim(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if s, ok := claims[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// uintClaim accepts numeric and string encodings of an id
func uintClaim(claims jwt.MapClaims, names ...string) *uint {
	for _, name := range names {
		switch val := claims[name].(type) {
		case float64:
			if val > 0 {
				id := uint(val)
				return &id
			}
		case string:
			if n, err := strconv.ParseUint(val, 10, 64); err == nil && n > 0 {
				id := uint(n)
				return &id
			}
		}
	}
	return nil
}
