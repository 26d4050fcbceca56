package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// TokenTTL is the lifetime of tokens issued by the API
const TokenTTL = 7 * 24 * time.Hour

var (
	// ErrMissingSigningSecret means JWT_SECRET is not configured
	ErrMissingSigningSecret = errors.New("JWT_SECRET is not defined")
	// ErrInvalidToken covers malformed, tampered and expired tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity carried by a locally issued token
type Claims struct {
	UserID   string      `json:"id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	DealerID *uint       `json:"dealerId"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request principal
func (c *Claims) Principal() *models.Principal {
	return &models.Principal{
		ID:       c.UserID,
		Email:    c.Email,
		Role:     c.Role,
		DealerID: c.DealerID,
	}
}

// TokenCodec signs and verifies HS256 session tokens
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec fails when no signing secret is configured
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSigningSecret
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the given identity
func (tc *TokenCodec) Issue(p *models.Principal) (string, error) {
	now := tc.now()
	claims := Claims{
		UserID:   p.ID,
		Email:    p.Email,
		Role:     p.Role,
		DealerID: p.DealerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims. The
// subject is not looked up again.
func (tc *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tc.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, ok := models.ParseRole(string(claims.Role))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	claims.Role = role
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// Name identifies the strategy in logs
func (tc *TokenCodec) Name() string {
	return "local"
}

// VerifyToken adapts the codec to the TokenVerifier strategy interface
func (tc *TokenCodec) VerifyToken(_ context.Context, token string) (*models.Principal, error) {
	claims, err := tc.Verify(token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}
