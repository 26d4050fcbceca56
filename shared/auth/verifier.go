package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// TokenVerifier is one bearer-token verification strategy. A failed
// verification must have no side effects.
type TokenVerifier interface {
	Name() string
	VerifyToken(ctx context.Context, token string) (*models.Principal, error)
}

// ErrNoVerifier is returned by an empty chain
var ErrNoVerifier = errors.New("no token verifier configured")

// VerifierChain tries strategies in priority order; the first success wins
type VerifierChain []TokenVerifier

// VerifyToken returns the principal from the first strategy that accepts the
// token, or an error naming every strategy that rejected it.
func (vc VerifierChain) VerifyToken(ctx context.Context, token string) (*models.Principal, error) {
	if len(vc) == 0 {
		return nil, ErrNoVerifier
	}

	failures := make([]string, 0, len(vc))
	for _, v := range vc {
		principal, err := v.VerifyToken(ctx, token)
		if err == nil {
			return principal, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", v.Name(), err))
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidToken, strings.Join(failures, "; "))
}

func (vc VerifierChain) Name() string {
	names := make([]string, 0, len(vc))
	for _, v := range vc {
		names = append(names, v.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}
