package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pavitra93/dealer-management-api/shared/utils"
)

const firebaseAuthURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider talks to the Firebase Auth REST API
type FirebaseProvider struct {
	apiKey  string
	client  *resty.Client
	breaker *utils.CircuitBreaker
}

type firebaseCredentials struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseSession struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewFirebaseProvider creates a provider for the given web API key. baseURL
// may be empty to use the public endpoint.
func NewFirebaseProvider(apiKey, baseURL string, timeout time.Duration) *FirebaseProvider {
	if baseURL == "" {
		baseURL = firebaseAuthURL
	}
	return &FirebaseProvider{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		breaker: utils.NewCircuitBreaker("firebase", 5, 30*time.Second),
	}
}

func (p *FirebaseProvider) Name() string {
	return "firebase"
}

// call posts to an accounts endpoint. A 4xx answer is a definitive rejection
// and does not trip the breaker.
func (p *FirebaseProvider) call(ctx context.Context, endpoint string, body, result interface{}) (*firebaseError, error) {
	var rejection *firebaseError
	err := p.breaker.Call(ctx, func(ctx context.Context) error {
		fbErr := &firebaseError{}
		req := p.client.R().
			SetContext(ctx).
			SetQueryParam("key", p.apiKey).
			SetBody(body).
			SetError(fbErr)
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Post("/accounts:" + endpoint)
		if err != nil {
			return fmt.Errorf("firebase %s: %w", endpoint, err)
		}
		if resp.StatusCode() >= 500 {
			return fmt.Errorf("firebase %s: status %d", endpoint, resp.StatusCode())
		}
		if resp.IsError() {
			rejection = fbErr
		}
		return nil
	})
	return rejection, err
}

func (p *FirebaseProvider) signIn(ctx context.Context, email, password string) (*firebaseSession, error) {
	session := &firebaseSession{}
	rejection, err := p.call(ctx, "signInWithPassword", firebaseCredentials{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, session)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsRejected, rejection.Error.Message)
	}
	return session, nil
}

// VerifyPassword signs in with the password and discards the session
func (p *FirebaseProvider) VerifyPassword(ctx context.Context, email, password string) error {
	_, err := p.signIn(ctx, email, password)
	return err
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password, name string) error {
	rejection, err := p.call(ctx, "signUp", firebaseCredentials{
		Email:             email,
		Password:          password,
		DisplayName:       name,
		ReturnSecureToken: false,
	}, nil)
	if err != nil {
		return err
	}
	if rejection != nil {
		if rejection.Error.Message == "EMAIL_EXISTS" {
			return ErrEmailTaken
		}
		return fmt.Errorf("firebase signUp rejected: %s", rejection.Error.Message)
	}
	return nil
}

// ChangePassword needs a fresh session, so it signs in with the current
// password first.
func (p *FirebaseProvider) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	session, err := p.signIn(ctx, email, currentPassword)
	if err != nil {
		return err
	}

	rejection, err := p.call(ctx, "update", map[string]interface{}{
		"idToken":           session.IDToken,
		"password":          newPassword,
		"returnSecureToken": false,
	}, nil)
	if err != nil {
		return err
	}
	if rejection != nil {
		return fmt.Errorf("firebase update rejected: %s", rejection.Error.Message)
	}
	return nil
}
