package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"

	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// CognitoConfig holds the user pool settings
type CognitoConfig struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// CognitoProvider verifies and manages passwords in a Cognito user pool
type CognitoProvider struct {
	cfg     CognitoConfig
	client  cognitoidentityprovideriface.CognitoIdentityProviderAPI
	breaker *utils.CircuitBreaker
}

// NewCognitoProvider creates a provider backed by a new AWS session
func NewCognitoProvider(cfg CognitoConfig) (*CognitoProvider, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewCognitoProviderWithClient(cfg, cognitoidentityprovider.New(sess)), nil
}

// NewCognitoProviderWithClient uses an existing Cognito client
func NewCognitoProviderWithClient(cfg CognitoConfig, client cognitoidentityprovideriface.CognitoIdentityProviderAPI) *CognitoProvider {
	return &CognitoProvider{
		cfg:     cfg,
		client:  client,
		breaker: utils.NewCircuitBreaker("cognito", 5, 30*time.Second),
	}
}

func (p *CognitoProvider) Name() string {
	return "cognito"
}

// secretHash creates a secret hash for Cognito authentication
func (p *CognitoProvider) secretHash(username string) string {
	if p.cfg.ClientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.cfg.ClientSecret))
	mac.Write([]byte(username + p.cfg.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// isRejection reports Cognito errors that are answers rather than outages
func isRejection(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case cognitoidentityprovider.ErrCodeNotAuthorizedException,
		cognitoidentityprovider.ErrCodeUserNotFoundException,
		cognitoidentityprovider.ErrCodeUsernameExistsException,
		cognitoidentityprovider.ErrCodeInvalidPasswordException,
		cognitoidentityprovider.ErrCodeUserNotConfirmedException:
		return true
	}
	return false
}

// call runs fn through the breaker without counting rejections as outages
func (p *CognitoProvider) call(ctx context.Context, fn func(ctx context.Context) error) error {
	var rejection error
	err := p.breaker.Call(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isRejection(err) {
			rejection = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return rejection
}

func (p *CognitoProvider) VerifyPassword(ctx context.Context, email, password string) error {
	params := map[string]*string{
		"USERNAME": aws.String(email),
		"PASSWORD": aws.String(password),
	}
	if hash := p.secretHash(email); hash != "" {
		params["SECRET_HASH"] = aws.String(hash)
	}

	err := p.call(ctx, func(ctx context.Context) error {
		_, err := p.client.InitiateAuthWithContext(ctx, &cognitoidentityprovider.InitiateAuthInput{
			AuthFlow:       aws.String(cognitoidentityprovider.AuthFlowTypeUserPasswordAuth),
			ClientId:       aws.String(p.cfg.ClientID),
			AuthParameters: params,
		})
		return err
	})
	if isRejection(err) {
		return fmt.Errorf("%w: %v", ErrCredentialsRejected, err)
	}
	return err
}

// CreateUser creates a confirmed account with a permanent password
func (p *CognitoProvider) CreateUser(ctx context.Context, email, password, name string) error {
	attributes := []*cognitoidentityprovider.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
		{Name: aws.String("email_verified"), Value: aws.String("true")},
	}
	if name != "" {
		attributes = append(attributes, &cognitoidentityprovider.AttributeType{
			Name:  aws.String("name"),
			Value: aws.String(name),
		})
	}

	err := p.call(ctx, func(ctx context.Context) error {
		_, err := p.client.AdminCreateUserWithContext(ctx, &cognitoidentityprovider.AdminCreateUserInput{
			UserPoolId:     aws.String(p.cfg.UserPoolID),
			Username:       aws.String(email),
			UserAttributes: attributes,
			MessageAction:  aws.String(cognitoidentityprovider.MessageActionTypeSuppress),
		})
		return err
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == cognitoidentityprovider.ErrCodeUsernameExistsException {
			return ErrEmailTaken
		}
		return fmt.Errorf("cognito create user: %w", err)
	}

	return p.setPassword(ctx, email, password)
}

// ChangePassword sets the new password; the current one is verified by the caller
func (p *CognitoProvider) ChangePassword(ctx context.Context, email, _, newPassword string) error {
	return p.setPassword(ctx, email, newPassword)
}

func (p *CognitoProvider) setPassword(ctx context.Context, email, password string) error {
	err := p.call(ctx, func(ctx context.Context) error {
		_, err := p.client.AdminSetUserPasswordWithContext(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
			UserPoolId: aws.String(p.cfg.UserPoolID),
			Username:   aws.String(email),
			Password:   aws.String(password),
			Permanent:  aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("cognito set password: %w", err)
	}
	return nil
}
