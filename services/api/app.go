package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/analytics"
	"github.com/pavitra93/dealer-management-api/shared/auth"
	"github.com/pavitra93/dealer-management-api/shared/config"
	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/storage"
)

const (
	visitWorkers    = 4
	visitBufferSize = 1000
	visitCacheTTL   = 30 * 24 * time.Hour
)

// app holds the wired collaborators of the HTTP handlers
type app struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	store       *repository.Store
	codec       *auth.TokenCodec
	authn       *auth.Authenticator
	provisioner *auth.Provisioner
	authMW      *middleware.AuthMiddleware
	recorder    *analytics.Recorder
	files       *storage.Service

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store

	codec, err := auth.NewTokenCodec(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	a.codec = codec

	mapper := auth.ClaimMapper{DefaultDealerID: cfg.DefaultDealerID}
	if cfg.RoleHeuristics {
		mapper.Heuristic = auth.EmailRoleHeuristic
		log.Warn("Email role heuristics are enabled")
	}

	provider, jwks, err := identityProvider(cfg, mapper)
	if err != nil {
		return nil, err
	}

	chain := auth.VerifierChain{}
	if jwks != nil {
		chain = append(chain, jwks)
	}
	chain = append(chain, codec)
	a.authMW = middleware.NewAuthMiddleware(chain, log)

	credentials := auth.NewCredentialVerifier(provider, log)
	if !credentials.Delegating() {
		log.Warn("No identity provider API key configured, externally managed accounts log in without a password check")
	}
	a.authn = auth.NewAuthenticator(store.Users, credentials, codec, log)
	a.provisioner = auth.NewProvisioner(store.Users, store.Dealers, credentials, provider, log)

	var secondary analytics.SecondaryStore
	if cfg.Redis != nil {
		client, err := config.ConnectRedis(ctx, *cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		secondary = analytics.NewRedisVisitStore(client, visitCacheTTL)
	}

	var publisher analytics.Publisher
	if cfg.KafkaBroker != "" {
		kp := analytics.NewKafkaPublisher(analytics.NewKafkaWriter(cfg.KafkaBroker), cfg.KafkaVisitTopic, visitWorkers, visitBufferSize, log)
		a.closers = append(a.closers, kp.Close)
		publisher = kp
		log.WithField("topic", cfg.KafkaVisitTopic).Info("Visit events will be published to Kafka")
	}
	a.recorder = analytics.NewRecorder(store.Visits, secondary, publisher, log)

	objects, publicURL, err := objectStore(cfg)
	if err != nil {
		return nil, err
	}
	a.files = storage.NewService(objects, publicURL, log)

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	if cfg.StoreDriver == config.StorePostgres {
		db, err := config.ConnectDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewGormStore(db), nil
	}

	store := repository.NewMemoryStore().Store()
	if err := repository.Seed(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}
	return store, nil
}

func identityProvider(cfg *config.Config, mapper auth.ClaimMapper) (auth.IdentityProvider, auth.TokenVerifier, error) {
	switch cfg.IdentityProvider {
	case config.ProviderFirebase:
		jwks := auth.NewJWKSVerifier(auth.FirebaseJWKSConfig(cfg.FirebaseProjectID, cfg.IdPTimeout), mapper)
		if cfg.DevLoginBypass() {
			return nil, jwks, nil
		}
		return auth.NewFirebaseProvider(cfg.FirebaseAPIKey, cfg.FirebaseAuthURL, cfg.IdPTimeout), jwks, nil
	case config.ProviderCognito:
		provider, err := auth.NewCognitoProvider(auth.CognitoConfig{
			Region:       cfg.AWSRegion,
			UserPoolID:   cfg.CognitoPoolID,
			ClientID:     cfg.CognitoClientID,
			ClientSecret: cfg.CognitoSecret,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize cognito provider: %w", err)
		}
		jwks := auth.NewJWKSVerifier(auth.CognitoJWKSConfig(cfg.AWSRegion, cfg.CognitoPoolID, cfg.CognitoClientID, cfg.IdPTimeout), mapper)
		return provider, jwks, nil
	default:
		if !cfg.DevLoginBypass() {
			return nil, nil, errors.New("an identity provider is required when FIREBASE_API_KEY is set")
		}
		return nil, nil, nil
	}
}

func objectStore(cfg *config.Config) (storage.ObjectStore, string, error) {
	if cfg.S3Bucket == "" {
		publicURL := cfg.S3PublicURL
		if publicURL == "" {
			publicURL = "http://localhost:" + cfg.Port + "/files"
		}
		return storage.NewMemoryStore(), publicURL, nil
	}

	store, err := storage.NewS3Store(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.AWSRegion)
	}
	return store, publicURL, nil
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("Failed to close resource")
		}
	}
}
