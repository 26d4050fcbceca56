package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Identity provider names accepted in IDENTITY_PROVIDER
const (
	ProviderNone     = "none"
	ProviderFirebase = "firebase"
	ProviderCognito  = "cognito"
)

// Store drivers accepted in STORE_DRIVER
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the full runtime configuration of the API
type Config struct {
	Port            string
	Env             string
	JWTSecret       string
	DefaultDealerID *uint
	RoleHeuristics  bool
	ConfiguratorURL string

	IdentityProvider  string
	FirebaseAPIKey    string
	FirebaseProjectID string
	FirebaseAuthURL   string
	AWSRegion         string
	CognitoPoolID     string
	CognitoClientID   string
	CognitoSecret     string
	IdPTimeout        time.Duration

	StoreDriver string
	Database    DatabaseConfig
	Redis       *RedisConfig

	KafkaBroker     string
	KafkaVisitTopic string

	S3Bucket    string
	S3Endpoint  string
	S3PublicURL string
	S3AccessKey string
	S3SecretKey string
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		Env:             strings.ToLower(getEnv("APP_ENV", "development")),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ConfiguratorURL: getEnv("CONFIGURATOR_URL", "https://www.google.com/search?q=eyewear+configurator"),

		IdentityProvider:  strings.ToLower(os.Getenv("IDENTITY_PROVIDER")),
		FirebaseAPIKey:    os.Getenv("FIREBASE_API_KEY"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseAuthURL:   os.Getenv("FIREBASE_AUTH_URL"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		CognitoPoolID:     os.Getenv("COGNITO_USER_POOL_ID"),
		CognitoClientID:   os.Getenv("COGNITO_CLIENT_ID"),
		CognitoSecret:     os.Getenv("COGNITO_CLIENT_SECRET"),
		IdPTimeout:        getDuration("IDP_TIMEOUT", 5*time.Second),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "dealer_management"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},

		KafkaBroker:     os.Getenv("KAFKA_BROKER"),
		KafkaVisitTopic: getEnv("KAFKA_VISIT_TOPIC", "dealer-link-visits"),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis = &RedisConfig{
			Host:     host,
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		}
	}

	if raw := os.Getenv("DEFAULT_DEALER_ID"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, errors.New("DEFAULT_DEALER_ID must be a positive integer")
		}
		dealerID := uint(id)
		cfg.DefaultDealerID = &dealerID
	}

	cfg.RoleHeuristics = getBool("ROLE_HEURISTICS", false)

	// an API key alone selects firebase
	if cfg.IdentityProvider == "" {
		cfg.IdentityProvider = ProviderNone
		if cfg.FirebaseAPIKey != "" {
			cfg.IdentityProvider = ProviderFirebase
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the API cannot start with
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not defined")
	}
	if c.IsProduction() && c.RoleHeuristics {
		return errors.New("ROLE_HEURISTICS cannot be enabled in production")
	}

	switch c.IdentityProvider {
	case ProviderNone:
		if c.FirebaseAPIKey != "" {
			return errors.New("FIREBASE_API_KEY cannot be used with IDENTITY_PROVIDER=none")
		}
	case ProviderFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for the firebase identity provider")
		}
		if c.FirebaseAPIKey == "" && c.IsProduction() {
			return errors.New("FIREBASE_API_KEY is required for the firebase identity provider in production")
		}
	case ProviderCognito:
		if c.CognitoPoolID == "" || c.CognitoClientID == "" {
			return errors.New("COGNITO_USER_POOL_ID and COGNITO_CLIENT_ID are required for the cognito identity provider")
		}
	default:
		return errors.New("IDENTITY_PROVIDER must be one of none, firebase, cognito")
	}

	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return errors.New("STORE_DRIVER must be memory or postgres")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DevLoginBypass reports whether passwords of externally managed accounts
// are accepted without a provider check. Only a missing Firebase API key
// turns it on.
func (c *Config) DevLoginBypass() bool {
	return c.IdentityProvider != ProviderCognito && c.FirebaseAPIKey == ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
