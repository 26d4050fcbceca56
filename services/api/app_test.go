package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/dealer-management-api/shared/auth"
	"github.com/pavitra93/dealer-management-api/shared/config"
	"github.com/pavitra93/dealer-management-api/shared/models"
)

func firebaseConfig(apiKey, authURL string) *config.Config {
	return &config.Config{
		Port:              "3000",
		Env:               "test",
		JWTSecret:         testSecret,
		IdentityProvider:  config.ProviderFirebase,
		FirebaseAPIKey:    apiKey,
		FirebaseProjectID: "dealer-project",
		FirebaseAuthURL:   authURL,
		IdPTimeout:        time.Second,
		StoreDriver:       config.StoreMemory,
	}
}

func TestIdentityProvider_FirebaseKeyDisablesBypass(t *testing.T) {
	provider, jwks, err := identityProvider(firebaseConfig("web-key", ""), auth.ClaimMapper{})
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, jwks)

	provider, jwks, err = identityProvider(firebaseConfig("", ""), auth.ClaimMapper{})
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.NotNil(t, jwks)
}

func TestIdentityProvider_KeyWithoutProviderFails(t *testing.T) {
	cfg := firebaseConfig("web-key", "")
	cfg.IdentityProvider = config.ProviderNone

	_, _, err := identityProvider(cfg, auth.ClaimMapper{})
	assert.Error(t, err)
}

func TestLogin_ManagedAccountChecksPasswordWithFirebase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	var signIns int
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signIns++
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/accounts:signInWithPassword" || body["password"] != "right-password" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"idToken":"id-token","localId":"uid-1"}`))
	}))
	t.Cleanup(idp.Close)

	a, err := newApp(context.Background(), firebaseConfig("web-key", idp.URL), logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	s := &testServer{app: a, router: newRouter(a)}

	require.NoError(t, a.store.Users.Create(context.Background(), &models.User{
		Email:        "managed@merkezoptik.com",
		PasswordHash: models.ExternallyManagedSecret,
		Role:         models.RoleDealerUser,
		DealerID:     dealer(101),
		IsActive:     true,
	}))

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "managed@merkezoptik.com", "password": "anything"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.login(t, "managed@merkezoptik.com", "right-password")
	assert.Equal(t, 2, signIns)
}

func TestNewApp_WarnsWhenLoginBypassActive(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := firebaseConfig("", "")
	cfg.IdentityProvider = config.ProviderNone

	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var warned bool
	for _, entry := range hook.AllEntries() {
		warned = warned || strings.Contains(entry.Message, "without a password check")
	}
	assert.True(t, warned)
}
