package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/dealer-management-api/shared/auth"
	"github.com/pavitra93/dealer-management-api/shared/config"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/repository"
)

const testSecret = "test-signing-secret"

type testServer struct {
	app    *app
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	cfg := &config.Config{
		Port:             "3000",
		Env:              "test",
		JWTSecret:        testSecret,
		ConfiguratorURL:  "https://configurator.example.com/start",
		IdentityProvider: config.ProviderNone,
		StoreDriver:      config.StoreMemory,
		S3PublicURL:      "https://files.example.com",
	}
	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return &testServer{app: a, router: newRouter(a)}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func (s *testServer) tokenFor(t *testing.T, role models.Role, dealerID *uint) string {
	t.Helper()
	token, err := s.app.codec.Issue(&models.Principal{ID: "900", Email: "tester@x.com", Role: role, DealerID: dealerID})
	require.NoError(t, err)
	return token
}

func dealer(id uint) *uint { return &id }

func TestLogin_SeededProducerAdminSeesAllOrders(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    repository.SeedAdminEmail,
		"password": repository.SeedAdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "producer_admin", body["role"])
	assert.Nil(t, body["dealerId"])
	assert.EqualValues(t, 1, body["userId"])

	w, body = s.do(t, http.MethodGet, "/api/v1/orders", body["token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	assert.Len(t, body["data"], 2)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": repository.SeedAdminEmail})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": repository.SeedAdminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password.", body["error"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ghost@x.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrders_RequireToken(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, token missing", body["error"])

	w, body = s.do(t, http.MethodGet, "/api/v1/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, token invalid", body["error"])
}

func TestOrders_ExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)

	issued := time.Now().Add(-auth.TokenTTL - time.Minute)
	claims := auth.Claims{
		UserID: "1",
		Email:  repository.SeedAdminEmail,
		Role:   models.RoleProducerAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(auth.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrders_DealerScopedListAndCreate(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(t, models.RoleDealerUser, dealer(101))

	w, body := s.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, body = s.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"dealerId":      999,
		"customerName":  "Ayşe Yılmaz",
		"configuration": gin.H{"frame": "Round", "lensType": "Clear"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 101, data["dealerId"])
	assert.Equal(t, "Pending", data["status"])

	orders, err := s.app.store.Orders.ListByDealer(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrders_TenantScopedWithoutDealer(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(t, models.RoleDealerAdmin, nil)

	w, body := s.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["count"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"customerName":  "Ali",
		"configuration": gin.H{"frame": "Round"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders_ProducerAdminMustNameDealer(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(t, models.RoleProducerAdmin, nil)

	w, _ := s.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"customerName":  "Ali",
		"configuration": gin.H{"frame": "Round"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"dealerId":      102,
		"customerName":  "Ali",
		"configuration": gin.H{"frame": "Round"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 102, body["data"].(map[string]interface{})["dealerId"])
}

func TestOrders_UpdateStatus(t *testing.T) {
	s := newTestServer(t)
	foreign := s.tokenFor(t, models.RoleDealerAdmin, dealer(102))
	owner := s.tokenFor(t, models.RoleDealerUser, dealer(101))

	w, _ := s.do(t, http.MethodPatch, "/api/v1/orders/5001/status", foreign, gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/orders/5001/status", owner, gin.H{"status": "Teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/orders/4242/status", owner, gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/orders/5001/status", owner, gin.H{"status": "InProduction"})
	require.Equal(t, http.StatusOK, w.Code)

	order, err := s.app.store.Orders.FindByID(context.Background(), 5001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProduction, order.Status)
}

func TestAppointments_CreateDefaultsAndScope(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(t, models.RoleDealerAdmin, dealer(102))

	w, body := s.do(t, http.MethodPost, "/api/v1/appointments", token, gin.H{
		"dealerId":        101,
		"customerName":    "Mehmet",
		"appointmentDate": "2026-11-02T10:30:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 102, data["dealerId"])
	assert.Equal(t, "Other", data["type"])
	assert.Equal(t, "Scheduled", data["status"])
	id := uint(data["id"].(float64))

	w, _ = s.do(t, http.MethodPost, "/api/v1/appointments", token, gin.H{"customerName": "Mehmet"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := s.tokenFor(t, models.RoleDealerUser, dealer(101))
	w, body = s.do(t, http.MethodGet, "/api/v1/appointments", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["count"])

	w, _ = s.do(t, http.MethodPatch, "/api/v1/appointments/"+itoa(id)+"/status", other, gin.H{"status": "Completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/appointments/"+itoa(id)+"/status", token, gin.H{"status": "No Show"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalytics_StatsTenantEquality(t *testing.T) {
	s := newTestServer(t)
	own := s.tokenFor(t, models.RoleDealerAdmin, dealer(55))

	w, _ := s.do(t, http.MethodGet, "/api/v1/analytics/stats/56", own, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(t, http.MethodGet, "/api/v1/analytics/stats/55", own, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 55, body["dealerId"])
	assert.EqualValues(t, 0, body["totalVisits"])
	assert.Nil(t, body["lastVisit"])

	admin := s.tokenFor(t, models.RoleProducerAdmin, nil)
	w, _ = s.do(t, http.MethodGet, "/api/v1/analytics/stats/56", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/analytics/stats/55", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnalytics_TrackLinkRecordsVisitAndRedirects(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/l/a1b2c3d4-test-hash", nil)
	req.Header.Set("User-Agent", "test-browser")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://configurator.example.com/start?dealerId=101", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))

	w, _ = s.do(t, http.MethodGet, "/api/v1/analytics/x9y8z7w6-test-hash", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	token := s.tokenFor(t, models.RoleDealerUser, dealer(101))
	w, body := s.do(t, http.MethodGet, "/api/v1/analytics/stats/101", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalVisits"])
	assert.NotNil(t, body["lastVisit"])
	visits := body["data"].([]interface{})
	require.Len(t, visits, 1)
	assert.Equal(t, "test-browser", visits[0].(map[string]interface{})["userAgent"])

	w, _ = s.do(t, http.MethodGet, "/l/unknown-hash", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsers_DealerAdminProvisionsOwnStaff(t *testing.T) {
	s := newTestServer(t)
	owner := s.login(t, "owner@merkezoptik.com", "bayi-sifresi")

	w, body := s.do(t, http.MethodPost, "/api/v1/auth/users", owner, gin.H{
		"email":    "New.Staff@MerkezOptik.com",
		"password": "staff-pass",
		"dealerId": 102,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "new.staff@merkezoptik.com", data["email"])
	assert.Equal(t, "dealer_user", data["role"])
	assert.EqualValues(t, 101, data["dealerId"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/users", owner, gin.H{
		"email":    "boss@x.com",
		"password": "boss-pass",
		"role":     "producer_admin",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/users", owner, gin.H{
		"email":    "new.staff@merkezoptik.com",
		"password": "staff-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	staff := s.login(t, "new.staff@merkezoptik.com", "staff-pass")
	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/users", staff, gin.H{
		"email":    "another@merkezoptik.com",
		"password": "another-pass",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_ChangePassword(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "staff@batioptik.com", "personel-sifresi")

	w, _ := s.do(t, http.MethodPatch, "/api/v1/auth/change-password", token, gin.H{
		"currentPassword": "personel-sifresi",
		"newPassword":     "yeni-sifre",
		"confirmPassword": "baska-sifre",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPatch, "/api/v1/auth/change-password", token, gin.H{
		"currentPassword": "wrong",
		"newPassword":     "yeni-sifre",
		"confirmPassword": "yeni-sifre",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect.", body["error"])

	w, _ = s.do(t, http.MethodPatch, "/api/v1/auth/change-password", token, gin.H{
		"currentPassword": "personel-sifresi",
		"newPassword":     "yeni-sifre",
		"confirmPassword": "yeni-sifre",
	})
	require.Equal(t, http.StatusOK, w.Code)

	s.login(t, "staff@batioptik.com", "yeni-sifre")
	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "staff@batioptik.com", "password": "personel-sifresi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestDealers_ScopeAndCreate(t *testing.T) {
	s := newTestServer(t)
	dealerAdmin := s.tokenFor(t, models.RoleDealerAdmin, dealer(101))
	producer := s.tokenFor(t, models.RoleProducerAdmin, nil)

	w, body := s.do(t, http.MethodGet, "/api/v1/dealers", dealerAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/dealers/102", dealerAdmin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/dealers", dealerAdmin, gin.H{"name": "Doğu Optik"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/dealers", producer, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/v1/dealers", producer, gin.H{"name": "Doğu Optik"})
	require.Equal(t, http.StatusCreated, w.Code)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["currentLinkHash"])
	assert.EqualValues(t, 10, data["quotaLimit"])

	w, body = s.do(t, http.MethodGet, "/api/v1/dealers", producer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["count"])
}

func TestStorage_UploadAndDeleteWithinOwnFolder(t *testing.T) {
	s := newTestServer(t)
	owner := s.tokenFor(t, models.RoleDealerAdmin, dealer(101))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/storage/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	fileURL := body["data"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(fileURL, "https://files.example.com/dealers/101/"))

	w, _ = s.do(t, http.MethodDelete, "/api/v1/storage/delete", owner, gin.H{"fileUrl": "https://files.example.com/dealers/102/x-logo.png"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/storage/delete", owner, gin.H{"fileUrl": fileURL})
	assert.Equal(t, http.StatusOK, w.Code)

	staff := s.tokenFor(t, models.RoleDealerUser, dealer(101))
	w, _ = s.do(t, http.MethodDelete, "/api/v1/storage/delete", staff, gin.H{"fileUrl": fileURL})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = s.do(t, http.MethodGet, "/api-status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dealer_api_")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
