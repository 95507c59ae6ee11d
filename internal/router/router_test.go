package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ranjel272/POSBF/internal/config"
	"github.com/Ranjel272/POSBF/internal/credential"
	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/repository"
	"github.com/Ranjel272/POSBF/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	admin  string // admin access token
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                    "test",
		CORSAllowedOrigins:     "http://localhost:3000",
		JWTSecret:              "test_jwt_secret_32_chars_minimum!",
		JWTExpirationHours:     8,
		JWTRefreshHours:        24,
		LoginRateLimit:         100,
		LoginRateWindowSeconds: 60,
		BcryptCost:             bcrypt.MinCost,
		PasswordMinLength:      1,
		PasscodeMinLength:      1,
		PasscodeMaxLength:      72,
		UniqueCashierPasscode:  true,
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := infra.NewDatabase(fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	// Seed the first admin straight into the store.
	repo := repository.NewAccountRepository(db)
	digest, err := credential.NewBcryptHasher(bcrypt.MinCost).Hash("adminpass1")
	require.NoError(t, err)
	username := "root"
	_, err = repo.Insert(context.Background(), &model.Account{
		FullName: "Root Admin", Username: &username, Role: model.RoleAdmin, CredentialHash: digest,
	})
	require.NoError(t, err)

	audit := worker.NewDirectDispatcher(worker.NewAuditWorker(repo, nil, nil, ""))
	env := &testEnv{engine: New(testConfig(), db, nil, audit), db: db}

	var login dto.LoginResponse
	w := env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Username: "root", Password: "adminpass1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	env.admin = login.AccessToken
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createAccount(t *testing.T, req dto.CreateAccountRequest) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/employee-accounts", e.admin, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.CreateAccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func (e *testEnv) passcodeLogin(t *testing.T, passcode string) dto.LoginResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/auth/passcode-login", "", dto.PasscodeLoginRequest{Passcode: passcode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCashierLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	id := env.createAccount(t, dto.CreateAccountRequest{FullName: "Ana", Role: "cashier", Passcode: "1234"})
	cashier := env.passcodeLogin(t, "1234")
	assert.Equal(t, id, cashier.Account.ID)

	// Cashier cannot reach admin routes.
	w := env.do(t, http.MethodGet, "/v1/employee-accounts", cashier.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Self-service update.
	w = env.do(t, http.MethodPut, "/v1/employee-accounts/self", cashier.AccessToken, dto.UpdateAccountRequest{FullName: "Ana Maria"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/auth/me", cashier.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ana Maria")

	// Disable, then the still-unexpired token is rejected.
	w = env.do(t, http.MethodDelete, "/v1/employee-accounts/"+id, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/v1/auth/me", cashier.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/v1/auth/refresh", "", dto.RefreshRequest{RefreshToken: cashier.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var events int64
	require.NoError(t, env.db.Model(&model.AccountEvent{}).Where("account_id = ?", id).Count(&events).Error)
	assert.EqualValues(t, 3, events) // created, updated, disabled
}

func TestCashierForbiddenOnAdminRoutes(t *testing.T) {
	env := setupTestEnv(t)
	id := env.createAccount(t, dto.CreateAccountRequest{FullName: "Ana", Role: "cashier", Passcode: "1234"})
	cashier := env.passcodeLogin(t, "1234")
	unknown := uuid.NewString()

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/v1/employee-accounts", nil},
		{http.MethodPost, "/v1/employee-accounts", dto.CreateAccountRequest{FullName: "Leo", Role: "cashier", Passcode: "9999"}},
		{http.MethodPut, "/v1/employee-accounts/" + unknown, dto.UpdateAccountRequest{FullName: "X"}},
		{http.MethodDelete, "/v1/employee-accounts/" + unknown, nil},
		{http.MethodPut, "/v1/employee-accounts/" + id, dto.UpdateAccountRequest{FullName: "X"}},
		{http.MethodDelete, "/v1/employee-accounts/" + id, nil},
	}
	for _, tc := range cases {
		w := env.do(t, tc.method, tc.path, cashier.AccessToken, tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}

	var acc model.Account
	require.NoError(t, env.db.Where("id = ?", id).First(&acc).Error)
	assert.Equal(t, "Ana", acc.FullName)
	assert.False(t, acc.IsDisabled)
}

func TestShortNonBlankSecretsAccepted(t *testing.T) {
	env := setupTestEnv(t)
	env.createAccount(t, dto.CreateAccountRequest{FullName: "Maria Lopez", Role: "manager", Username: "maria", Password: "abc"})
	env.createAccount(t, dto.CreateAccountRequest{FullName: "Leo Diaz", Role: "cashier", Passcode: "12"})

	w := env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Username: "maria", Password: "abc"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.passcodeLogin(t, "12")
}

func TestSharedPasscodeRejectedUntilDisabled(t *testing.T) {
	env := setupTestEnv(t)
	first := env.createAccount(t, dto.CreateAccountRequest{FullName: "Ana", Role: "cashier", Passcode: "1234"})

	w := env.do(t, http.MethodPost, "/v1/employee-accounts", env.admin,
		dto.CreateAccountRequest{FullName: "Luis", Role: "cashier", Passcode: "1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/v1/employee-accounts/"+first, env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env.createAccount(t, dto.CreateAccountRequest{FullName: "Luis", Role: "cashier", Passcode: "1234"})
}

func TestDuplicateFullNameRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.createAccount(t, dto.CreateAccountRequest{FullName: "Maria Lopez", Role: "manager", Username: "maria", Password: "s3cretpass"})

	w := env.do(t, http.MethodPost, "/v1/employee-accounts", env.admin,
		dto.CreateAccountRequest{FullName: "Maria Lopez", Role: "cashier", Passcode: "9911"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Full name is already used")
}

func TestManagerSelfUpdatePasswordOnly(t *testing.T) {
	env := setupTestEnv(t)
	env.createAccount(t, dto.CreateAccountRequest{FullName: "Maria Lopez", Role: "manager", Username: "maria", Password: "s3cretpass"})

	w := env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Username: "maria", Password: "s3cretpass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = env.do(t, http.MethodPut, "/v1/employee-accounts/self", login.AccessToken, dto.UpdateAccountRequest{Password: "rotated-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Username: "maria", Password: "s3cretpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Username: "maria", Password: "rotated-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSelfUpdateForbidden(t *testing.T) {
	env := setupTestEnv(t)
	w := env.do(t, http.MethodPut, "/v1/employee-accounts/self", env.admin, dto.UpdateAccountRequest{FullName: "Another"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEmptyUpdateIsNoop(t *testing.T) {
	env := setupTestEnv(t)
	id := env.createAccount(t, dto.CreateAccountRequest{FullName: "Ana", Role: "cashier", Passcode: "1234"})

	w := env.do(t, http.MethodGet, "/v1/employee-accounts", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var before []dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))

	w = env.do(t, http.MethodPut, "/v1/employee-accounts/"+id, env.admin, dto.UpdateAccountRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":false`)

	w = env.do(t, http.MethodGet, "/v1/employee-accounts", env.admin, nil)
	var after []dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Equal(t, before, after)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)
	for _, path := range []string{"/v1/auth/me", "/v1/employee-accounts"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)

	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth_attempts_total")
}
