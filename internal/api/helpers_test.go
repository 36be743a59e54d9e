package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/controller"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/storage/memory"
	"github.com/seniorble/guardian/internal/util"
)

const (
	cookieName   = "refreshToken"
	testPassword = "password123"
	testEmail    = "guardian@example.com"
	validAPIKey  = "maintenance-key"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

type stubKeys struct{ err error }

func (k stubKeys) IsValidAPIKey(_ context.Context, key string) (bool, error) {
	if k.err != nil {
		return false, k.err
	}
	return key == validAPIKey, nil
}

type testEnv struct {
	handler  http.Handler
	tokenCfg *util.TokenConfig
	tokens   *service.TokenService
	sessions *memory.InMemorySessionManager
	db       *stubPinger
}

func testTokenConfig() *util.TokenConfig {
	return &util.TokenConfig{
		AccessSecret:  []byte("api-test-access"),
		RefreshSecret: []byte("api-test-refresh"),
		Issuer:        "seniorble",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
	}
}

func newTestEnv(t *testing.T, apiKeys APIKeyValidator) *testEnv {
	t.Helper()

	log := zap.NewNop().Sugar()
	tokenCfg := testTokenConfig()
	tokens := service.NewTokenService(tokenCfg)

	hasher, err := service.NewPasswordHasher(util.MinBcryptCost)
	require.NoError(t, err)

	accounts := memory.NewAccountRepository()
	sessions := memory.NewSessionRepository(log)
	db := &stubPinger{}

	ctrl := controller.NewController(
		log,
		service.NewAuthService(accounts, hasher, log),
		service.NewSessionService(accounts, sessions, tokens, hasher, service.NewWebhookService(log, ""), log),
		service.NewPatientService(memory.NewPatientRepository()),
		&util.CookieConfig{
			Name:     cookieName,
			Path:     "/auth/refresh",
			SameSite: http.SameSiteLaxMode,
			Secure:   true,
			MaxAge:   tokenCfg.RefreshTTL,
		},
		db,
		24*time.Hour,
	)

	a, err := NewAPI(ctrl, service.NewGate(tokens), apiKeys, log, &util.ServerConfig{
		ServerAddr:      "127.0.0.1:0",
		GracefulTimeout: time.Second,
		AllowOrigins:    []string{"https://app.seniorble.example"},
	})
	require.NoError(t, err)

	return &testEnv{
		handler:  a.Handler(),
		tokenCfg: tokenCfg,
		tokens:   tokens,
		sessions: sessions,
		db:       db,
	}
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) {
		if c != nil {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
}

func withHeader(k, v string) requestOption {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
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
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func signupBody() map[string]string {
	return map[string]string{
		"email":    testEmail,
		"password": testPassword,
		"name":     "김보호",
		"phone":    "010-1234-5678",
	}
}

func (e *testEnv) signupAndLogin(t *testing.T) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/signup", signupBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	return body.AccessToken, cookie
}

var errStub = errors.New("stub failure")
