package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

func newGuardedEcho(gate *service.Gate, called *bool, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop().Sugar())
	e.GET("/protected", func(c echo.Context) error {
		*called = true
		id, _ := service.IdentityFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, id)
	}, mw...)
	return e
}

func TestAuthenticate_ExpiredTokenNeverReachesHandler(t *testing.T) {
	cfg := testTokenConfig()
	gate := service.NewGate(service.NewTokenService(cfg))

	expiredCfg := *cfg
	expiredCfg.AccessTTL = -time.Minute
	expired, err := service.NewTokenService(&expiredCfg).IssueAccess("user-1", models.RoleGuardian, testEmail)
	require.NoError(t, err)

	var called bool
	e := newGuardedEcho(gate, &called, Authenticate(gate))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(models.MwAuthHeader, "Bearer "+expired)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	tokens := service.NewTokenService(testTokenConfig())
	gate := service.NewGate(tokens)
	token, err := tokens.IssueAccess("user-1", models.RoleGuardian, testEmail)
	require.NoError(t, err)

	var called bool
	e := newGuardedEcho(gate, &called, Authenticate(gate), RequireRole(models.RoleGuardian))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(models.MwAuthHeader, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.JSONEq(t, fmt.Sprintf(`{"id":"user-1","role":"guardian","email":%q}`, testEmail), rec.Body.String())
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	gate := service.NewGate(service.NewTokenService(testTokenConfig()))

	var called bool
	e := newGuardedEcho(gate, &called, RequireRole(models.RoleGuardian))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAPIKeyAuthMiddleware_ValidatorError(t *testing.T) {
	var called bool
	e := newGuardedEcho(nil, &called, APIKeyAuthMiddleware(stubKeys{err: errStub}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(models.MwAPIKeyHeader, validAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestErrorHandler_Classification(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, loginFailedMsg},
		{"wrapped unauthenticated", fmt.Errorf("%w: expired", service.ErrUnauthenticated), http.StatusUnauthorized, authRequiredMsg},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, forbiddenMsg},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, emailTakenMsg},
		{"device taken", service.ErrDeviceTaken, http.StatusConflict, deviceTakenMsg},
		{"validation", util.NewValidationError("bad"), http.StatusBadRequest, invalidInputMsg},
		{"response error", util.NewResponseError(http.StatusUnauthorized, "nope"), http.StatusUnauthorized, "nope"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, notFoundMsg},
		{"echo bad request", echo.NewHTTPError(http.StatusBadRequest, "request body has an error"), http.StatusBadRequest, invalidInputMsg},
		{"echo method", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, methodNotAllowed},
		{"echo internal", echo.NewHTTPError(http.StatusInternalServerError, "secret detail"), http.StatusInternalServerError, internalErrorMsg},
		{"unknown", errStub, http.StatusInternalServerError, internalErrorMsg},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, body.Message)
			assert.False(t, body.Success)
		})
	}
}
