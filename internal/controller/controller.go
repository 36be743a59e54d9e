package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	zapLogger      *zap.SugaredLogger
	authService    *service.AuthService
	sessionService *service.SessionService
	patientService *service.PatientService
	cookies        *util.CookieConfig
	db             Pinger
	retention      time.Duration
	now            func() time.Time
}

func NewController(
	logger *zap.SugaredLogger,
	authService *service.AuthService,
	sessionService *service.SessionService,
	patientService *service.PatientService,
	cookies *util.CookieConfig,
	db Pinger,
	retention time.Duration,
) *Controller {
	return &Controller{
		zapLogger:      logger,
		authService:    authService,
		sessionService: sessionService,
		patientService: patientService,
		cookies:        cookies,
		db:             db,
		retention:      retention,
		now:            time.Now,
	}
}

type statusResponse struct {
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Authenticated bool      `json:"authenticated"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// (GET /).
func (c *Controller) CheckServer(ctx echo.Context) error {
	_, authed := service.IdentityFromContext(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, statusResponse{
		Status:        "ok",
		Message:       "Seniorble 백엔드 서버가 정상 작동 중입니다.",
		Timestamp:     c.now().UTC(),
		Authenticated: authed,
	})
}

// (GET /health).
func (c *Controller) Health(ctx echo.Context) error {
	if err := c.db.Ping(ctx.Request().Context()); err != nil {
		c.zapLogger.Errorw("database ping failed", "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Database:  "disconnected",
			Timestamp: c.now().UTC(),
		})
	}
	return ctx.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: c.now().UTC(),
	})
}

type purgeResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

// (POST /internal/refresh-tokens/purge).
func (c *Controller) PurgeRefreshTokens(ctx echo.Context) error {
	n, err := c.sessionService.PurgeExpired(ctx.Request().Context(), c.retention)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, purgeResponse{Success: true, Deleted: n})
}
