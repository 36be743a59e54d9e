package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	middleware "github.com/oapi-codegen/echo-middleware"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/controller"
	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
)

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	gate            *service.Gate
	apiKeys         APIKeyValidator
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
}

// NewAPI builds the echo server with every route mounted. apiKeys may be nil,
// in which case the maintenance routes are not exposed.
func NewAPI(
	c *controller.Controller,
	gate *service.Gate,
	apiKeys APIKeyValidator,
	l *zap.SugaredLogger,
	sc *util.ServerConfig,
) (*API, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)
	e.Validator = controller.NewRequestValidator()

	a := &API{
		server:          e,
		controller:      c,
		gate:            gate,
		apiKeys:         apiKeys,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
	}

	if err := a.setupRoutes(sc.AllowOrigins); err != nil {
		return nil, err
	}
	return a, nil
}

// Handler exposes the router, mainly for httptest.
func (a *API) Handler() http.Handler {
	return a.server
}

func (a *API) setupRoutes(allowOrigins []string) error {
	swagger, err := controller.GetSwagger()
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI specification: %w", err)
	}
	swagger.Servers = nil

	a.server.Use(echomiddleware.Recover())
	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a.log)))
	if len(allowOrigins) > 0 {
		a.server.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     allowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, models.MwAuthHeader},
			AllowCredentials: true,
		}))
	}
	a.server.Use(middleware.OapiRequestValidator(swagger))

	authenticated := Authenticate(a.gate)
	guardianOnly := RequireRole(models.RoleGuardian)

	a.server.GET("/", a.controller.CheckServer, OptionalAuthenticate(a.gate))
	a.server.GET("/health", a.controller.Health)
	a.server.POST("/signup", a.controller.Signup)
	a.server.POST("/login", a.controller.Login)
	a.server.POST("/logout", a.controller.Logout)

	auth := a.server.Group("/auth")
	auth.POST("/refresh", a.controller.Refresh)
	auth.POST("/refresh/logout", a.controller.Logout)
	auth.GET("/me", a.controller.Me, authenticated)
	auth.GET("/verify", a.controller.Me, authenticated)

	patients := a.server.Group("/patients", authenticated, guardianOnly)
	patients.GET("", a.controller.ListPatients)
	patients.POST("", a.controller.CreatePatient)

	if a.apiKeys != nil {
		internal := a.server.Group("/internal", APIKeyAuthMiddleware(a.apiKeys))
		internal.POST("/refresh-tokens/purge", a.controller.PurgeRefreshTokens)
	} else {
		a.log.Infow("maintenance routes disabled", "reason", "no API key validator")
	}

	return nil
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	serverErr := make(chan error, 1)
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		a.log.Errorf("HTTP server ListenAndServe: %v", err)
		return
	}
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Errorf("shutdown: %v", err)
			return
		}
		a.log.Info("server shutdown completed")
	case <-time.After(a.gracefulTimeout):
		a.log.Warnf("server shutdown exceeded %s", a.gracefulTimeout)
	}
}
