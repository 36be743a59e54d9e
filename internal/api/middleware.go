package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

type APIKeyValidator interface {
	IsValidAPIKey(ctx context.Context, key string) (bool, error)
}

// Authenticate rejects the request before the handler runs unless it carries
// a valid access token. The verified identity rides on the request context.
func Authenticate(gate *service.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, err := gate.Authenticate(req.Context(), req.Header.Get(models.MwAuthHeader))
			if err != nil {
				return err
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func OptionalAuthenticate(gate *service.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := gate.OptionalAuthenticate(req.Context(), req.Header.Get(models.MwAuthHeader))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole must be mounted after Authenticate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.RequireRole(c.Request().Context(), roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// APIKeyAuthMiddleware checks X-API-Key against the maintenance key set.
func APIKeyAuthMiddleware(keys APIKeyValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get(models.MwAPIKeyHeader)
			if apiKey == "" {
				return service.ErrUnauthenticated
			}

			ok, err := keys.IsValidAPIKey(c.Request().Context(), apiKey)
			if err != nil {
				return err
			}
			if !ok {
				return util.NewResponseError(http.StatusUnauthorized, "유효하지 않은 API 키입니다.")
			}

			c.Set(models.MwClientIDKey, "maintenance")
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(log *zap.SugaredLogger) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogUserAgent: true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remoteIP", v.RemoteIP,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
				log.Errorw("Request", fields...)
				return nil
			}
			log.Infow("Request", fields...)
			return nil
		},
	}
}
