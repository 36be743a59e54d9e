package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

const (
	loginSucceededMsg  = "로그인에 성공했습니다."
	signupSucceededMsg = "회원가입이 완료되었습니다."
	logoutSucceededMsg = "로그아웃되었습니다."
	malformedBodyMsg   = "요청 본문을 해석할 수 없습니다."
)

// (POST /signup).
func (c *Controller) Signup(ctx echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(ctx, &req, func() {
		req.Email = service.NormalizeEmail(req.Email)
		req.Name = strings.TrimSpace(req.Name)
		req.Phone = strings.TrimSpace(req.Phone)
	}); err != nil {
		return err
	}

	account, err := c.authService.Signup(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, models.SignupResponse{
		Success: true,
		Message: signupSucceededMsg,
		User:    account.View(),
	})
}

// (POST /login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(ctx, &req, func() {
		req.Email = service.NormalizeEmail(req.Email)
	}); err != nil {
		return err
	}

	res, err := c.sessionService.Login(ctx.Request().Context(), req.Email, req.Password, clientMetadata(ctx))
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, res.Tokens.RefreshToken, res.Tokens.RefreshExp)
	return ctx.JSON(http.StatusOK, models.LoginResponse{
		Success:     true,
		Message:     loginSucceededMsg,
		AccessToken: res.Tokens.AccessToken,
		User:        res.Account,
	})
}

// (POST /auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	pair, err := c.sessionService.Refresh(ctx.Request().Context(), c.refreshCookie(ctx), clientMetadata(ctx))
	if err != nil {
		c.clearRefreshCookie(ctx)
		return err
	}

	c.setRefreshCookie(ctx, pair.RefreshToken, pair.RefreshExp)
	return ctx.JSON(http.StatusOK, models.RefreshResponse{
		Success:     true,
		AccessToken: pair.AccessToken,
	})
}

// (POST /logout, POST /auth/refresh/logout).
// Always succeeds; a broken or missing cookie is simply cleared.
func (c *Controller) Logout(ctx echo.Context) error {
	if err := c.sessionService.Logout(ctx.Request().Context(), c.refreshCookie(ctx)); err != nil {
		c.zapLogger.Errorw("logout: revoke refresh token", "error", err)
	}

	c.clearRefreshCookie(ctx)
	return ctx.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: logoutSucceededMsg,
	})
}

// (GET /auth/me, GET /auth/verify).
func (c *Controller) Me(ctx echo.Context) error {
	id, ok := service.IdentityFromContext(ctx.Request().Context())
	if !ok {
		return service.ErrUnauthenticated
	}
	return ctx.JSON(http.StatusOK, models.IdentityResponse{Success: true, User: id})
}

func bindAndValidate(ctx echo.Context, req interface{}, normalize func()) error {
	if err := ctx.Bind(req); err != nil {
		return util.NewValidationError(malformedBodyMsg)
	}
	if normalize != nil {
		normalize()
	}
	return ctx.Validate(req)
}

func clientMetadata(ctx echo.Context) models.ClientMetadata {
	return models.ClientMetadata{
		UserAgent: ctx.Request().UserAgent(),
		IPAddress: ctx.RealIP(),
	}
}
