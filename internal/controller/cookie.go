package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// The refresh token only ever travels in this cookie: HttpOnly, scoped to
// the refresh path, never read from a body or header.
func (c *Controller) setRefreshCookie(ctx echo.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(c.now()).Seconds())
	if maxAge <= 0 {
		maxAge = int(c.cookies.MaxAge.Seconds())
	}
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookies.Name,
		Value:    token,
		Path:     c.cookies.Path,
		MaxAge:   maxAge,
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: c.cookies.SameSite,
	})
}

func (c *Controller) clearRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookies.Name,
		Value:    "",
		Path:     c.cookies.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: c.cookies.SameSite,
	})
}

func (c *Controller) refreshCookie(ctx echo.Context) string {
	cookie, err := ctx.Cookie(c.cookies.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
