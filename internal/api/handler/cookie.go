package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieConfig describes the session cookie. The cookie only carries the
// session id; the credential stays in the session store.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (cc CookieConfig) set(c echo.Context, sessionID string) {
	cookie := &http.Cookie{
		Name:     cc.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cc.TTL > 0 {
		cookie.MaxAge = int(cc.TTL / time.Second)
		cookie.Expires = time.Now().Add(cc.TTL)
	}
	c.SetCookie(cookie)
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
