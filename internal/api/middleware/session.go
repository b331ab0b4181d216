package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
)

const sessionKey = "session"

// GateMode selects how SessionGate answers a request without a session.
type GateMode int

const (
	// Redirect sends browsers to the login page with 303 See Other.
	Redirect GateMode = iota
	// Reject answers 401 with the JSON error envelope.
	Reject
)

// GateConfig configures SessionGate.
type GateConfig struct {
	Store     ports.SessionStore
	Cookie    string
	Mode      GateMode
	LoginPath string
	Log       zerolog.Logger
}

// SessionGate admits a request only when its session cookie names a session
// present in the store. The store is consulted on every request, so a deleted
// session is locked out immediately. The resolved session is available to
// handlers through SessionFrom.
func SessionGate(cfg GateConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cfg.Cookie)
			if err != nil || cookie.Value == "" {
				return deny(c, cfg)
			}

			sess, err := cfg.Store.Get(c.Request().Context(), cookie.Value)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return deny(c, cfg)
			}
			if err != nil {
				cfg.Log.Error().Err(err).Msg("session lookup failed")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
			}
			if sess.Token == "" {
				return deny(c, cfg)
			}

			WithSession(c, sess)
			return next(c)
		}
	}
}

func deny(c echo.Context, cfg GateConfig) error {
	if cfg.Mode == Redirect {
		return c.Redirect(http.StatusSeeOther, cfg.LoginPath)
	}
	return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
}

// SessionFrom returns the session resolved by SessionGate.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	sess, ok := c.Get(sessionKey).(*domain.Session)
	return sess, ok && sess != nil
}

// WithSession stores sess on c the way SessionGate does.
func WithSession(c echo.Context, sess *domain.Session) {
	c.Set(sessionKey, sess)
}
