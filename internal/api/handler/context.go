package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ledgerdesk/admin-console/internal/api/middleware"
	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// Workspaces hands out the per-session view state.
type Workspaces interface {
	Open(s *domain.Session) (*console.Workspace, error)
}

// ctxSession extracts the session resolved by the session gate and fails fast
// when the gate did not run; a route registered outside a gated group is a
// wiring bug, not a user error.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return sess, nil
}

// ctxWorkspace resolves the session and its workspace.
func ctxWorkspace(c echo.Context, ws Workspaces) (*domain.Session, *console.Workspace, error) {
	sess, err := ctxSession(c)
	if err != nil {
		return nil, nil, err
	}
	w, err := ws.Open(sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, w, nil
}
