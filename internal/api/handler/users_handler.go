package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// MsgUserNotFound is shown when an action names a user that is not displayed.
const MsgUserNotFound = "User not found"

type UsersHandler struct {
	workspaces Workspaces
	renderWait time.Duration
	log        zerolog.Logger
}

func NewUsersHandler(workspaces Workspaces, renderWait time.Duration, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{
		workspaces: workspaces,
		renderWait: renderWait,
		log:        log.With().Str("component", "users_handler").Logger(),
	}
}

// Page renders the users dashboard. role and search query parameters apply
// at once; modal=create opens the create dialog. A plain visit closes the
// role editor.
func (h *UsersHandler) Page(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	if hasAny(c, "role", "search") {
		var f console.UserFilter
		if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
		}
		awaitRender(c.Request().Context(), ws.Users.ApplyNow(f), h.renderWait)
	}

	if c.QueryParam("modal") == "create" {
		ws.Users.OpenCreate()
	} else {
		ws.Users.CloseCreate()
	}
	ws.Users.CloseRoleEditor()
	return h.render(c, http.StatusOK, ws)
}

// Create submits the create-user dialog.
func (h *UsersHandler) Create(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	var in domain.NewUser
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	done, err := ws.Users.CreateUser(c.Request().Context(), in)
	if err != nil {
		return h.render(c, statusFor(err), ws)
	}
	awaitRender(c.Request().Context(), done, h.renderWait)
	return seeOther(c, "/users")
}

// RoleForm opens the update-role dialog for a displayed user.
func (h *UsersHandler) RoleForm(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	if err := ws.Users.OpenRoleEditor(c.Param("id")); err != nil {
		ws.Notifier.Error(MsgUserNotFound)
		return seeOther(c, "/users")
	}
	return h.render(c, http.StatusOK, ws)
}

// SubmitRole sends the selected role for the user in the path.
func (h *UsersHandler) SubmitRole(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if snap := ws.Users.Snapshot(); snap.Editor == nil || snap.Editor.User.ID != id {
		if err := ws.Users.OpenRoleEditor(id); err != nil {
			ws.Notifier.Error(MsgUserNotFound)
			return seeOther(c, "/users")
		}
	}

	done, err := ws.Users.SubmitRole(c.Request().Context(), domain.Role(c.FormValue("role")))
	if err != nil {
		return h.render(c, statusFor(err), ws)
	}
	awaitRender(c.Request().Context(), done, h.renderWait)
	return seeOther(c, "/users")
}

// CancelRole dismisses the update-role dialog.
func (h *UsersHandler) CancelRole(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	ws.Users.CloseRoleEditor()
	return seeOther(c, "/users")
}

// DeleteConfirm asks the user to confirm a deletion.
func (h *UsersHandler) DeleteConfirm(c echo.Context) error {
	sess, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	u, err := ws.Users.Lookup(c.Param("id"))
	if err != nil {
		ws.Notifier.Error(MsgUserNotFound)
		return seeOther(c, "/users")
	}
	return render(c, http.StatusOK, "confirm_delete", Page{
		Nav:           console.ViewUsers,
		Session:       sess,
		Notifications: ws.Notifier.Drain(),
		View:          confirmView{User: u},
	})
}

// Delete deletes the user in the path when confirm=yes. Any other answer
// returns to the dashboard without a remote call.
func (h *UsersHandler) Delete(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	done, err := ws.Users.DeleteUser(c.Request().Context(), c.Param("id"), c.FormValue("confirm") == "yes")
	if err != nil {
		h.log.Debug().Err(err).Msg("delete user")
	}
	awaitRender(c.Request().Context(), done, h.renderWait)
	return seeOther(c, "/users")
}

func (h *UsersHandler) render(c echo.Context, status int, ws *console.Workspace) error {
	sess, _ := ctxSession(c)
	settle(c.Request().Context(), ws, console.ViewUsers, h.renderWait)
	return render(c, status, "users", Page{
		Nav:           console.ViewUsers,
		ViewName:      console.ViewUsers,
		Session:       sess,
		Notifications: ws.Notifier.Drain(),
		View:          ws.Users.Snapshot(),
	})
}

func hasAny(c echo.Context, names ...string) bool {
	q := c.QueryParams()
	for _, n := range names {
		if _, ok := q[n]; ok {
			return true
		}
	}
	return false
}

// statusFor picks the status of a page re-rendered after a failed form post.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrRoleRequired) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
