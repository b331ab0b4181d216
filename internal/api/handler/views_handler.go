package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

type ViewsHandler struct {
	workspaces Workspaces
}

func NewViewsHandler(workspaces Workspaces) *ViewsHandler {
	return &ViewsHandler{workspaces: workspaces}
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// Snapshot returns the render state of a dashboard.
//
// @Summary      View snapshot
// @Tags         views
// @Produce      json
// @Param        view  path      string  true  "users or invoices"
// @Success      200   {object}  console.UsersSnapshot
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/views/{view} [get]
func (h *ViewsHandler) Snapshot(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	snap, err := ws.Snapshot(c.Param("view"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// Filter feeds a raw filter value into a dashboard. The value is debounced;
// the fetch happens once input pauses.
//
// @Summary      Update view filter
// @Tags         views
// @Accept       json
// @Param        view  path  string  true  "users or invoices"
// @Success      202
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/views/{view}/filter [post]
func (h *ViewsHandler) Filter(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	switch c.Param("view") {
	case console.ViewUsers:
		var f console.UserFilter
		if err := c.Bind(&f); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		ws.Users.SetFilter(f)
	case console.ViewInvoices:
		var f console.InvoiceFilter
		if err := c.Bind(&f); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		ws.Invoices.SetFilter(f)
	default:
		return domain.ErrUnknownView
	}
	return c.NoContent(http.StatusAccepted)
}

// Notifications drains the pending notifications of the session.
//
// @Summary      Drain notifications
// @Tags         views
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Router       /api/notifications [get]
func (h *ViewsHandler) Notifications(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: ws.Notifier.Drain()})
}
