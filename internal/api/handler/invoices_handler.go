package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerdesk/admin-console/internal/console"
)

type InvoicesHandler struct {
	workspaces Workspaces
	renderWait time.Duration
}

func NewInvoicesHandler(workspaces Workspaces, renderWait time.Duration) *InvoicesHandler {
	return &InvoicesHandler{workspaces: workspaces, renderWait: renderWait}
}

// Page renders the invoices dashboard. fy and search query parameters apply
// at once.
func (h *InvoicesHandler) Page(c echo.Context) error {
	sess, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}

	if hasAny(c, "fy", "search") {
		var f console.InvoiceFilter
		if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
		}
		awaitRender(c.Request().Context(), ws.Invoices.ApplyNow(f), h.renderWait)
	}

	settle(c.Request().Context(), ws, console.ViewInvoices, h.renderWait)
	return render(c, http.StatusOK, "invoices", Page{
		Nav:           console.ViewInvoices,
		ViewName:      console.ViewInvoices,
		Session:       sess,
		Notifications: ws.Notifier.Drain(),
		View:          ws.Invoices.Snapshot(),
	})
}
