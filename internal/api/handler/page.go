package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// Page is the data every template receives.
type Page struct {
	Title         string
	Nav           string
	ViewName      string
	Session       *domain.Session
	Notifications []domain.Notification
	Roles         []domain.Role
	View          any
}

type loginView struct {
	Email    string
	Timezone string
}

type redirectView struct {
	Target       string
	Message      string
	DelayMillis  int64
	DelaySeconds int64
}

func newRedirectView(target, message string, after time.Duration) redirectView {
	secs := int64((after + time.Second - 1) / time.Second)
	return redirectView{
		Target:       target,
		Message:      message,
		DelayMillis:  after.Milliseconds(),
		DelaySeconds: secs,
	}
}

type confirmView struct {
	User domain.UserRecord
}

func render(c echo.Context, status int, name string, p Page) error {
	if p.Roles == nil {
		p.Roles = domain.Roles()
	}
	if p.Notifications == nil {
		p.Notifications = []domain.Notification{}
	}
	return c.Render(status, name, p)
}

// seeOther finishes a form post the Post/Redirect/Get way.
func seeOther(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// awaitRender waits for ch to close so the next page shows settled rows. It
// gives up after wait or when the request goes away.
func awaitRender(ctx context.Context, ch <-chan struct{}, wait time.Duration) bool {
	if wait <= 0 {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// settle waits until the named view has no fetch in flight, for at most wait.
func settle(ctx context.Context, ws *console.Workspace, view string, wait time.Duration) {
	if wait <= 0 || !loading(ws, view) {
		return
	}
	changes, cancel, err := ws.Changes(view)
	if err != nil {
		return
	}
	defer cancel()

	t := time.NewTimer(wait)
	defer t.Stop()
	for loading(ws, view) {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-t.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

func loading(ws *console.Workspace, view string) bool {
	switch view {
	case console.ViewUsers:
		return ws.Users.Snapshot().Loading
	case console.ViewInvoices:
		return ws.Invoices.Snapshot().Loading
	}
	return false
}
