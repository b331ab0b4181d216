package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/middleware"
	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/web"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubRemote struct {
	mu sync.Mutex

	users    []domain.UserRecord
	invoices []domain.InvoiceRecord
	listErr  error

	createFn func(domain.NewUser) (*domain.UserRecord, error)
	roleFn   func(id string, role domain.Role) error
	deleteFn func(id string) error

	deleted  []string
	invQuery []domain.InvoiceQuery
}

func (s *stubRemote) ListUsers(context.Context, string) ([]domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.UserRecord(nil), s.users...), nil
}

func (s *stubRemote) CreateUser(_ context.Context, _ string, u domain.NewUser) (*domain.UserRecord, error) {
	if s.createFn == nil {
		return &domain.UserRecord{ID: "new", Username: u.Username}, nil
	}
	return s.createFn(u)
}

func (s *stubRemote) UpdateUserRole(_ context.Context, _ string, id string, role domain.Role) (*domain.UserRecord, error) {
	if s.roleFn != nil {
		if err := s.roleFn(id, role); err != nil {
			return nil, err
		}
	}
	return &domain.UserRecord{ID: id, Role: role}, nil
}

func (s *stubRemote) DeleteUser(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, id)
	s.mu.Unlock()
	if s.deleteFn != nil {
		return s.deleteFn(id)
	}
	return nil
}

func (s *stubRemote) ListInvoices(_ context.Context, _ string, q domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invQuery = append(s.invQuery, q)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.InvoiceRecord(nil), s.invoices...), nil
}

func (s *stubRemote) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const testRenderWait = 2 * time.Second

var testSession = &domain.Session{ID: "s1", Token: "tok", Email: "admin@x.io", Role: "ADMIN", Timezone: "UTC"}

func seedUsers() []domain.UserRecord {
	return []domain.UserRecord{
		{ID: "u1", Username: "alice", Email: "alice@x.io", Role: domain.RoleAdmin, UniqueID: "EMP-1"},
		{ID: "u2", Username: "bob", Email: "bob@x.io", Role: domain.RoleUser, UniqueID: "EMP-2"},
	}
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	e.Validator = NewValidator()
	return e
}

func newTestRegistry(t *testing.T, remote *stubRemote) *console.Registry {
	t.Helper()
	reg := console.NewRegistry(remote, remote, nil, console.Options{Quiet: 10 * time.Millisecond}, zerolog.Nop())
	t.Cleanup(reg.Shutdown)
	return reg
}

func openWorkspace(t *testing.T, reg *console.Registry) *console.Workspace {
	t.Helper()
	ws, err := reg.Open(testSession)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	return ws
}

// gated builds a context as the session gate would leave it.
func gated(e *echo.Echo, method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.WithSession(c, testSession)
	return c, rec
}
