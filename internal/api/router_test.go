package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/handler"
	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubRemote struct{}

func (stubRemote) ListUsers(context.Context, string) ([]domain.UserRecord, error) {
	return []domain.UserRecord{{ID: "u1", Username: "alice", Email: "alice@x.io", Role: domain.RoleAdmin}}, nil
}

func (stubRemote) CreateUser(context.Context, string, domain.NewUser) (*domain.UserRecord, error) {
	return nil, nil
}

func (stubRemote) UpdateUserRole(context.Context, string, string, domain.Role) (*domain.UserRecord, error) {
	return nil, nil
}

func (stubRemote) DeleteUser(context.Context, string, string) error { return nil }

func (stubRemote) ListInvoices(context.Context, string, domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
	return nil, nil
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, ports.LoginInput) (*ports.LoginOutcome, error) {
	return nil, &domain.LoginError{Message: "Login failed"}
}

func (stubAuth) Logout(context.Context, *domain.Session) error { return nil }

const cookieName = "console_session"

func newTestRouter(t *testing.T) (*echo.Echo, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore(0)
	reg := console.NewRegistry(stubRemote{}, stubRemote{}, nil, console.Options{Quiet: 10 * time.Millisecond}, zerolog.Nop())
	t.Cleanup(reg.Shutdown)

	e, err := NewRouter(Deps{
		Auth:            stubAuth{},
		Sessions:        store,
		Workspaces:      reg,
		Cookie:          handler.CookieConfig{Name: cookieName},
		DefaultTimezone: "UTC",
		RenderWait:      time.Second,
		Metrics:         prometheus.NewRegistry(),
		Log:             zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return e, store
}

func serve(e *echo.Echo, method, target, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Gates
// ---------------------------------------------------------------------------

func TestRouter_PagesRedirectWithoutSession(t *testing.T) {
	e, _ := newTestRouter(t)

	for _, path := range []string{"/users", "/invoices", "/users/u1/delete"} {
		rec := serve(e, http.MethodGet, path, "")
		if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/" {
			t.Fatalf("%s: expected 303 to /, got %d %q", path, rec.Code, rec.Header().Get(echo.HeaderLocation))
		}
	}
}

func TestRouter_APIRejectsWithoutSession(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/api/views/users", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
}

func TestRouter_DeletedSessionIsLockedOut(t *testing.T) {
	e, store := newTestRouter(t)
	sess := &domain.Session{ID: "s1", Token: "tok", Email: "a@x.io", Role: "ADMIN", Timezone: "UTC"}
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	if rec := serve(e, http.MethodGet, "/users", "s1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", rec.Code)
	}
	if err := store.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec := serve(e, http.MethodGet, "/users", "s1"); rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after deletion, got %d", rec.Code)
	}
}

func TestRouter_UnknownViewIs404(t *testing.T) {
	e, store := newTestRouter(t)
	_ = store.Save(context.Background(), &domain.Session{ID: "s1", Token: "tok", Timezone: "UTC"})

	rec := serve(e, http.MethodGet, "/api/views/orders", "s1")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "unknown view") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Public routes
// ---------------------------------------------------------------------------

func TestRouter_PublicRoutes(t *testing.T) {
	e, _ := newTestRouter(t)

	cases := map[string]int{
		"/":                  http.StatusOK,
		"/health":            http.StatusOK,
		"/health/ready":      http.StatusOK,
		"/static/console.js": http.StatusOK,
		"/metrics":           http.StatusOK,
	}
	for path, want := range cases {
		if rec := serve(e, http.MethodGet, path, ""); rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}
