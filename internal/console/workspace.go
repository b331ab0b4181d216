package console

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
)

// Workspace is the view state of one signed-in session.
type Workspace struct {
	SessionID string
	Location  *time.Location
	Users     *UsersView
	Invoices  *InvoicesView
	Notifier  *Notifier

	closeOnce sync.Once
}

// Snapshot returns the render state of the named view.
func (w *Workspace) Snapshot(view string) (any, error) {
	switch view {
	case ViewUsers:
		return w.Users.Snapshot(), nil
	case ViewInvoices:
		return w.Invoices.Snapshot(), nil
	}
	return nil, domain.ErrUnknownView
}

// Changes subscribes to state changes of the named view.
func (w *Workspace) Changes(view string) (<-chan struct{}, func(), error) {
	switch view {
	case ViewUsers:
		ch, cancel := w.Users.Changes()
		return ch, cancel, nil
	case ViewInvoices:
		ch, cancel := w.Invoices.Changes()
		return ch, cancel, nil
	}
	return nil, nil, domain.ErrUnknownView
}

func (w *Workspace) close() {
	w.closeOnce.Do(func() {
		w.Users.Close()
		w.Invoices.Close()
		w.Notifier.close()
	})
}

// Options tune the workspaces a Registry builds.
type Options struct {
	Quiet             time.Duration
	Idle              time.Duration
	Clock             Clock
	NotificationLimit int
}

// revokedRetention bounds how long Close remembers a signed-out session.
// Requests that passed the session gate before sign-out finish well within it.
const revokedRetention = 10 * time.Minute

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry owns the workspaces of all live sessions.
type Registry struct {
	users    ports.UserAPI
	invoices ports.InvoiceAPI
	auditor  ports.Auditor
	opts     Options
	log      zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	revoked map[string]time.Time
}

// NewRegistry builds an empty registry.
func NewRegistry(users ports.UserAPI, invoices ports.InvoiceAPI, auditor ports.Auditor, opts Options, log zerolog.Logger) *Registry {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	return &Registry{
		users:    users,
		invoices: invoices,
		auditor:  auditor,
		opts:     opts,
		log:      log.With().Str("component", "workspaces").Logger(),
		entries:  make(map[string]*entry),
		revoked:  make(map[string]time.Time),
	}
}

// Open returns the workspace of s, building it on first use. A new workspace
// starts the initial fetch of both views. A session whose workspace was closed
// by sign-out gets domain.ErrSessionNotFound and no workspace.
func (r *Registry) Open(s *domain.Session) (*Workspace, error) {
	now := r.opts.Clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[s.ID]; ok {
		e.lastSeen = now
		return e.ws, nil
	}
	if _, ok := r.revoked[s.ID]; ok {
		r.log.Debug().Str("session_id", s.ID).Msg("open refused for signed-out session")
		return nil, domain.ErrSessionNotFound
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || s.Timezone == "" {
		loc = time.UTC
	}

	log := r.log.With().Str("session_id", s.ID).Logger()
	notifier := NewNotifier(r.opts.Clock, r.opts.NotificationLimit, log)
	ws := &Workspace{
		SessionID: s.ID,
		Location:  loc,
		Notifier:  notifier,
		Users:     NewUsersView(r.users, s.Token, s.Email, r.opts.Quiet, notifier, r.auditor, r.opts.Clock, log),
		Invoices:  NewInvoicesView(r.invoices, s.Token, loc, r.opts.Quiet, notifier, r.opts.Clock, log),
	}
	ws.Users.Start()
	ws.Invoices.Start()

	r.entries[s.ID] = &entry{ws: ws, lastSeen: now}
	metrics.ActiveWorkspaces.Inc()
	log.Debug().Msg("workspace opened")
	return ws, nil
}

// Lookup returns the workspace of sessionID without building one.
func (r *Registry) Lookup(sessionID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.opts.Clock.Now()
	return e.ws, true
}

// Close tears down the workspace of sessionID, if any, and refuses to build
// a new one for it. It is called on sign-out.
func (r *Registry) Close(sessionID string) {
	now := r.opts.Clock.Now()

	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if ok {
		delete(r.entries, sessionID)
	}
	r.revoked[sessionID] = now
	r.pruneRevoked(now)
	r.mu.Unlock()

	if !ok {
		return
	}
	metrics.ActiveWorkspaces.Dec()
	e.ws.close()
	r.log.Debug().Str("session_id", sessionID).Msg("workspace closed")
}

// pruneRevoked forgets sign-outs older than revokedRetention. r.mu must be
// held.
func (r *Registry) pruneRevoked(now time.Time) {
	cutoff := now.Add(-revokedRetention)
	for id, at := range r.revoked {
		if at.Before(cutoff) {
			delete(r.revoked, id)
		}
	}
}

// Len reports the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reap closes every workspace not used since before now minus the idle
// timeout and returns how many it closed.
func (r *Registry) Reap(now time.Time) int {
	if r.opts.Idle <= 0 {
		return 0
	}
	cutoff := now.Add(-r.opts.Idle)

	r.mu.Lock()
	r.pruneRevoked(now)
	var idle []*entry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range idle {
		metrics.ActiveWorkspaces.Dec()
		e.ws.close()
	}
	if len(idle) > 0 {
		r.log.Info().Int("count", len(idle)).Msg("reaped idle workspaces")
	}
	return len(idle)
}

// Run reaps idle workspaces until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.opts.Idle <= 0 {
		<-ctx.Done()
		return
	}
	interval := r.opts.Idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap(r.opts.Clock.Now())
		}
	}
}

// Shutdown closes every workspace.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		metrics.ActiveWorkspaces.Dec()
		e.ws.close()
	}
}
