package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch to complete")
	}
}

// gatedFetch returns a fetch whose calls block until release is called with
// the same filter.
type gatedFetch struct {
	gates map[string]chan result
	calls chan string
}

type result struct {
	rows []string
	err  error
}

func newGatedFetch(filters ...string) *gatedFetch {
	g := &gatedFetch{gates: make(map[string]chan result), calls: make(chan string, 16)}
	for _, f := range filters {
		g.gates[f] = make(chan result, 1)
	}
	return g
}

func (g *gatedFetch) fetch(ctx context.Context, filter string) ([]string, error) {
	g.calls <- filter
	select {
	case r := <-g.gates[filter]:
		return r.rows, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedFetch) release(filter string, rows []string, err error) {
	g.gates[filter] <- result{rows: rows, err: err}
}

func newTestList(fetch FetchFunc[string, string]) (*ListController[string, string], *Notifier) {
	n := NewNotifier(newFakeClock(), 0, zerolog.Nop())
	return NewListController("test", fetch, "Failed to load", n, newFakeClock(), zerolog.Nop()), n
}

func TestListController_AppliesLatestGenerationOnly(t *testing.T) {
	// Stale responses must be discarded even when they arrive last.
	g := newGatedFetch("slow", "fast")
	lc, _ := newTestList(func(_ context.Context, f string) ([]string, error) {
		g.calls <- f
		r := <-g.gates[f]
		return r.rows, r.err
	})

	first := lc.Apply("slow")
	<-g.calls
	second := lc.Apply("fast")
	<-g.calls

	g.release("fast", []string{"new"}, nil)
	wait(t, second)
	g.release("slow", []string{"old"}, nil)
	wait(t, first)

	st := lc.State()
	if len(st.Rows) != 1 || st.Rows[0] != "new" {
		t.Fatalf("expected rows [new], got %v", st.Rows)
	}
	if st.Filter != "fast" {
		t.Fatalf("filter = %q, want fast", st.Filter)
	}
	if st.Loading {
		t.Fatal("expected loading to be cleared")
	}
}

func TestListController_NewFetchCancelsPrevious(t *testing.T) {
	g := newGatedFetch("a", "b")
	lc, n := newTestList(g.fetch)

	first := lc.Apply("a")
	<-g.calls
	second := lc.Apply("b")
	<-g.calls

	wait(t, first)
	if !lc.State().Loading {
		t.Fatal("expected loading while the current fetch is outstanding")
	}
	g.release("b", []string{"b1"}, nil)
	wait(t, second)

	if got := n.Drain(); len(got) != 0 {
		t.Fatalf("cancelled fetch should not notify, got %+v", got)
	}
}

func TestListController_FailureKeepsRowsAndNotifies(t *testing.T) {
	g := newGatedFetch("ok", "bad")
	lc, n := newTestList(g.fetch)

	ch := lc.Apply("ok")
	<-g.calls
	g.release("ok", []string{"r1", "r2"}, nil)
	wait(t, ch)

	ch = lc.Apply("bad")
	<-g.calls
	g.release("bad", nil, errors.New("boom"))
	wait(t, ch)

	st := lc.State()
	if len(st.Rows) != 2 {
		t.Fatalf("expected previous rows to be kept, got %v", st.Rows)
	}
	if st.Loading {
		t.Fatal("expected loading to be cleared after failure")
	}
	notes := n.Drain()
	if len(notes) != 1 || notes[0].Message != "Failed to load" || notes[0].Kind != domain.NotifyError {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestListController_NilRowsBecomeEmpty(t *testing.T) {
	lc, _ := newTestList(func(context.Context, string) ([]string, error) { return nil, nil })

	wait(t, lc.Invalidate())

	st := lc.State()
	if st.Rows == nil || len(st.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", st.Rows)
	}
	if !st.Loaded {
		t.Fatal("expected loaded after success")
	}
}

func TestListController_SameFilterDoesNotRefetch(t *testing.T) {
	calls := 0
	lc, _ := newTestList(func(context.Context, string) ([]string, error) {
		calls++
		return []string{"x"}, nil
	})

	wait(t, lc.Apply("q"))
	wait(t, lc.Apply("q"))
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	wait(t, lc.Invalidate())
	if calls != 2 {
		t.Fatalf("invalidate should refetch, calls = %d", calls)
	}
}

func TestListController_CloseDropsLateCompletion(t *testing.T) {
	g := newGatedFetch("a")
	lc, n := newTestList(func(_ context.Context, f string) ([]string, error) {
		g.calls <- f
		r := <-g.gates[f]
		return r.rows, r.err
	})

	ch := lc.Apply("a")
	<-g.calls
	lc.Close()
	g.release("a", []string{"late"}, errors.New("late failure"))
	wait(t, ch)

	if st := lc.State(); len(st.Rows) != 0 {
		t.Fatalf("closed controller applied rows: %v", st.Rows)
	}
	if got := n.Drain(); len(got) != 0 {
		t.Fatalf("closed controller notified: %+v", got)
	}
	select {
	case <-lc.Apply("b"):
	default:
		t.Fatal("Apply after Close should return a closed channel")
	}
}

func TestListController_ChangesSignalsCompletion(t *testing.T) {
	lc, _ := newTestList(func(context.Context, string) ([]string, error) { return []string{"x"}, nil })

	changes, cancel := lc.Changes()
	defer cancel()
	<-changes // initial signal

	wait(t, lc.Invalidate())
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
}
