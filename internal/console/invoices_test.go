package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

type stubInvoiceAPI struct {
	mu      sync.Mutex
	listFn  func(domain.InvoiceQuery) ([]domain.InvoiceRecord, error)
	queries []domain.InvoiceQuery
}

func (s *stubInvoiceAPI) ListInvoices(_ context.Context, _ string, q domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.listFn != nil {
		return s.listFn(q)
	}
	return nil, nil
}

func (s *stubInvoiceAPI) seen() []domain.InvoiceQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.InvoiceQuery(nil), s.queries...)
}

func TestInvoicesView_EmptyRendersSingleRow(t *testing.T) {
	clock := newFakeClock()
	api := &stubInvoiceAPI{}
	n := NewNotifier(clock, 0, zerolog.Nop())
	v := NewInvoicesView(api, "tok", time.UTC, quiet, n, clock, zerolog.Nop())
	defer v.Close()

	wait(t, v.Start())

	snap := v.Snapshot()
	if !snap.Empty || snap.EmptyText != MsgNoInvoices {
		t.Fatalf("expected empty snapshot with %q, got %+v", MsgNoInvoices, snap)
	}
	if snap.Rows == nil || len(snap.Rows) != 0 {
		t.Fatalf("expected empty rows, got %#v", snap.Rows)
	}
}

func TestInvoicesView_FormatsRows(t *testing.T) {
	clock := newFakeClock()
	api := &stubInvoiceAPI{listFn: func(domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
		return []domain.InvoiceRecord{{
			ID:            "i1",
			InvoiceNumber: "INV-001",
			InvoiceDate:   domain.NewInvoiceDate(time.Date(2024, 3, 31, 22, 30, 0, 0, time.UTC)),
			InvoiceAmount: decimal.RequireFromString("1250.5"),
			FinancialYear: "2023-24",
		}}, nil
	}}
	loc := time.FixedZone("IST", 5*3600+1800)
	n := NewNotifier(clock, 0, zerolog.Nop())
	v := NewInvoicesView(api, "tok", loc, quiet, n, clock, zerolog.Nop())
	defer v.Close()

	wait(t, v.Start())

	snap := v.Snapshot()
	if snap.Empty || len(snap.Rows) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	row := snap.Rows[0]
	if row.Number != "INV-001" || row.Amount != "1250.50" || row.FinancialYear != "2023-24" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Date != "2024-04-01" {
		t.Fatalf("date = %q, want 2024-04-01 in the session zone", row.Date)
	}
}

func TestNewInvoiceRow_DateOnlyIsNotShifted(t *testing.T) {
	d, ok := domain.ParseInvoiceDate("2024-04-01")
	if !ok {
		t.Fatal("expected date-only value to parse")
	}
	west := time.FixedZone("PST", -8*3600)

	row := NewInvoiceRow(domain.InvoiceRecord{ID: "i1", InvoiceDate: d}, west)
	if row.Date != "2024-04-01" {
		t.Fatalf("date = %q, want 2024-04-01", row.Date)
	}

	row = NewInvoiceRow(domain.InvoiceRecord{ID: "i2"}, west)
	if row.Date != "" {
		t.Fatalf("missing date should render empty, got %q", row.Date)
	}
}

func TestInvoicesView_DebouncedFilterIsForwarded(t *testing.T) {
	clock := newFakeClock()
	api := &stubInvoiceAPI{}
	n := NewNotifier(clock, 0, zerolog.Nop())
	v := NewInvoicesView(api, "tok", nil, quiet, n, clock, zerolog.Nop())
	defer v.Close()
	wait(t, v.Start())

	v.SetFilter(InvoiceFilter{FinancialYear: "2023-24", Search: "INV"})
	clock.Advance(quiet)

	deadline := time.After(2 * time.Second)
	for len(api.seen()) < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for filtered fetch")
		case <-time.After(5 * time.Millisecond):
		}
	}
	q := api.seen()[1]
	if q.FinancialYear != "2023-24" || q.Search != "INV" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestInvoicesView_FailureNotifies(t *testing.T) {
	clock := newFakeClock()
	api := &stubInvoiceAPI{listFn: func(domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
		return nil, errors.New("down")
	}}
	n := NewNotifier(clock, 0, zerolog.Nop())
	v := NewInvoicesView(api, "tok", nil, quiet, n, clock, zerolog.Nop())
	defer v.Close()

	wait(t, v.Start())

	if got := messages(n.Drain()); len(got) != 1 || got[0] != MsgInvoicesLoadFailed {
		t.Fatalf("notifications = %v", got)
	}
}
