package console

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
)

const ViewInvoices = "invoices"

const (
	MsgInvoicesLoadFailed = "Failed to fetch invoices"
	MsgNoInvoices         = "No invoices found."
)

// InvoiceFilter is the filter state of the invoices dashboard. Both fields are
// forwarded to the remote API, which does the filtering.
type InvoiceFilter struct {
	FinancialYear string `json:"fy"     form:"fy"     query:"fy"`
	Search        string `json:"search" form:"search" query:"search"`
}

// InvoiceRow is an invoice formatted for display.
type InvoiceRow struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	FinancialYear string `json:"financial_year"`
}

// NewInvoiceRow formats r. Dates render as YYYY-MM-DD in loc; amounts keep two
// decimal places.
func NewInvoiceRow(r domain.InvoiceRecord, loc *time.Location) InvoiceRow {
	if loc == nil {
		loc = time.UTC
	}
	date := ""
	if !r.InvoiceDate.IsZero() {
		date = r.InvoiceDate.In(loc).Format(time.DateOnly)
	}
	return InvoiceRow{
		ID:            r.ID,
		Number:        r.InvoiceNumber,
		Date:          date,
		Amount:        r.InvoiceAmount.StringFixed(2),
		FinancialYear: r.FinancialYear,
	}
}

// InvoicesSnapshot is everything the invoices dashboard renders. When Empty is
// set the table shows the single EmptyText row instead of Rows.
type InvoicesSnapshot struct {
	View       string        `json:"view"`
	Raw        InvoiceFilter `json:"raw"`
	Filter     InvoiceFilter `json:"filter"`
	Rows       []InvoiceRow  `json:"rows"`
	Loading    bool          `json:"loading"`
	Empty      bool          `json:"empty"`
	EmptyText  string        `json:"empty_text,omitempty"`
	Generation uint64        `json:"generation"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// InvoicesView backs the read-only invoices dashboard of one session.
type InvoicesView struct {
	api   ports.InvoiceAPI
	token string
	loc   *time.Location

	list   *ListController[InvoiceFilter, domain.InvoiceRecord]
	filter *Debouncer[InvoiceFilter]
}

// NewInvoicesView wires the view for the session token. loc is the zone dates
// are displayed in.
func NewInvoicesView(api ports.InvoiceAPI, token string, loc *time.Location, quiet time.Duration, notifier *Notifier, clock Clock, log zerolog.Logger) *InvoicesView {
	if loc == nil {
		loc = time.UTC
	}
	v := &InvoicesView{api: api, token: token, loc: loc}
	v.list = NewListController(ViewInvoices, v.fetch, MsgInvoicesLoadFailed, notifier, clock, log)
	v.filter = NewDebouncer(clock, quiet, InvoiceFilter{}, func(f InvoiceFilter) {
		metrics.DebounceSettledTotal.WithLabelValues(ViewInvoices).Inc()
		v.list.Apply(f)
	})
	return v
}

func (v *InvoicesView) fetch(ctx context.Context, f InvoiceFilter) ([]domain.InvoiceRecord, error) {
	return v.api.ListInvoices(ctx, v.token, domain.InvoiceQuery{
		FinancialYear: f.FinancialYear,
		Search:        f.Search,
	})
}

func (v *InvoicesView) Start() <-chan struct{} {
	return v.list.Invalidate()
}

// SetFilter records raw filter input; the fetch follows once it settles.
func (v *InvoicesView) SetFilter(raw InvoiceFilter) {
	v.filter.Set(raw)
}

// ApplyNow applies f without waiting for the quiet period.
func (v *InvoicesView) ApplyNow(f InvoiceFilter) <-chan struct{} {
	v.filter.SetNow(f)
	return v.list.Apply(f)
}

func (v *InvoicesView) Refresh() <-chan struct{} {
	return v.list.Invalidate()
}

func (v *InvoicesView) Changes() (<-chan struct{}, func()) {
	return v.list.Changes()
}

// Snapshot returns the current render state.
func (v *InvoicesView) Snapshot() InvoicesSnapshot {
	st := v.list.State()
	rows := make([]InvoiceRow, 0, len(st.Rows))
	for _, r := range st.Rows {
		rows = append(rows, NewInvoiceRow(r, v.loc))
	}
	snap := InvoicesSnapshot{
		View:       ViewInvoices,
		Raw:        v.filter.Raw(),
		Filter:     st.Filter,
		Rows:       rows,
		Loading:    st.Loading,
		Generation: st.Generation,
		UpdatedAt:  st.UpdatedAt,
	}
	if !st.Loading && len(rows) == 0 {
		snap.Empty = true
		snap.EmptyText = MsgNoInvoices
	}
	return snap
}

func (v *InvoicesView) Close() {
	v.filter.Stop()
	v.list.Close()
}
