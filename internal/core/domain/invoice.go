package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRecord is a read-only ledger entry served by the remote API.
type InvoiceRecord struct {
	ID            string          `json:"_id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   InvoiceDate     `json:"invoiceDate"`
	InvoiceAmount decimal.Decimal `json:"invoiceAmount"`
	FinancialYear string          `json:"financialYear"`
}

// InvoiceDate is the date of an invoice as the remote API sends it: a full
// timestamp or a bare calendar date. Values that parse as neither decode to
// the zero date rather than failing the whole listing.
type InvoiceDate struct {
	time.Time
	dateOnly bool
}

var invoiceTimeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}

// NewInvoiceDate wraps a timestamp.
func NewInvoiceDate(t time.Time) InvoiceDate { return InvoiceDate{Time: t} }

// ParseInvoiceDate accepts RFC3339 (with or without fractional seconds) and
// YYYY-MM-DD. ok is false when s matches none of them.
func ParseInvoiceDate(s string) (InvoiceDate, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range invoiceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return InvoiceDate{Time: t}, true
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return InvoiceDate{Time: t, dateOnly: true}, true
	}
	return InvoiceDate{}, false
}

// In returns the date in loc. A bare calendar date names the same day
// everywhere, so it is never shifted across midnight.
func (d InvoiceDate) In(loc *time.Location) time.Time {
	if d.dateOnly {
		y, m, day := d.Time.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, loc)
	}
	return d.Time.In(loc)
}

func (d *InvoiceDate) UnmarshalJSON(b []byte) error {
	*d = InvoiceDate{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseInvoiceDate(s); ok {
		*d = parsed
	}
	return nil
}

func (d InvoiceDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	if d.dateOnly {
		return json.Marshal(d.Time.Format(time.DateOnly))
	}
	return json.Marshal(d.Time.Format(time.RFC3339Nano))
}

// InvoiceQuery carries the query parameters of an invoice listing.
// Empty fields are sent as empty parameters; the remote API ignores them.
type InvoiceQuery struct {
	FinancialYear string
	Search        string
}
