// Package restapi is the HTTP client of the remote ledger REST API. It
// implements the ports.AuthAPI, ports.UserAPI and ports.InvoiceAPI interfaces.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client calls the remote API rooted at baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient returns a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "restapi").Logger(),
	}
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type invoicesPayload struct {
	Invoices []domain.InvoiceRecord `json:"invoices"`
}

type rolePayload struct {
	Role domain.Role `json:"role"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", "", creds, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &domain.RemoteError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	return &out, nil
}

// ListUsers returns every application user.
func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.UserRecord, error) {
	var out []domain.UserRecord
	if err := c.do(ctx, "list_users", http.MethodGet, "/users", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.UserRecord{}
	}
	return out, nil
}

// CreateUser creates an application user. The remote API may answer with an
// empty body, in which case the returned record is nil.
func (c *Client) CreateUser(ctx context.Context, token string, user domain.NewUser) (*domain.UserRecord, error) {
	var out *domain.UserRecord
	if err := c.do(ctx, "create_user", http.MethodPost, "/users", token, user, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUserRole replaces the role of user id.
func (c *Client) UpdateUserRole(ctx context.Context, token, id string, role domain.Role) (*domain.UserRecord, error) {
	var out *domain.UserRecord
	path := "/users/" + url.PathEscape(id)
	if err := c.do(ctx, "update_user_role", http.MethodPut, path, token, rolePayload{Role: role}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes user id.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete_user", http.MethodDelete, "/users/"+url.PathEscape(id), token, nil, nil)
}

// ListInvoices returns the invoices matching q. A response without an
// invoices field is an empty ledger.
func (c *Client) ListInvoices(ctx context.Context, token string, q domain.InvoiceQuery) ([]domain.InvoiceRecord, error) {
	params := url.Values{}
	params.Set("fy", q.FinancialYear)
	params.Set("search", q.Search)

	var out invoicesPayload
	if err := c.do(ctx, "list_invoices", http.MethodGet, "/invoices?"+params.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	if out.Invoices == nil {
		return []domain.InvoiceRecord{}, nil
	}
	return out.Invoices, nil
}

// Ping reports whether the remote API answers HTTP at all. Any status counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote api unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path, token string, in, out any) error {
	start := time.Now()
	defer func() {
		metrics.RemoteRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("remote call failed")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "remote_error").Inc()
		rerr := decodeError(resp)
		c.log.Debug().Int("status", resp.StatusCode).Str("endpoint", endpoint).Str("message", rerr.Message).Msg("remote api error")
		return fmt.Errorf("%s: %w", endpoint, rerr)
	}

	metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}

func decodeError(resp *http.Response) *domain.RemoteError {
	rerr := &domain.RemoteError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return rerr
	}
	var p errorPayload
	if json.Unmarshal(raw, &p) == nil {
		switch {
		case p.Error != "":
			rerr.Message = p.Error
		case p.Message != "":
			rerr.Message = p.Message
		}
	}
	return rerr
}
