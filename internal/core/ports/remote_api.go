package ports

import (
	"context"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// AuthAPI is the remote authentication endpoint.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
}

// UserAPI is the remote user-management surface. Every call carries the
// session token of the acting console user.
type UserAPI interface {
	ListUsers(ctx context.Context, token string) ([]domain.UserRecord, error)
	CreateUser(ctx context.Context, token string, user domain.NewUser) (*domain.UserRecord, error)
	UpdateUserRole(ctx context.Context, token, id string, role domain.Role) (*domain.UserRecord, error)
	DeleteUser(ctx context.Context, token, id string) error
}

// InvoiceAPI is the remote, read-only invoice ledger.
type InvoiceAPI interface {
	ListInvoices(ctx context.Context, token string, q domain.InvoiceQuery) ([]domain.InvoiceRecord, error)
}
