package ports

import (
	"context"
	"time"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// LoginInput is the login form submission.
type LoginInput struct {
	Email    string `json:"email"    form:"email"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Timezone string `json:"timezone" form:"timezone"`
}

// LoginOutcome tells the transport layer what to show after a successful login.
type LoginOutcome struct {
	Session       *domain.Session
	Notice        domain.Notification
	RedirectTo    string
	RedirectAfter time.Duration
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginOutcome, error)
	Logout(ctx context.Context, session *domain.Session) error
}
