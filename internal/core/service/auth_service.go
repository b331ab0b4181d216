package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
)

const (
	MsgLoginSuccess  = "Login successful! Redirecting..."
	MsgLoginFailed   = "Login failed"
	MsgLoginRequired = "Email and password are required"

	defaultRedirectTo = "/users"
)

// AuthOptions tune AuthService.
type AuthOptions struct {
	DefaultTimezone string
	RedirectTo      string
	RedirectDelay   time.Duration
}

// AuthService signs staff in against the remote API and keeps the resulting
// credential in the session store.
type AuthService struct {
	api        ports.AuthAPI
	store      ports.SessionStore
	workspaces ports.WorkspaceCloser
	auditor    ports.Auditor
	opts       AuthOptions
	log        zerolog.Logger

	now   func() time.Time
	newID func() string
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(api ports.AuthAPI, store ports.SessionStore, workspaces ports.WorkspaceCloser, auditor ports.Auditor, opts AuthOptions, log zerolog.Logger) *AuthService {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	if opts.RedirectTo == "" {
		opts.RedirectTo = defaultRedirectTo
	}
	if _, err := time.LoadLocation(opts.DefaultTimezone); err != nil || opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	return &AuthService{
		api:        api,
		store:      store,
		workspaces: workspaces,
		auditor:    auditor,
		opts:       opts,
		log:        log.With().Str("component", "auth").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Login exchanges the credentials for a remote token and persists a new
// session. Every failure is a *domain.LoginError whose Message is fit for
// display; nothing is persisted then.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginOutcome, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, &domain.LoginError{Message: MsgLoginRequired, Err: domain.ErrInvalidInput}
	}

	tz := s.timezone(in.Timezone)
	res, err := s.api.Login(ctx, domain.Credentials{Email: email, Password: in.Password, Timezone: tz})
	if err != nil {
		msg := domain.RemoteMessage(err)
		if msg == "" {
			msg = MsgLoginFailed
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Info().Err(err).Str("email", email).Msg("login rejected")
		s.audit(email, "login", domain.OutcomeFailure, msg)
		return nil, &domain.LoginError{Message: msg, Err: err}
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        s.newID(),
		Token:     res.Token,
		Role:      res.Role,
		Email:     email,
		Timezone:  tz,
		CreatedAt: now,
	}
	applyClaims(sess, res.Token)

	if err := s.store.Save(ctx, sess); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Error().Err(err).Msg("persist session")
		return nil, &domain.LoginError{Message: MsgLoginFailed, Err: fmt.Errorf("save session: %w", err)}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit(email, "login", domain.OutcomeSuccess, sess.Role)
	s.log.Info().Str("email", email).Str("role", sess.Role).Msg("login succeeded")

	return &ports.LoginOutcome{
		Session:       sess,
		Notice:        domain.Notification{Kind: domain.NotifySuccess, Message: MsgLoginSuccess, At: now},
		RedirectTo:    s.opts.RedirectTo,
		RedirectAfter: s.opts.RedirectDelay,
	}, nil
}

// Logout deletes the session credential and tears down its workspace.
func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return nil
	}
	if s.workspaces != nil {
		s.workspaces.Close(sess.ID)
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.audit(sess.Email, "logout", domain.OutcomeSuccess, "")
	return nil
}

// timezone returns tz when it names a known IANA zone and the configured
// default otherwise.
func (s *AuthService) timezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return s.opts.DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return s.opts.DefaultTimezone
	}
	return tz
}

func (s *AuthService) audit(actor, action, outcome, detail string) {
	s.auditor.Record(domain.AuditEvent{
		At:      s.now().UTC(),
		Actor:   actor,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
	})
}

// applyClaims copies display-only facts out of a JWT token without verifying
// it. The console cannot verify the remote API's signature and never enforces
// expiry; opaque tokens are left alone.
func applyClaims(sess *domain.Session, token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time.UTC()
	}
	if sess.Role == "" {
		if role, ok := claims["role"].(string); ok {
			sess.Role = role
		}
	}
}
