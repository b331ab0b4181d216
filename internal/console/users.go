package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
)

const ViewUsers = "users"

// Notification texts of the users dashboard.
const (
	MsgUsersLoadFailed = "Failed to load users"
	MsgUserCreated     = "User created successfully"
	MsgUserCreateFail  = "Failed to create user"
	MsgUserDeleted     = "User deleted successfully"
	MsgUserDeleteFail  = "Failed to delete user"
	MsgRoleRequired    = "Please select a role"
	MsgRoleUpdated     = "User role updated successfully"
	MsgRoleUpdateFail  = "Failed to update role"
)

// UserFilter is the filter state of the users dashboard.
type UserFilter struct {
	Role   domain.Role `json:"role"   form:"role"   query:"role"`
	Search string      `json:"search" form:"search" query:"search"`
}

// FilterUsers keeps the users whose role equals f.Role exactly (when set) and
// whose username, email or uniqueId contains f.Search case-insensitively
// (when set). The result is never nil.
func FilterUsers(users []domain.UserRecord, f UserFilter) []domain.UserRecord {
	out := make([]domain.UserRecord, 0, len(users))
	for _, u := range users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !u.Matches(f.Search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// CreateForm is the state of the create-user dialog.
type CreateForm struct {
	Open   bool           `json:"open"`
	Values domain.NewUser `json:"values"`
}

// RoleEditor is the update-role dialog, bound to one user.
type RoleEditor struct {
	User    domain.UserRecord `json:"user"`
	NewRole domain.Role       `json:"new_role"`
}

// UsersSnapshot is everything the users dashboard renders.
type UsersSnapshot struct {
	View       string              `json:"view"`
	Raw        UserFilter          `json:"raw"`
	Filter     UserFilter          `json:"filter"`
	Rows       []domain.UserRecord `json:"rows"`
	Loading    bool                `json:"loading"`
	Empty      bool                `json:"empty"`
	Generation uint64              `json:"generation"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Create     CreateForm          `json:"create"`
	Editor     *RoleEditor         `json:"editor,omitempty"`
}

// UsersView backs the users dashboard of one session. The remote API offers no
// server-side filtering, so every fetch loads the whole collection and
// FilterUsers narrows it.
type UsersView struct {
	api      ports.UserAPI
	token    string
	actor    string
	notifier *Notifier
	auditor  ports.Auditor
	validate *validator.Validate
	clock    Clock
	log      zerolog.Logger

	list   *ListController[UserFilter, domain.UserRecord]
	filter *Debouncer[UserFilter]

	mu     sync.Mutex
	create CreateForm
	editor *RoleEditor
}

// NewUsersView wires the view for the session identified by token and actor.
// Call Start to issue the initial fetch.
func NewUsersView(api ports.UserAPI, token, actor string, quiet time.Duration, notifier *Notifier, auditor ports.Auditor, clock Clock, log zerolog.Logger) *UsersView {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	if clock == nil {
		clock = SystemClock
	}
	v := &UsersView{
		api:      api,
		token:    token,
		actor:    actor,
		notifier: notifier,
		auditor:  auditor,
		validate: validator.New(),
		clock:    clock,
		log:      log.With().Str("view", ViewUsers).Logger(),
	}
	v.list = NewListController(ViewUsers, v.fetch, MsgUsersLoadFailed, notifier, clock, log)
	v.filter = NewDebouncer(clock, quiet, UserFilter{}, func(f UserFilter) {
		metrics.DebounceSettledTotal.WithLabelValues(ViewUsers).Inc()
		v.list.Apply(f)
	})
	return v
}

func (v *UsersView) fetch(ctx context.Context, f UserFilter) ([]domain.UserRecord, error) {
	all, err := v.api.ListUsers(ctx, v.token)
	if err != nil {
		return nil, err
	}
	return FilterUsers(all, f), nil
}

// Start issues the initial fetch.
func (v *UsersView) Start() <-chan struct{} {
	return v.list.Invalidate()
}

// SetFilter records raw filter input; the fetch follows once it settles.
func (v *UsersView) SetFilter(raw UserFilter) {
	v.filter.Set(raw)
}

// ApplyNow applies f without waiting for the quiet period.
func (v *UsersView) ApplyNow(f UserFilter) <-chan struct{} {
	v.filter.SetNow(f)
	return v.list.Apply(f)
}

// Refresh refetches with the current filter.
func (v *UsersView) Refresh() <-chan struct{} {
	return v.list.Invalidate()
}

// Changes signals every change of the underlying list.
func (v *UsersView) Changes() (<-chan struct{}, func()) {
	return v.list.Changes()
}

// Snapshot returns the current render state.
func (v *UsersView) Snapshot() UsersSnapshot {
	st := v.list.State()
	raw := v.filter.Raw()

	v.mu.Lock()
	defer v.mu.Unlock()

	snap := UsersSnapshot{
		View:       ViewUsers,
		Raw:        raw,
		Filter:     st.Filter,
		Rows:       st.Rows,
		Loading:    st.Loading,
		Empty:      !st.Loading && len(st.Rows) == 0,
		Generation: st.Generation,
		UpdatedAt:  st.UpdatedAt,
		Create:     v.create,
	}
	snap.Create.Values.Password = ""
	if v.editor != nil {
		ed := *v.editor
		snap.Editor = &ed
	}
	return snap
}

// OpenCreate shows the create-user dialog.
func (v *UsersView) OpenCreate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.create.Open = true
}

// CloseCreate hides the create-user dialog and resets its fields.
func (v *UsersView) CloseCreate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.create = CreateForm{}
}

// CreateUser submits the create-user form. On success the dialog is closed and
// reset and the list refetches; the returned channel closes when that fetch
// completes.
func (v *UsersView) CreateUser(ctx context.Context, in domain.NewUser) (<-chan struct{}, error) {
	v.mu.Lock()
	v.create = CreateForm{Open: true, Values: in}
	v.mu.Unlock()

	if err := v.validate.Struct(in); err != nil {
		metrics.MutationsTotal.WithLabelValues("create", "rejected").Inc()
		v.notifier.Error(requiredMessage(err))
		return done(), fmt.Errorf("create user: %w: %v", domain.ErrInvalidInput, err)
	}

	created, err := v.api.CreateUser(ctx, v.token, in)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("create", "failure").Inc()
		v.log.Warn().Err(err).Str("username", in.Username).Msg("create user failed")
		v.notifier.Error(MsgUserCreateFail)
		v.audit("user.create", in.Email, domain.OutcomeFailure, err.Error())
		return done(), fmt.Errorf("create user: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues("create", "success").Inc()
	target := in.Email
	if created != nil && created.ID != "" {
		target = created.ID
	}
	v.audit("user.create", target, domain.OutcomeSuccess, string(in.Role))
	v.notifier.Success(MsgUserCreated)

	v.mu.Lock()
	v.create = CreateForm{}
	v.mu.Unlock()

	return v.list.Invalidate(), nil
}

// DeleteUser deletes the user with id once the user has confirmed. A declined
// confirmation makes no remote call and changes nothing.
func (v *UsersView) DeleteUser(ctx context.Context, id string, confirmed bool) (<-chan struct{}, error) {
	if !confirmed {
		metrics.MutationsTotal.WithLabelValues("delete", "declined").Inc()
		return done(), nil
	}

	if err := v.api.DeleteUser(ctx, v.token, id); err != nil {
		metrics.MutationsTotal.WithLabelValues("delete", "failure").Inc()
		v.log.Warn().Err(err).Str("user_id", id).Msg("delete user failed")
		v.notifier.Error(MsgUserDeleteFail)
		v.audit("user.delete", id, domain.OutcomeFailure, err.Error())
		return done(), fmt.Errorf("delete user %s: %w", id, err)
	}

	metrics.MutationsTotal.WithLabelValues("delete", "success").Inc()
	v.audit("user.delete", id, domain.OutcomeSuccess, "")
	v.notifier.Success(MsgUserDeleted)
	return v.list.Invalidate(), nil
}

// Lookup returns the displayed user with id.
func (v *UsersView) Lookup(id string) (domain.UserRecord, error) {
	for _, u := range v.list.State().Rows {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.UserRecord{}, domain.ErrUserNotFound
}

// OpenRoleEditor binds the update-role dialog to the displayed user with id,
// preselecting its current role.
func (v *UsersView) OpenRoleEditor(id string) error {
	u, err := v.Lookup(id)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.editor = &RoleEditor{User: u, NewRole: u.Role}
	return nil
}

// CloseRoleEditor dismisses the update-role dialog.
func (v *UsersView) CloseRoleEditor() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editor = nil
}

// SubmitRole sends role for the user bound to the open editor. An empty role
// is rejected before any remote call.
func (v *UsersView) SubmitRole(ctx context.Context, role domain.Role) (<-chan struct{}, error) {
	v.mu.Lock()
	if v.editor == nil {
		v.mu.Unlock()
		return done(), fmt.Errorf("update role: no user selected: %w", domain.ErrInvalidInput)
	}
	v.editor.NewRole = role
	user := v.editor.User
	v.mu.Unlock()

	if role == "" {
		metrics.MutationsTotal.WithLabelValues("update_role", "rejected").Inc()
		v.notifier.Error(MsgRoleRequired)
		return done(), domain.ErrRoleRequired
	}

	if _, err := v.api.UpdateUserRole(ctx, v.token, user.ID, role); err != nil {
		metrics.MutationsTotal.WithLabelValues("update_role", "failure").Inc()
		v.log.Warn().Err(err).Str("user_id", user.ID).Str("role", string(role)).Msg("update role failed")
		v.notifier.Error(MsgRoleUpdateFail)
		v.audit("user.update_role", user.ID, domain.OutcomeFailure, err.Error())
		return done(), fmt.Errorf("update role of %s: %w", user.ID, err)
	}

	metrics.MutationsTotal.WithLabelValues("update_role", "success").Inc()
	v.audit("user.update_role", user.ID, domain.OutcomeSuccess, string(user.Role)+" -> "+string(role))
	v.notifier.Success(MsgRoleUpdated)

	v.mu.Lock()
	if v.editor != nil && v.editor.User.ID == user.ID {
		v.editor = nil
	}
	v.mu.Unlock()

	return v.list.Invalidate(), nil
}

func (v *UsersView) audit(action, target, outcome, detail string) {
	v.auditor.Record(domain.AuditEvent{
		At:      v.clock.Now().UTC(),
		Actor:   v.actor,
		Action:  action,
		Target:  target,
		Outcome: outcome,
		Detail:  detail,
	})
}

// Close stops the debouncer and abandons the in-flight fetch.
func (v *UsersView) Close() {
	v.filter.Stop()
	v.list.Close()
}

// requiredMessage turns validator errors into "<field> is required" text.
func requiredMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fieldLabel(ve[0].Field()) + " is required"
	}
	return MsgUserCreateFail
}

func fieldLabel(field string) string {
	switch field {
	case "Username":
		return "username"
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "Role":
		return "role"
	}
	return field
}
