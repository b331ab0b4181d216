package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
	"github.com/ledgerdesk/admin-console/internal/core/service"
)

type AuthHandler struct {
	auth            ports.AuthService
	cookie          CookieConfig
	defaultTimezone string
	log             zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, cookie CookieConfig, defaultTimezone string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:            auth,
		cookie:          cookie,
		defaultTimezone: defaultTimezone,
		log:             log.With().Str("component", "auth_handler").Logger(),
	}
}

type loginResponse struct {
	Role            string `json:"role"`
	Email           string `json:"email"`
	Message         string `json:"message"`
	Redirect        string `json:"redirect"`
	RedirectAfterMs int64  `json:"redirectAfterMs"`
}

// LoginPage renders the sign-in form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return render(c, http.StatusOK, "login", Page{
		View: loginView{Timezone: h.defaultTimezone},
	})
}

// LoginForm handles the sign-in form. Success renders the delayed redirect
// page; failure re-renders the form with the reason as a notification.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	var in ports.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	out, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		return render(c, loginStatus(err), "login", Page{
			Notifications: []domain.Notification{{Kind: domain.NotifyError, Message: loginMessage(err)}},
			View:          loginView{Email: in.Email, Timezone: in.Timezone},
		})
	}

	h.cookie.set(c, out.Session.ID)
	return render(c, http.StatusOK, "redirect", Page{
		Session:       out.Session,
		Notifications: []domain.Notification{out.Notice},
		View:          newRedirectView(out.RedirectTo, out.Notice.Message, out.RedirectAfter),
	})
}

// LoginJSON authenticates against the remote API and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.LoginInput  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) LoginJSON(c echo.Context) error {
	var in ports.LoginInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	out, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		return c.JSON(loginStatus(err), map[string]string{"error": loginMessage(err)})
	}

	h.cookie.set(c, out.Session.ID)
	return c.JSON(http.StatusOK, loginResponse{
		Role:            out.Session.Role,
		Email:           out.Session.Email,
		Message:         out.Notice.Message,
		Redirect:        out.RedirectTo,
		RedirectAfterMs: out.RedirectAfter.Milliseconds(),
	})
}

// Logout drops the session and returns to the sign-in page.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Request().Context(), sess); err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("logout")
	}
	h.cookie.clear(c)
	return seeOther(c, "/")
}

func loginMessage(err error) string {
	var lerr *domain.LoginError
	if errors.As(err, &lerr) && lerr.Message != "" {
		return lerr.Message
	}
	return service.MsgLoginFailed
}

func loginStatus(err error) int {
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusUnauthorized
}
