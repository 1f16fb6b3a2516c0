// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	"github.com/dalemusser/noteshare/internal/app/features/shared"
	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/app/system/auditlog"
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/dalemusser/noteshare/internal/app/system/authutil"
	"github.com/dalemusser/noteshare/internal/app/system/inputval"
	"github.com/dalemusser/noteshare/internal/app/system/ratelimit"
	"github.com/dalemusser/noteshare/internal/app/system/timeouts"
	"github.com/dalemusser/noteshare/internal/domain/models"
	"go.uber.org/zap"
)

// Revoker records a logged-out token id until it would have expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type Handler struct {
	Users    *userstore.Store
	Creds    auth.Credentials
	Revoker  Revoker
	Cookie   auth.CookieConfig
	Limiter  *ratelimit.Limiter // nil disables login rate limiting
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	creds auth.Credentials,
	revoker Revoker,
	cookie auth.CookieConfig,
	limiter *ratelimit.Limiter,
	errLog *errorsfeature.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:    users,
		Creds:    creds,
		Revoker:  revoker,
		Cookie:   cookie,
		Limiter:  limiter,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=30,username" label:"Username"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// issue signs a credential for u and sets the cookie.
func (h *Handler) issue(w http.ResponseWriter, u models.User) error {
	token, _, err := h.Creds.Issue(u.ID)
	if err != nil {
		return err
	}
	auth.SetCookie(w, h.Cookie, token)
	return nil
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if res := inputval.Validate(req); res.HasErrors() {
		errorsfeature.WriteMessage(w, http.StatusBadRequest, res.First())
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		errorsfeature.WriteMessage(w, http.StatusBadRequest, authutil.PasswordRules())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, userstore.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "register user", err)
		return
	}

	if err := h.issue(w, u); err != nil {
		h.ErrLog.LogServerError(w, r, "issue credential", err)
		return
	}
	h.AuditLog.UserRegistered(ctx, r, u.ID, u.Username)
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))

	errorsfeature.WriteJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		errorsfeature.WriteMessage(w, http.StatusBadRequest, "Please provide email and password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, email, req.Password)
	switch {
	case errors.Is(err, userstore.ErrUnknownEmail):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
	case errors.Is(err, userstore.ErrWrongPassword):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, email)
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "authenticate", err)
		return
	}

	if err := h.issue(w, u); err != nil {
		h.ErrLog.LogServerError(w, r, "issue credential", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Reset(ratelimit.ClientIP(r))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	errorsfeature.WriteJSON(w, http.StatusOK, u)
}

// LoginRateLimited answers a login rejected by the limiter.
func (h *Handler) LoginRateLimited(w http.ResponseWriter, r *http.Request) {
	h.AuditLog.LoginFailedRateLimit(r.Context(), r)
	errorsfeature.WriteMessage(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when
// the revocation write fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u, ok := shared.MustUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Revoker != nil && u.TokenID != "" {
		if err := h.Revoker.Revoke(ctx, u.TokenID, u.TokenExpires); err != nil {
			h.Log.Warn("logout: revoke token", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		}
	}
	auth.ClearCookie(w, h.Cookie)
	h.AuditLog.Logout(ctx, r, u.ID)

	errorsfeature.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /api/auth/me and /api/users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	su, ok := shared.MustUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "load current user", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, u)
}
