// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	"github.com/dalemusser/noteshare/internal/app/features/shared"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves /api/users.
type Handler struct {
	Users  *userstore.Store
	Notes  *notestore.Store
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, notes *notestore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Notes: notes, ErrLog: errLog, Log: logger}
}

// Me handles GET /api/users/me.
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

// MyNotes handles GET /api/users/me/notes.
func (h *Handler) MyNotes(w http.ResponseWriter, r *http.Request) {
	su, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notes.ListByAuthor(ctx, su.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "list own notes", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, list)
}

// Profile handles GET /api/users/{username}. Email and credentials are never exposed.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		h.ErrLog.Respond(w, r, "load profile", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, u.Public())
}

// UserNotes handles GET /api/users/{username}/notes.
func (h *Handler) UserNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		h.ErrLog.Respond(w, r, "load profile", err)
		return
	}
	list, err := h.Notes.ListByAuthor(ctx, u.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "list user notes", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, list)
}
