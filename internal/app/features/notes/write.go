package notes

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	"github.com/dalemusser/noteshare/internal/app/features/shared"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	"github.com/dalemusser/noteshare/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Create handles POST /api/notes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	var in notestore.Input
	if !shared.DecodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	note, err := h.Notes.Create(ctx, in, u.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "create note", err)
		return
	}
	h.AuditLog.NoteCreated(ctx, r, u.ID, note.ID, note.Title)
	errorsfeature.WriteJSON(w, http.StatusCreated, note)
}

// Update handles PUT /api/notes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	id, err := notestore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "update note", err)
		return
	}
	var in notestore.Input
	if !shared.DecodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	note, err := h.Notes.Update(ctx, id, in, u.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "update note", err)
		return
	}
	h.AuditLog.NoteUpdated(ctx, r, u.ID, note.ID, note.Title)
	errorsfeature.WriteJSON(w, http.StatusOK, note)
}

// Delete handles DELETE /api/notes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	id, err := notestore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "delete note", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Notes.Delete(ctx, id, u.ID); err != nil {
		h.ErrLog.Respond(w, r, "delete note", err)
		return
	}
	h.AuditLog.NoteDeleted(ctx, r, u.ID, id)
	h.Log.Debug("note deleted", zap.String("note_id", id.Hex()), zap.String("user_id", u.ID.Hex()))
	errorsfeature.WriteMessage(w, http.StatusOK, "Note deleted successfully")
}

// Upvote handles POST /api/notes/{id}/upvote.
func (h *Handler) Upvote(w http.ResponseWriter, r *http.Request) {
	u, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	id, err := notestore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "upvote note", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	note, err := h.Notes.Upvote(ctx, id, u.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "upvote note", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, note)
}
