package users

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	"github.com/dalemusser/noteshare/internal/app/features/shared"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	"github.com/dalemusser/noteshare/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// Favorites handles GET /api/users/me/favorites.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	su, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notes.ListFavorites(ctx, su.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "list favorites", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, list)
}

// AddFavorite handles POST /api/users/me/favorites/{noteId}.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	su, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	noteID, err := notestore.ParseID(chi.URLParam(r, "noteId"))
	if err != nil {
		h.ErrLog.Respond(w, r, "add favorite", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notes.AddFavorite(ctx, su.ID, noteID); err != nil {
		h.ErrLog.Respond(w, r, "add favorite", err)
		return
	}
	errorsfeature.WriteMessage(w, http.StatusOK, "Note added to favorites")
}

// RemoveFavorite handles DELETE /api/users/me/favorites/{noteId}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	su, ok := shared.MustUser(w, r)
	if !ok {
		return
	}
	noteID, err := notestore.ParseID(chi.URLParam(r, "noteId"))
	if err != nil {
		h.ErrLog.Respond(w, r, "remove favorite", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notes.RemoveFavorite(ctx, su.ID, noteID); err != nil {
		h.ErrLog.Respond(w, r, "remove favorite", err)
		return
	}
	errorsfeature.WriteMessage(w, http.StatusOK, "Note removed from favorites")
}
