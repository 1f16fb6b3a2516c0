// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users. The /me routes are registered before
// /{username} so "me" is never treated as a username.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.Me)
		r.Get("/notes", h.MyNotes)
		r.Get("/favorites", h.Favorites)
		r.Post("/favorites/{noteId}", h.AddFavorite)
		r.Delete("/favorites/{noteId}", h.RemoveFavorite)
	})

	r.Get("/{username}", h.Profile)
	r.Get("/{username}/notes", h.UserNotes)
	return r
}
