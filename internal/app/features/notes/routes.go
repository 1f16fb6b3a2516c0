// internal/app/features/notes/routes.go
package notes

import (
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/notes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/courses", h.Courses)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/upvote", h.Upvote)
	})
	return r
}
