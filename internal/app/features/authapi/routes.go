// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(h.Limiter.Middleware(h.LoginRateLimited))
		}
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
	return r
}
