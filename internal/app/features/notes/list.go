package notes

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	"github.com/dalemusser/noteshare/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noteshare/internal/app/system/paging"
	"github.com/dalemusser/noteshare/internal/app/system/timeouts"
	"github.com/dalemusser/noteshare/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// renderedNote carries an HTML rendering of the content alongside the
// stored text, for clients that display notes as markup.
type renderedNote struct {
	models.NoteView
	ContentHTML string `json:"contentHtml"`
}

// List handles GET /api/notes?course=&search=&sort=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := notestore.Filter{
		Course: query.Get(r, "course"),
		Search: query.Get(r, "search"),
	}
	sort := notestore.ParseSort(query.Get(r, "sort"))
	p := paging.Parse(r, h.DefaultPageSize, h.MaxPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Notes.List(ctx, filter, sort, p)
	if err != nil {
		h.ErrLog.Respond(w, r, "list notes", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, page)
}

// Courses handles GET /api/notes/courses and /api/courses.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	courses, err := h.Notes.Courses(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "list courses", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, courses)
}

// Get handles GET /api/notes/{id}. With ?format=html the response also
// carries contentHtml.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := notestore.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, "get note", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	note, err := h.Notes.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "get note", err)
		return
	}
	if query.Get(r, "format") == "html" {
		errorsfeature.WriteJSON(w, http.StatusOK, renderedNote{
			NoteView:    note,
			ContentHTML: htmlsanitize.TextToHTML(note.Content),
		})
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, note)
}
