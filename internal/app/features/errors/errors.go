// internal/app/features/errors/errors.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"runtime/debug"
	"strings"

	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ServerErrorMessage is the 500 body message in production.
const ServerErrorMessage = "Something went wrong on the server"

// Body is the JSON shape of every non-2xx response. Error and Stack are
// populated only outside production.
type Body struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Message: msg})
}

// ErrorLogger maps domain errors to responses and logs unexpected ones.
type ErrorLogger struct {
	Log        *zap.Logger
	Production bool
}

// NewErrorLogger constructs an ErrorLogger. Outside production the 500
// body carries the error text and a stack trace.
func NewErrorLogger(logger *zap.Logger, production bool) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger, Production: production}
}

// Classify returns the status and client message for a known domain
// error. ok is false for anything that should be a 500.
func Classify(err error) (status int, msg string, ok bool) {
	var ve *notestore.ValidationError
	switch {
	case stderrors.As(err, &ve):
		return http.StatusBadRequest, strings.Join(ve.Messages, " "), true
	case stderrors.Is(err, notestore.ErrInvalidID):
		return http.StatusBadRequest, "Invalid ID format", true
	case stderrors.Is(err, notestore.ErrNotFound):
		return http.StatusNotFound, "Note not found", true
	case stderrors.Is(err, notestore.ErrForbidden):
		return http.StatusForbidden, "Not authorized to modify this note", true
	case stderrors.Is(err, notestore.ErrSelfVote):
		return http.StatusBadRequest, "You cannot upvote your own note", true
	case stderrors.Is(err, notestore.ErrAlreadyVoted):
		return http.StatusBadRequest, "You have already upvoted this note", true
	case stderrors.Is(err, userstore.ErrAlreadyFavorited):
		return http.StatusBadRequest, "Note already in favorites", true
	case stderrors.Is(err, userstore.ErrDuplicateUser):
		return http.StatusBadRequest, "User with this email or username already exists", true
	case stderrors.Is(err, userstore.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", true
	case stderrors.Is(err, userstore.ErrNotFound):
		return http.StatusNotFound, "User not found", true
	}
	return 0, "", false
}

// Respond writes the mapped response for err. Unknown errors are logged
// under op and answered with 500.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status, msg, ok := Classify(err); ok {
		WriteMessage(w, status, msg)
		return
	}
	if stderrors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// client went away; nothing useful to write
		e.Log.Debug(op+": request canceled", zap.String("path", r.URL.Path))
		return
	}
	e.LogServerError(w, r, op, err)
}

// LogServerError logs err with request context and writes a 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID.Hex()))
	}
	e.Log.Error(op, fields...)

	body := Body{Message: ServerErrorMessage}
	if !e.Production {
		body.Message = err.Error()
		body.Error = err.Error()
		body.Stack = string(debug.Stack())
	}
	WriteJSON(w, http.StatusInternalServerError, body)
}

// Unauthorized writes the 401 used by protected routes.
func Unauthorized(w http.ResponseWriter) {
	WriteMessage(w, http.StatusUnauthorized, auth.NotAuthorizedMessage)
}
