package errors_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorsfeature.Body {
	t.Helper()
	var b errorsfeature.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{notestore.ErrInvalidID, http.StatusBadRequest, "Invalid ID format"},
		{notestore.ErrNotFound, http.StatusNotFound, "Note not found"},
		{fmt.Errorf("wrapped: %w", notestore.ErrForbidden), http.StatusForbidden, "Not authorized to modify this note"},
		{notestore.ErrSelfVote, http.StatusBadRequest, "You cannot upvote your own note"},
		{notestore.ErrAlreadyVoted, http.StatusBadRequest, "You have already upvoted this note"},
		{userstore.ErrAlreadyFavorited, http.StatusBadRequest, "Note already in favorites"},
		{userstore.ErrDuplicateUser, http.StatusBadRequest, "User with this email or username already exists"},
		{userstore.ErrWrongPassword, http.StatusUnauthorized, "Invalid credentials"},
		{userstore.ErrUnknownEmail, http.StatusUnauthorized, "Invalid credentials"},
		{userstore.ErrNotFound, http.StatusNotFound, "User not found"},
		{&notestore.ValidationError{Messages: []string{"Title is required.", "Course is required."}},
			http.StatusBadRequest, "Title is required. Course is required."},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, msg, ok := errorsfeature.Classify(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}

	_, _, ok := errorsfeature.Classify(fmt.Errorf("mongo exploded"))
	assert.False(t, ok)
}

func TestRespond_Known(t *testing.T) {
	el := errorsfeature.NewErrorLogger(zap.NewNop(), true)
	rec := httptest.NewRecorder()
	el.Respond(rec, httptest.NewRequest("GET", "/api/notes/x", nil), "get note", notestore.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "Note not found", decode(t, rec).Message)
}

func TestLogServerError_Production(t *testing.T) {
	el := errorsfeature.NewErrorLogger(zap.NewNop(), true)
	rec := httptest.NewRecorder()
	el.Respond(rec, httptest.NewRequest("GET", "/api/notes", nil), "list notes", fmt.Errorf("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	b := decode(t, rec)
	assert.Equal(t, errorsfeature.ServerErrorMessage, b.Message)
	assert.Empty(t, b.Error)
	assert.Empty(t, b.Stack)
}

func TestLogServerError_Development(t *testing.T) {
	el := errorsfeature.NewErrorLogger(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	el.LogServerError(rec, httptest.NewRequest("GET", "/api/notes", nil), "list notes", fmt.Errorf("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	b := decode(t, rec)
	assert.Equal(t, "connection refused", b.Message)
	assert.Equal(t, "connection refused", b.Error)
	assert.NotEmpty(t, b.Stack)
}

func TestRecoverer(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	t.Run("production hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		errorsfeature.NewErrorLogger(zap.NewNop(), true).Recoverer(boom).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		b := decode(t, rec)
		assert.Equal(t, errorsfeature.ServerErrorMessage, b.Message)
		assert.Empty(t, b.Stack)
	})

	t.Run("development shows stack", func(t *testing.T) {
		rec := httptest.NewRecorder()
		errorsfeature.NewErrorLogger(zap.NewNop(), false).Recoverer(boom).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		b := decode(t, rec)
		assert.Equal(t, "boom", b.Message)
		assert.NotEmpty(t, b.Stack)
	})

	t.Run("passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		errorsfeature.NewErrorLogger(nil, true).Recoverer(ok).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestUnauthorizedAndNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	errorsfeature.Unauthorized(rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, please login", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	errorsfeature.NotFound(rec, httptest.NewRequest("GET", "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found: GET /api/nope", decode(t, rec).Message)
}
