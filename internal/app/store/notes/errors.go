package notestore

import (
	"errors"
	"strings"

	"github.com/dalemusser/noteshare/internal/app/system/inputval"
)

var (
	// ErrInvalidID is returned by ParseID for anything that is not a hex ObjectID.
	ErrInvalidID = errors.New("invalid note id")
	// ErrNotFound is returned when no note has the given id.
	ErrNotFound = errors.New("note not found")
	// ErrForbidden is returned when a non-author edits or deletes a note.
	ErrForbidden = errors.New("not authorized to modify this note")
	// ErrSelfVote is returned when an author upvotes their own note.
	ErrSelfVote = errors.New("you cannot upvote your own note")
	// ErrAlreadyVoted is returned on a second upvote by the same user.
	ErrAlreadyVoted = errors.New("you have already upvoted this note")
)

// ValidationError lists every rule a note payload broke.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, " ") }

func validationError(r *inputval.Result) error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, fe := range r.Errors {
		msgs[i] = fe.Message
	}
	return &ValidationError{Messages: msgs}
}
