// Package shared holds request helpers used by every JSON feature.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	"github.com/dalemusser/noteshare/internal/app/system/auth"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads the body into v. On failure it writes 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Invalid request body"
		var mbe *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body is empty"
		case errors.As(err, &mbe):
			msg = "Request body is too large"
		}
		errorsfeature.WriteMessage(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// MustUser returns the signed-in user or writes 401. Routes behind
// auth.RequireUser never hit the 401 branch.
func MustUser(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		errorsfeature.Unauthorized(w)
		return nil, false
	}
	return u, true
}
