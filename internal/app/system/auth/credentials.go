package auth

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidCredential covers malformed, tampered and expired tokens.
var ErrInvalidCredential = errors.New("auth: invalid or expired credential")

// Claims is what a verified credential asserts.
type Claims struct {
	UserID    primitive.ObjectID
	TokenID   string
	ExpiresAt time.Time
}

// Credentials issues and verifies signed, expiring tokens bound to a user id.
type Credentials interface {
	Issue(userID primitive.ObjectID) (string, Claims, error)
	Verify(token string) (Claims, error)
}
