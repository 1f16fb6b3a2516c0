// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can author, upvote and favorite notes.
//
// NOTE:
//   - PasswordHash never leaves the users store in a response; it is tagged json:"-".
//   - Favorites is a set; writes go through $addToSet / $pull only.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	UsernameCI   string               `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Favorites    []primitive.ObjectID `bson:"favorites" json:"favorites"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// PublicProfile is the view of a user that anyone may see.
type PublicProfile struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Public strips email and credentials from u.
func (u User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
