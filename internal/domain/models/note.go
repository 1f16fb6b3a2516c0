// internal/domain/models/note.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnknownAuthor is shown when a note's author record no longer exists.
const UnknownAuthor = "Unknown"

// Note is a user-authored text record tagged with a course and topic.
//
// Invariants kept by the notes store:
//   - Upvotes == len(UpvotedBy)
//   - Author never appears in UpvotedBy
//   - Author is set once at creation and never rewritten
type Note struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title     string               `bson:"title" json:"title"`
	Content   string               `bson:"content" json:"content"`
	Course    string               `bson:"course" json:"course"`
	Topic     string               `bson:"topic,omitempty" json:"topic,omitempty"`
	Author    primitive.ObjectID   `bson:"author" json:"-"`
	Upvotes   int                  `bson:"upvotes" json:"upvotes"`
	UpvotedBy []primitive.ObjectID `bson:"upvoted_by" json:"upvotedBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// AuthorRef is the minimal author projection attached to notes on read.
type AuthorRef struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
}

// NoteView is a Note enriched with its author projection. It is built at
// read time only and never persisted.
type NoteView struct {
	Note
	Author AuthorRef `json:"author"`
}
