package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/noteshare/internal/app/system/normalize"
	"github.com/dalemusser/noteshare/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "correct-horse-42"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     normalize.Username(username),
		UsernameCI:   normalize.UsernameKey(username),
		Email:        normalize.Email(email),
		PasswordHash: string(hash),
		Favorites:    []primitive.ObjectID{},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("CreateUser(%q) failed: %v", username, err)
	}
	return u
}

// NoteOpt customizes a fixture note.
type NoteOpt func(*models.Note)

// WithContent sets the note body.
func WithContent(c string) NoteOpt { return func(n *models.Note) { n.Content = c } }

// WithTopic sets the note topic.
func WithTopic(tp string) NoteOpt { return func(n *models.Note) { n.Topic = tp } }

// WithCreatedAt backdates the note.
func WithCreatedAt(ts time.Time) NoteOpt {
	return func(n *models.Note) { n.CreatedAt, n.UpdatedAt = ts, ts }
}

// WithUpvoters records voters and sets upvotes to match.
func WithUpvoters(ids ...primitive.ObjectID) NoteOpt {
	return func(n *models.Note) {
		n.UpvotedBy = append([]primitive.ObjectID{}, ids...)
		n.Upvotes = len(ids)
	}
}

// CreateNote inserts a note directly, bypassing store validation.
func (f *Fixtures) CreateNote(ctx context.Context, author primitive.ObjectID, title, course string, opts ...NoteOpt) models.Note {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	n := models.Note{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   "Content for " + title,
		Course:    course,
		Author:    author,
		UpvotedBy: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, o := range opts {
		o(&n)
	}
	if _, err := f.db.Collection("notes").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("CreateNote(%q) failed: %v", title, err)
	}
	return n
}

// AddFavorites sets the user's favorites array verbatim.
func (f *Fixtures) AddFavorites(ctx context.Context, userID primitive.ObjectID, noteIDs ...primitive.ObjectID) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"favorites": bson.M{"$each": noteIDs}}},
	)
	if err != nil {
		f.t.Fatalf("AddFavorites failed: %v", err)
	}
}
