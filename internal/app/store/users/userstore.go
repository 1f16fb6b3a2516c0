// Package userstore is the user directory: accounts, credential checks and
// each user's favorites set.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/noteshare/internal/app/system/authutil"
	"github.com/dalemusser/noteshare/internal/app/system/normalize"
	"github.com/dalemusser/noteshare/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user has the given id, email or username.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when the email or username is taken.
	ErrDuplicateUser = errors.New("a user with this email or username already exists")
	// ErrInvalidCredentials wraps both login failure reasons.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownEmail       = fmt.Errorf("%w: unknown email", ErrInvalidCredentials)
	ErrWrongPassword      = fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	// ErrAlreadyFavorited is returned by AddFavorite when the note is already in the set.
	ErrAlreadyFavorited = errors.New("note already in favorites")
)

type Store struct {
	c      *mongo.Collection
	hasher authutil.Hasher
}

// Option configures a Store.
type Option func(*Store)

// WithHasher sets the password hasher (bcrypt cost).
func WithHasher(h authutil.Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{c: db.Collection("users"), hasher: authutil.NewHasher(0)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewUser is the registration input. Password is plaintext and is hashed
// before anything is written.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// Create registers a user. Email is lower-cased; username is trimmed and
// must be unique case-insensitively.
func (s *Store) Create(ctx context.Context, in NewUser) (models.User, error) {
	u := models.User{
		ID:         primitive.NewObjectID(),
		Username:   normalize.Username(in.Username),
		UsernameCI: normalize.UsernameKey(in.Username),
		Email:      normalize.Email(in.Email),
		Favorites:  []primitive.ObjectID{},
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": u.Email},
		bson.M{"username_ci": u.UsernameCI},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return models.User{}, err
	}
	if n > 0 {
		return models.User{}, ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		// unique indexes catch concurrent registrations that passed the pre-check
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if u.Favorites == nil {
		u.Favorites = []primitive.ObjectID{}
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByUsername looks up a user by case-insensitive username.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username_ci": normalize.UsernameKey(username)})
}

// Authenticate returns the user whose email and password match.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrUnknownEmail
	}
	if err != nil {
		return models.User{}, err
	}
	if !s.hasher.Check(password, u.PasswordHash) {
		return models.User{}, ErrWrongPassword
	}
	return u, nil
}

// Usernames maps ids to usernames in one query. Ids with no user are absent.
func (s *Store) Usernames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "username": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			Username string             `bson:"username"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Username
	}
	return out, cur.Err()
}

// AddFavorite adds noteID to the user's favorites set. The caller checks
// that the note exists.
func (s *Store) AddFavorite(ctx context.Context, userID, noteID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"favorites": noteID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrAlreadyFavorited
	}
	return nil
}

// RemoveFavorite removes noteID from the set. Removing an absent entry is not an error.
func (s *Store) RemoveFavorite(ctx context.Context, userID, noteID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": noteID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FavoriteIDs returns the user's favorites in insertion order.
func (s *Store) FavoriteIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var row struct {
		Favorites []primitive.ObjectID `bson:"favorites"`
	}
	err := s.c.FindOne(ctx,
		bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"favorites": 1}),
	).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if row.Favorites == nil {
		return []primitive.ObjectID{}, nil
	}
	return row.Favorites, nil
}

// PullFavoriteEverywhere removes noteID from every user's favorites and
// returns how many users were modified.
func (s *Store) PullFavoriteEverywhere(ctx context.Context, noteID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"favorites": noteID},
		bson.M{"$pull": bson.M{"favorites": noteID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
