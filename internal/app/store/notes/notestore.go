// Package notestore is the note repository: CRUD, listing, the upvote
// state machine and favorites resolution.
package notestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/app/system/inputval"
	"github.com/dalemusser/noteshare/internal/app/system/normalize"
	"github.com/dalemusser/noteshare/internal/app/system/paging"
	"github.com/dalemusser/noteshare/internal/app/system/txn"
	"github.com/dalemusser/noteshare/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	db    *mongo.Database
	c     *mongo.Collection
	users *userstore.Store
	log   *zap.Logger
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:    db,
		c:     db.Collection("notes"),
		users: userstore.New(db),
		log:   zap.NewNop(),
	}
}

// WithLogger returns s logging transaction fallbacks to log.
func (s *Store) WithLogger(log *zap.Logger) *Store {
	cp := *s
	if log != nil {
		cp.log = log
	}
	return &cp
}

// ParseID parses a hex note id, mapping failures to ErrInvalidID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := inputval.ParseObjectID(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// Input holds the author-editable fields of a note.
type Input struct {
	Title   string `json:"title" validate:"notblank,max=200" label:"Title"`
	Content string `json:"content" validate:"notblank,max=100000" label:"Content"`
	Course  string `json:"course" validate:"notblank,max=100" label:"Course"`
	Topic   string `json:"topic" validate:"max=100" label:"Topic"`
}

func (in Input) clean() (Input, error) {
	out := Input{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Course:  normalize.Course(in.Course),
		Topic:   normalize.Name(in.Topic),
	}
	if err := validationError(inputval.Validate(out)); err != nil {
		return Input{}, err
	}
	return out, nil
}

// Create stores a new note by authorID with no votes.
func (s *Store) Create(ctx context.Context, in Input, authorID primitive.ObjectID) (models.NoteView, error) {
	in, err := in.clean()
	if err != nil {
		return models.NoteView{}, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	n := models.Note{
		ID:        primitive.NewObjectID(),
		Title:     in.Title,
		Content:   in.Content,
		Course:    in.Course,
		Topic:     in.Topic,
		Author:    authorID,
		Upvotes:   0,
		UpvotedBy: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.NoteView{}, err
	}
	return s.enrichOne(ctx, n)
}

// GetByID returns one enriched note.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteView, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return models.NoteView{}, err
	}
	return s.enrichOne(ctx, n)
}

// Exists reports whether a note with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) get(ctx context.Context, id primitive.ObjectID) (models.Note, error) {
	var n models.Note
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Note{}, ErrNotFound
		}
		return models.Note{}, err
	}
	return n, nil
}

// Update replaces the editable fields when requesterID is the author.
// Author, votes and createdAt are never touched.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input, requesterID primitive.ObjectID) (models.NoteView, error) {
	in, err := in.clean()
	if err != nil {
		return models.NoteView{}, err
	}

	update := bson.M{"$set": bson.M{
		"title":      in.Title,
		"content":    in.Content,
		"course":     in.Course,
		"topic":      in.Topic,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	if in.Topic == "" {
		delete(update["$set"].(bson.M), "topic")
		update["$unset"] = bson.M{"topic": ""}
	}

	var n models.Note
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "author": requesterID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NoteView{}, s.missingOrForbidden(ctx, id)
	}
	if err != nil {
		return models.NoteView{}, err
	}
	return s.enrichOne(ctx, n)
}

func (s *Store) missingOrForbidden(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return ErrForbidden
}

// Delete removes the note and pulls it from every user's favorites. Both
// writes share a transaction when the deployment supports one.
func (s *Store) Delete(ctx context.Context, id, requesterID primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		n, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		if n.Author != requesterID {
			return ErrForbidden
		}
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		if _, err := s.users.PullFavoriteEverywhere(ctx, id); err != nil {
			return fmt.Errorf("prune favorites: %w", err)
		}
		return nil
	})
}

// Upvote records one vote by voterID. The membership and self-vote guards
// live in the update filter, so the counter only moves when the voter is
// actually added.
func (s *Store) Upvote(ctx context.Context, id, voterID primitive.ObjectID) (models.NoteView, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		var n models.Note
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{
				"_id":        id,
				"author":     bson.M{"$ne": voterID},
				"upvoted_by": bson.M{"$ne": voterID},
			},
			bson.M{
				"$addToSet": bson.M{"upvoted_by": voterID},
				"$inc":      bson.M{"upvotes": 1},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&n)
		if err == nil {
			return s.enrichOne(ctx, n)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.NoteView{}, err
		}
		if why := s.whyNoVote(ctx, id, voterID); why != nil {
			return models.NoteView{}, why
		}
		// filter missed but the note now looks votable; state changed underneath us
	}
	return models.NoteView{}, fmt.Errorf("upvote %s: note changed concurrently", id.Hex())
}

func (s *Store) whyNoVote(ctx context.Context, id, voterID primitive.ObjectID) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if n.Author == voterID {
		return ErrSelfVote
	}
	for _, v := range n.UpvotedBy {
		if v == voterID {
			return ErrAlreadyVoted
		}
	}
	return nil
}

// Courses returns the distinct course values in use, sorted.
func (s *Store) Courses(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "course", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if c, ok := v.(string); ok && c != "" {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

/* -------------------------------------------------------------------------- */
/* listing                                                                    */
/* -------------------------------------------------------------------------- */

// Sort selects list ordering.
type Sort string

const (
	SortRecent Sort = "recent"
	SortOldest Sort = "oldest"
	SortRating Sort = "rating"
)

// ParseSort maps a query value to a Sort; unknown values mean SortRecent.
func ParseSort(v string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(v))) {
	case SortOldest:
		return SortOldest
	case SortRating:
		return SortRating
	default:
		return SortRecent
	}
}

func (o Sort) bson() bson.D {
	switch o {
	case SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortRating:
		return bson.D{{Key: "upvotes", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// Filter narrows List. Empty fields are ignored.
type Filter struct {
	Course string
	Search string
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if c := normalize.Course(f.Course); c != "" {
		q["course"] = c
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"content": rx},
		}
	}
	return q
}

// Page is one page of enriched notes with totals.
type Page struct {
	Notes      []models.NoteView `json:"notes"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalNotes int64             `json:"totalNotes"`
	TotalPages int               `json:"totalPages"`
}

// List returns page p of the notes matching f in order o.
func (s *Store) List(ctx context.Context, f Filter, o Sort, p paging.Params) (Page, error) {
	q := f.query()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return Page{}, err
	}

	notes, err := s.find(ctx, q, p.Apply(options.Find().SetSort(o.bson())))
	if err != nil {
		return Page{}, err
	}
	views, err := s.enrich(ctx, notes)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Notes:      views,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalNotes: total,
		TotalPages: paging.TotalPages(total, p.PageSize),
	}, nil
}

// ListByAuthor returns every note by authorID, newest first.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.NoteView, error) {
	notes, err := s.find(ctx, bson.M{"author": authorID}, options.Find().SetSort(SortRecent.bson()))
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, notes)
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Note, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	notes := []models.Note{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

/* -------------------------------------------------------------------------- */
/* favorites                                                                  */
/* -------------------------------------------------------------------------- */

// AddFavorite adds an existing note to userID's favorites.
func (s *Store) AddFavorite(ctx context.Context, userID, noteID primitive.ObjectID) error {
	ok, err := s.Exists(ctx, noteID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return s.users.AddFavorite(ctx, userID, noteID)
}

// RemoveFavorite drops noteID from userID's favorites; absent entries are ignored.
func (s *Store) RemoveFavorite(ctx context.Context, userID, noteID primitive.ObjectID) error {
	return s.users.RemoveFavorite(ctx, userID, noteID)
}

// ListFavorites resolves userID's favorites in the order they were added.
// Notes deleted since are skipped.
func (s *Store) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.NoteView, error) {
	ids, err := s.users.FavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.NoteView{}, nil
	}

	found, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Note, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}
	ordered := make([]models.Note, 0, len(found))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			ordered = append(ordered, n)
		}
	}
	return s.enrich(ctx, ordered)
}

/* -------------------------------------------------------------------------- */
/* author enrichment                                                          */
/* -------------------------------------------------------------------------- */

func (s *Store) enrichOne(ctx context.Context, n models.Note) (models.NoteView, error) {
	views, err := s.enrich(ctx, []models.Note{n})
	if err != nil {
		return models.NoteView{}, err
	}
	return views[0], nil
}

// enrich attaches {id, username} for every author with one users query.
// Authors that no longer exist are shown as models.UnknownAuthor.
func (s *Store) enrich(ctx context.Context, notes []models.Note) ([]models.NoteView, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(notes))
	ids := make([]primitive.ObjectID, 0, len(notes))
	for _, n := range notes {
		if _, ok := seen[n.Author]; !ok {
			seen[n.Author] = struct{}{}
			ids = append(ids, n.Author)
		}
	}
	names, err := s.users.Usernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}

	out := make([]models.NoteView, len(notes))
	for i, n := range notes {
		if n.UpvotedBy == nil {
			n.UpvotedBy = []primitive.ObjectID{}
		}
		name, ok := names[n.Author]
		if !ok {
			name = models.UnknownAuthor
		}
		out[i] = models.NoteView{Note: n, Author: models.AuthorRef{ID: n.Author, Username: name}}
	}
	return out, nil
}
