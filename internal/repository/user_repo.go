// Package repository stores user records in MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/verte-zerg/speedtype/internal/model"
)

const usersCollection = "users"

// UserRepo is a MongoDB-backed user store.
type UserRepo struct {
	collection *mongo.Collection
}

// NewUserRepo returns a repo on the users collection of db.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{collection: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes on userId and email.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	for _, key := range []string{"userId", "email"} {
		_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", key, err)
		}
	}
	log.Println("user indexes ensured")
	return nil
}

// FindByUserID returns the user or nil when absent.
func (r *UserRepo) FindByUserID(ctx context.Context, userID string) (*model.UserRecord, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

// FindByEmail returns a user owning email other than excludeUserID, or nil.
func (r *UserRepo) FindByEmail(ctx context.Context, email, excludeUserID string) (*model.UserRecord, error) {
	return r.findOne(ctx, bson.M{"email": email, "userId": bson.M{"$ne": excludeUserID}})
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *model.UserRecord) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, user)
	return wrapDuplicate(err)
}

// Update replaces the email and top score of an existing user.
func (r *UserRepo) Update(ctx context.Context, user *model.UserRecord) error {
	user.UpdatedAt = time.Now().UTC()
	set := bson.M{"email": user.Email, "updatedAt": user.UpdatedAt}
	update := bson.M{"$set": set}
	if user.TopScore != nil {
		set["topScore"] = user.TopScore
	} else {
		update["$unset"] = bson.M{"topScore": ""}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": user.UserID}, update)
	if err != nil {
		return wrapDuplicate(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %q not found", user.UserID)
	}
	return nil
}

// List returns all users in natural order.
func (r *UserRepo) List(ctx context.Context) ([]model.UserRecord, error) {
	return r.find(ctx, bson.M{}, options.Find())
}

// Top returns up to limit users with a top score, highest first.
func (r *UserRepo) Top(ctx context.Context, limit int) ([]model.UserRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "topScore.score", Value: -1}, {Key: "userId", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"topScore": bson.M{"$exists": true}}, opts)
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*model.UserRecord, error) {
	var user model.UserRecord
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.UserRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cursor.Close(ctx); cerr != nil {
			_ = cerr
		}
	}()

	users := []model.UserRecord{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

var dupIndexPattern = regexp.MustCompile(`index: (\w+?)_-?1`)

// wrapDuplicate converts E11000 errors into DuplicateKeyError, naming the
// field of the violated index.
func wrapDuplicate(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return &model.DuplicateKeyError{Field: duplicateField(err), Err: err}
}

func duplicateField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if m := dupIndexPattern.FindStringSubmatch(e.Message); m != nil {
				return m[1]
			}
		}
	}
	if m := dupIndexPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}
