package repository

import (
	"context"
	"errors"

	"ideacentral/backend/internal/database"
	"ideacentral/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// UserRepository handles the users collection. Every lookup and write is keyed
// on the normalized email, never on the store's _id.
type UserRepository struct {
	coll database.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(store database.Store) *UserRepository {
	return &UserRepository{coll: store.Collection(database.UsersCollection)}
}

// FindByEmail returns nil, nil when no user has the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}, &user)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertLogin inserts candidate with fresh counters if its email is unknown and
// otherwise returns the stored record untouched. created reports which happened.
func (r *UserRepository) UpsertLogin(ctx context.Context, candidate models.User) (*models.User, bool, error) {
	email := models.NormalizeEmail(candidate.Email)
	onInsert := bson.M{
		"name":            candidate.Name,
		"is_reviewer":     candidate.IsReviewer,
		"admin":           candidate.Admin,
		"review_count":    0,
		"review_ideas":    []string{},
		"submitted_ideas": []string{},
		"beans":           0,
	}
	if candidate.PasswordHash != "" {
		onInsert["password"] = candidate.PasswordHash
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$setOnInsert": onInsert}, true)
	if err != nil {
		return nil, false, err
	}

	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, database.ErrNotFound
	}
	return user, res.Upserted, nil
}

// List returns every user in natural order.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{}, database.FindOptions{})
}

// ListReviewers returns every user flagged as a reviewer. An empty result is not an error here.
func (r *UserRepository) ListReviewers(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{"is_reviewer": true}, database.FindOptions{})
}

// RecordReviewAssignment adds ideaID to the reviewer's review set and bumps
// review_count in one atomic update. The increment happens even when the id
// was already in the set. matched is false when no such user exists.
func (r *UserRepository) RecordReviewAssignment(ctx context.Context, reviewerEmail, ideaID string) (bool, error) {
	update := bson.M{
		"$inc":      bson.M{"review_count": 1},
		"$addToSet": bson.M{"review_ideas": ideaID},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": models.NormalizeEmail(reviewerEmail)}, update, false)
	if err != nil {
		return false, err
	}
	return res.Matched > 0, nil
}

// RecordSubmission appends ideaID to the submitter's history and credits beans.
// The user is created if it vanished since it was validated.
func (r *UserRepository) RecordSubmission(ctx context.Context, email, name, ideaID string, beans int) error {
	update := bson.M{
		"$push": bson.M{"submitted_ideas": ideaID},
		"$inc":  bson.M{"beans": beans},
		"$setOnInsert": bson.M{
			"name":         name,
			"is_reviewer":  false,
			"admin":        false,
			"review_count": 0,
			"review_ideas": []string{},
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": models.NormalizeEmail(email)}, update, true)
	return err
}

// ListTopByBeans ranks users by beans, highest first. Ties keep the store's natural order.
func (r *UserRepository) ListTopByBeans(ctx context.Context, limit int) ([]models.TopSubmitter, error) {
	var top []models.TopSubmitter
	opts := database.FindOptions{Sort: bson.D{{Key: "beans", Value: -1}}, Limit: int64(limit)}
	if err := r.coll.Find(ctx, bson.M{}, &top, opts); err != nil {
		return nil, err
	}
	if top == nil {
		top = make([]models.TopSubmitter, 0)
	}
	return top, nil
}

// UpdateProfile sets the given profile fields. matched is false when the user does not exist.
func (r *UserRepository) UpdateProfile(ctx context.Context, email string, patch models.UserPatch) (bool, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		user, err := r.FindByEmail(ctx, email)
		return user != nil, err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": models.NormalizeEmail(email)}, bson.M{"$set": fields}, false)
	if err != nil {
		return false, err
	}
	return res.Matched > 0, nil
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts database.FindOptions) ([]models.User, error) {
	var users []models.User
	if err := r.coll.Find(ctx, filter, &users, opts); err != nil {
		return nil, err
	}
	if users == nil {
		users = make([]models.User, 0)
	}
	return users, nil
}
