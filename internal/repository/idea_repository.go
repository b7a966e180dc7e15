package repository

import (
	"context"
	"errors"
	"time"

	"ideacentral/backend/internal/database"
	"ideacentral/backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdeaRepository handles the ideas collection, keyed by idea_id.
type IdeaRepository struct {
	coll database.Collection
}

// NewIdeaRepository creates a new idea repository
func NewIdeaRepository(store database.Store) *IdeaRepository {
	return &IdeaRepository{coll: store.Collection(database.IdeasCollection)}
}

// Create stores a copy of draft under a freshly generated idea_id. Any id the
// caller put on the draft is discarded. The idea is stored unclaimed.
func (r *IdeaRepository) Create(ctx context.Context, draft models.Idea) (*models.Idea, error) {
	return r.create(ctx, draft, nil)
}

// CreateClaimed is Create for an idea whose reviewer assignment the caller
// is about to run: it is inserted already claimed at claimedAt, so no other
// path can claim it in between.
func (r *IdeaRepository) CreateClaimed(ctx context.Context, draft models.Idea, claimedAt time.Time) (*models.Idea, error) {
	return r.create(ctx, draft, &claimedAt)
}

func (r *IdeaRepository) create(ctx context.Context, draft models.Idea, claimedAt *time.Time) (*models.Idea, error) {
	idea := draft
	idea.ID = primitive.NilObjectID
	idea.IdeaID = uuid.NewString()
	idea.Assigned = claimedAt != nil
	idea.AssignmentClaimedAt = claimedAt
	idea.Normalize()

	if err := r.coll.InsertOne(ctx, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// ClaimAssignment marks the idea as being assigned. It reports false when the
// idea does not exist or another caller holds the claim.
func (r *IdeaRepository) ClaimAssignment(ctx context.Context, ideaID string, at time.Time) (bool, error) {
	filter := bson.M{"idea_id": ideaID, "assigned": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{"assigned": true, "assignment_claimed_at": at}}
	res, err := r.coll.UpdateOne(ctx, filter, update, false)
	if err != nil {
		return false, err
	}
	return res.Matched > 0, nil
}

// ReleaseAssignment drops the claim taken at claimedAt. A claim that has since
// been replaced by a newer one is left alone and false is returned.
func (r *IdeaRepository) ReleaseAssignment(ctx context.Context, ideaID string, claimedAt time.Time) (bool, error) {
	filter := bson.M{"idea_id": ideaID, "assigned": true, "assignment_claimed_at": claimedAt}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"assigned": false}}, false)
	if err != nil {
		return false, err
	}
	return res.Matched > 0, nil
}

// FindByID returns nil, nil when the idea does not exist.
func (r *IdeaRepository) FindByID(ctx context.Context, ideaID string) (*models.Idea, error) {
	var idea models.Idea
	err := r.coll.FindOne(ctx, bson.M{"idea_id": ideaID}, &idea)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// FindManyByID returns the ideas that exist among ids, in the order they were
// asked for. Unknown ids are dropped and repeated ids collapse to one entry.
func (r *IdeaRepository) FindManyByID(ctx context.Context, ids []string) ([]models.Idea, error) {
	if len(ids) == 0 {
		return make([]models.Idea, 0), nil
	}
	found, err := r.find(ctx, bson.M{"idea_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Idea, len(found))
	for _, idea := range found {
		byID[idea.IdeaID] = idea
	}
	ordered := make([]models.Idea, 0, len(found))
	for _, id := range ids {
		if idea, ok := byID[id]; ok {
			ordered = append(ordered, idea)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// FindBySubmitter returns the ideas authored by email.
func (r *IdeaRepository) FindBySubmitter(ctx context.Context, email string) ([]models.Idea, error) {
	return r.find(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

// List returns every idea in natural order.
func (r *IdeaRepository) List(ctx context.Context) ([]models.Idea, error) {
	return r.find(ctx, bson.M{})
}

// UpdateFields merges fields into the idea. It reports false both when the idea
// does not exist and when the merge changed nothing.
func (r *IdeaRepository) UpdateFields(ctx context.Context, ideaID string, fields bson.M) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"idea_id": ideaID}, bson.M{"$set": fields}, false)
	if err != nil {
		return false, err
	}
	return res.Modified > 0, nil
}

func (r *IdeaRepository) find(ctx context.Context, filter bson.M) ([]models.Idea, error) {
	var ideas []models.Idea
	if err := r.coll.Find(ctx, filter, &ideas, database.FindOptions{}); err != nil {
		return nil, err
	}
	if ideas == nil {
		ideas = make([]models.Idea, 0)
	}
	return ideas, nil
}
