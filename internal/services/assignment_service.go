package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"
)

// DefaultBeansPerIdea is credited to a submitter for every accepted idea.
const DefaultBeansPerIdea = 100

// AssignmentService runs idea submission and reviewer assignment. It is the
// only code that writes review_ideas, review_count and submitted_ideas.
//
// The three writes of a submission (idea insert, reviewer update, submitter
// update) are separate round trips with no transaction around them. A failure
// part way leaves the earlier writes in place; Reconciler picks up ideas that
// ended up without a reviewer. Reviewer assignment runs only under a claim on
// the idea, so the two paths never assign the same idea twice.
type AssignmentService struct {
	users        *repository.UserRepository
	ideas        *repository.IdeaRepository
	leaderboard  LeaderboardCache
	beansPerIdea int
	pick         func(n int) int
}

// AssignmentOption is a functional option for AssignmentService
type AssignmentOption func(*AssignmentService)

// WithUserRepository sets the user repository
func WithUserRepository(repo *repository.UserRepository) AssignmentOption {
	return func(s *AssignmentService) {
		s.users = repo
	}
}

// WithIdeaRepository sets the idea repository
func WithIdeaRepository(repo *repository.IdeaRepository) AssignmentOption {
	return func(s *AssignmentService) {
		s.ideas = repo
	}
}

// WithBeansPerIdea overrides the reward credited per submission
func WithBeansPerIdea(beans int) AssignmentOption {
	return func(s *AssignmentService) {
		s.beansPerIdea = beans
	}
}

// WithLeaderboardCache sets the cache invalidated whenever beans change
func WithLeaderboardCache(cache LeaderboardCache) AssignmentOption {
	return func(s *AssignmentService) {
		s.leaderboard = cache
	}
}

// WithReviewerPicker replaces the uniform random choice. pick(n) must return an index in [0, n).
func WithReviewerPicker(pick func(n int) int) AssignmentOption {
	return func(s *AssignmentService) {
		s.pick = pick
	}
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(opts ...AssignmentOption) *AssignmentService {
	s := &AssignmentService{
		beansPerIdea: DefaultBeansPerIdea,
		pick:         rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitIdeaResult is what a submission produced. IdeaID is set as soon as the
// idea is stored, so it is present even when a later step fails.
type SubmitIdeaResult struct {
	IdeaID        string
	ReviewerName  string
	ReviewerEmail string
	BeansAdded    int
}

// SubmitIdea validates the submitter, stores the idea, assigns a random
// reviewer and credits the submitter. An unknown submitter stops it before
// anything is written.
func (s *AssignmentService) SubmitIdea(ctx context.Context, draft models.Idea) (*SubmitIdeaResult, error) {
	if s.users == nil || s.ideas == nil {
		return nil, errors.New("assignment service repositories not set")
	}

	submitter, err := s.users.FindByEmail(ctx, draft.Email)
	if err != nil {
		return nil, fmt.Errorf("look up submitter: %w", err)
	}
	if submitter == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmitterNotFound, models.NormalizeEmail(draft.Email))
	}

	claimedAt := claimTime()
	idea, err := s.ideas.CreateClaimed(ctx, draft, claimedAt)
	if err != nil {
		return nil, fmt.Errorf("store idea: %w", err)
	}
	result := &SubmitIdeaResult{IdeaID: idea.IdeaID}

	reviewer, err := s.assignClaimed(ctx, idea.IdeaID, claimedAt)
	if err != nil {
		log.Printf("[AssignmentService] Idea %s stored but not assigned: %v", idea.IdeaID, err)
		return result, err
	}
	result.ReviewerEmail = reviewer.Email
	result.ReviewerName = displayName(reviewer)

	name := submitter.Name
	if name == "" {
		name = idea.Name
	}
	if err := s.users.RecordSubmission(ctx, submitter.Email, name, idea.IdeaID, s.beansPerIdea); err != nil {
		log.Printf("[AssignmentService] Idea %s assigned to %s but submitter %s not credited: %v",
			idea.IdeaID, reviewer.Email, submitter.Email, err)
		return result, fmt.Errorf("credit submitter: %w", err)
	}
	result.BeansAdded = s.beansPerIdea
	s.invalidateLeaderboard(ctx)

	log.Printf("[AssignmentService] Idea %s from %s assigned to %s", idea.IdeaID, submitter.Email, reviewer.Email)
	return result, nil
}

// AssignRandomReviewer claims ideaID, picks one reviewer uniformly from the
// current pool and records ideaID on it. It returns ErrAssignmentClaimed when
// another caller holds the claim.
func (s *AssignmentService) AssignRandomReviewer(ctx context.Context, ideaID string) (*models.User, error) {
	claimedAt := claimTime()
	claimed, err := s.ideas.ClaimAssignment(ctx, ideaID, claimedAt)
	if err != nil {
		return nil, fmt.Errorf("claim idea: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s", ErrAssignmentClaimed, ideaID)
	}
	return s.assignClaimed(ctx, ideaID, claimedAt)
}

// assignClaimed runs the assignment under a claim taken at claimedAt. The
// claim is released on failure so a later sweep can retry the idea.
func (s *AssignmentService) assignClaimed(ctx context.Context, ideaID string, claimedAt time.Time) (*models.User, error) {
	reviewer, err := s.pickAndRecord(ctx, ideaID)
	if err != nil {
		if _, relErr := s.ideas.ReleaseAssignment(context.WithoutCancel(ctx), ideaID, claimedAt); relErr != nil {
			log.Printf("[AssignmentService] Failed to release claim on idea %s: %v", ideaID, relErr)
		}
		return nil, err
	}
	return reviewer, nil
}

func (s *AssignmentService) pickAndRecord(ctx context.Context, ideaID string) (*models.User, error) {
	reviewers, err := s.users.ListReviewers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	if len(reviewers) == 0 {
		return nil, ErrNoReviewersAvailable
	}

	reviewer := reviewers[s.pick(len(reviewers))]
	matched, err := s.users.RecordReviewAssignment(ctx, reviewer.Email, ideaID)
	if err != nil {
		return nil, fmt.Errorf("record assignment: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: reviewer %s", ErrUserNotFound, reviewer.Email)
	}
	return &reviewer, nil
}

// AssignToReviewer records ideaID on a chosen user. Calling it again for the
// same pair leaves one copy of the id in review_ideas but still bumps review_count.
func (s *AssignmentService) AssignToReviewer(ctx context.Context, ideaID, reviewerEmail string) error {
	idea, err := s.ideas.FindByID(ctx, ideaID)
	if err != nil {
		return fmt.Errorf("look up idea: %w", err)
	}
	if idea == nil {
		return fmt.Errorf("%w: %s", ErrIdeaNotFound, ideaID)
	}

	matched, err := s.users.RecordReviewAssignment(ctx, reviewerEmail, ideaID)
	if err != nil {
		return fmt.Errorf("record assignment: %w", err)
	}
	if !matched {
		return fmt.Errorf("%w: %s", ErrUserNotFound, models.NormalizeEmail(reviewerEmail))
	}

	log.Printf("[AssignmentService] Idea %s manually assigned to %s", ideaID, models.NormalizeEmail(reviewerEmail))
	return nil
}

func (s *AssignmentService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		log.Printf("[AssignmentService] Failed to invalidate leaderboard cache: %v", err)
	}
}

// claimTime is truncated to the store's millisecond date precision so a
// release can match the stored claim exactly.
func claimTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
