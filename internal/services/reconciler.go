package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultClaimTimeout is how long an assignment claim may stay unfinished
// before a sweep treats its holder as dead and releases it.
const DefaultClaimTimeout = 5 * time.Minute

// Reconciler periodically finds ideas that no reviewer holds and assigns them.
// It only replays reviewer assignment; submitters are never credited twice.
type Reconciler struct {
	assigner     *AssignmentService
	interval     time.Duration
	claimTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler creates a reconciler that sweeps every interval once started.
func NewReconciler(assigner *AssignmentService, interval time.Duration) *Reconciler {
	return &Reconciler{assigner: assigner, interval: interval, claimTimeout: DefaultClaimTimeout}
}

// Start launches the sweep loop. Calling it on a running reconciler is a no-op.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil || r.interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx, r.done)
	log.Printf("[Reconciler] Started, sweeping every %s", r.interval)
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("[Reconciler] Stopped")
}

func (r *Reconciler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			assigned, err := r.SweepOnce(ctx)
			if err != nil {
				log.Printf("[Reconciler] Sweep failed after %d assignments: %v", assigned, err)
				continue
			}
			if assigned > 0 {
				log.Printf("[Reconciler] Assigned %d orphaned ideas", assigned)
			}
		}
	}
}

// SweepOnce assigns a random reviewer to every idea missing from all review
// sets and returns how many it assigned. Ideas claimed by an assignment still
// in flight are skipped; claims older than the claim timeout are released
// first. An empty reviewer pool stops the sweep.
func (r *Reconciler) SweepOnce(ctx context.Context) (int, error) {
	ideas, err := r.assigner.ideas.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ideas: %w", err)
	}
	users, err := r.assigner.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	held := make(map[string]struct{})
	for _, u := range users {
		for _, id := range u.ReviewIdeas {
			held[id] = struct{}{}
		}
	}

	assigned := 0
	now := time.Now()
	for _, idea := range ideas {
		if _, ok := held[idea.IdeaID]; ok {
			continue
		}
		if ctx.Err() != nil {
			return assigned, ctx.Err()
		}
		if idea.Assigned {
			claimedAt := idea.AssignmentClaimedAt
			if claimedAt == nil || now.Sub(*claimedAt) < r.claimTimeout {
				continue
			}
			released, err := r.assigner.ideas.ReleaseAssignment(ctx, idea.IdeaID, *claimedAt)
			if err != nil {
				log.Printf("[Reconciler] Could not release stale claim on idea %s: %v", idea.IdeaID, err)
				continue
			}
			if !released {
				continue
			}
			log.Printf("[Reconciler] Released claim on idea %s taken at %s", idea.IdeaID, claimedAt.Format(time.RFC3339))
		}

		reviewer, err := r.assigner.AssignRandomReviewer(ctx, idea.IdeaID)
		if errors.Is(err, ErrNoReviewersAvailable) {
			return assigned, err
		}
		if errors.Is(err, ErrAssignmentClaimed) {
			continue
		}
		if err != nil {
			log.Printf("[Reconciler] Could not assign idea %s: %v", idea.IdeaID, err)
			continue
		}
		log.Printf("[Reconciler] Idea %s assigned to %s", idea.IdeaID, reviewer.Email)
		assigned++
	}
	return assigned, nil
}
