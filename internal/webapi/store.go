package webapi

import (
	"context"

	"github.com/vedanthq/SLMGen/internal/jobs"
)

//go:generate go tool mockgen -source=store.go -destination=mock_jobstore_test.go -package=webapi

// JobStore persists notebook generation jobs, scoped per user.
type JobStore interface {
	// Create stores j and returns it with its ID and timestamps set.
	Create(ctx context.Context, j jobs.Job) (jobs.Job, error)
	// Get returns one of the user's jobs.
	Get(ctx context.Context, userID, id string) (jobs.Job, error)
	// List returns the user's jobs, newest first.
	List(ctx context.Context, userID string, limit, offset int) ([]jobs.Job, error)
	// Update applies the set fields of u.
	Update(ctx context.Context, userID, id string, u jobs.Update) (jobs.Job, error)
	// Delete removes one of the user's jobs.
	Delete(ctx context.Context, userID, id string) error
}

// Ensure the SQLite store satisfies JobStore.
var _ JobStore = (*jobs.Store)(nil)
