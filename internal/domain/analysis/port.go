package analysis

import (
	"context"
	"time"
)

// Cache holds finished analyses keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (Analysis, bool, error)
	Put(ctx context.Context, fingerprint string, a Analysis, ttl time.Duration) error
}

// Sink persists each section of a run as its own named record.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// Repository indexes runs for later retrieval.
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, userID, runID string) (*Run, error)
	Paginate(ctx context.Context, userID string, page, pageSize int) ([]*Run, error)
}

type FailureRepository interface {
	Save(ctx context.Context, f *Failure) error
	// ListByUser returns the newest failures of one user first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Failure, error)
}

// ReferenceSource looks up reference data for a request. A nil record means nothing matched.
type ReferenceSource interface {
	Lookup(ctx context.Context, req Request) (*ReferenceRecord, error)
}
