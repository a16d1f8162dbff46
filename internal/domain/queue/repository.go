package queue

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// Repository defines persistence for queue batches and their lines
type Repository interface {
	// Save creates or updates a batch together with its lines
	Save(ctx context.Context, q *Queue) error

	// SaveLine updates a single line without touching its siblings
	SaveLine(ctx context.Context, line *Line) error

	// FindByID loads a batch with all its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Queue, error)

	// FindPending returns batches of the given kind for an instance whose
	// derived state still admits processing
	FindPending(ctx context.Context, instanceID uuid.UUID, kind Kind, states []State) ([]Queue, error)

	// FindLineByExternalID finds a line of the given kind by its
	// storefront identifier, newest first
	FindLineByExternalID(ctx context.Context, instanceID uuid.UUID, kind Kind, externalID string) (*Line, error)

	// NextSequence returns the next batch sequence number for a kind
	NextSequence(ctx context.Context, kind Kind) (int64, error)
}

// OperationLogRepository defines persistence for operation logs
type OperationLogRepository interface {
	// Save creates or updates a log together with its lines
	Save(ctx context.Context, log *OperationLog) error

	// FindByID loads a log with all its lines
	FindByID(ctx context.Context, id uuid.UUID) (*OperationLog, error)

	// Delete removes a log and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// NextSequence returns the next log sequence number
	NextSequence(ctx context.Context) (int64, error)
}
