package ports

import (
	"context"

	"github.com/arbored/weft/pkg/domain"
)

// RunStore defines the interface for persisting run outcomes. It backs the
// HTTP API and the CLI's run history.
type RunStore interface {
	// Save persists a run record under its ID, overwriting any previous
	// record with the same ID.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a run record by ID.
	// Returns domain.ErrRunNotFound if no such run exists.
	Load(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)

	// Delete removes a run record. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
}
