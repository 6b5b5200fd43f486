package metadata

import (
	"context"
	"time"
)

// Store is the metadata collaborator contract consumed by the integrity
// scanner. GetByID returns (nil, nil) for an unknown id so callers can
// distinguish absence from store failure.
type Store interface {
	GetByID(ctx context.Context, id string) (*EpisodeRecord, error)
	// ListRecent returns at most limit record ids ordered most recently
	// created first, excluding soft-deleted records. A non-nil
	// createdAfter restricts the listing to records created after it.
	ListRecent(ctx context.Context, limit int, createdAfter *time.Time) ([]string, error)
	// Update applies a partial field map to an existing record.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}
