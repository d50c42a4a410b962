package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed message IDs so redeliveries can be skipped
type IdempotencyStore interface {
	// MarkProcessed returns true if the ID was newly marked, false if it was already there
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether the ID has been marked
	IsProcessed(ctx context.Context, messageID string) (bool, error)

	// Close releases the store's resources
	Close() error
}
