package shared

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the generic persistence port shared by aggregates
type Repository[T any] interface {
	// Add inserts a new entity
	Add(ctx context.Context, entity T) error
	// Update overwrites the mutable fields of an existing entity
	Update(ctx context.Context, entity T) error
	// GetByID returns ErrNotFound when no entity has the ID
	GetByID(ctx context.Context, id uuid.UUID) (T, error)
	// Delete returns ErrNotFound when no entity has the ID
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns the entities whose columns equal every filter value.
	// Unknown columns are ignored; an empty filter behaves like ListAll.
	Search(ctx context.Context, filter Filter) ([]T, error)
	// ListAll returns every entity
	ListAll(ctx context.Context) ([]T, error)
}

// Filter maps column names to the value they must equal
type Filter map[string]any
