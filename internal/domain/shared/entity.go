package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides identity and timestamps. Two entities are the same
// entity when their IDs match, whatever their other fields hold.
type BaseEntity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch bumps UpdatedAt to now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = Now()
}

// SameIdentity reports whether both entities carry the same ID
func SameIdentity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.GetID() == b.GetID()
}

// NewBaseEntity creates a base entity with a fresh random ID
func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Now is the clock used for entity timestamps. Timestamps are UTC with
// microsecond precision so they survive a round trip through postgres.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
