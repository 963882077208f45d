package room

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a room listing.
type ListFilter struct {
	Status        string
	RoomType      string
	AvailableOnly bool
}

type Repository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	// GetForUpdate loads the room under a row lock so concurrent allocation
	// attempts against it are serialized. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Room, error)
	Update(ctx context.Context, r *Room) error
	// UpdateBeds persists only the capacity counter and derived status.
	UpdateBeds(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Room, int, error)
}
