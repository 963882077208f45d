package patient

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a patient listing.
type ListFilter struct {
	Category string
	RoomID   *uuid.UUID
	Search   string
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error)
	// CountByRoom counts patients currently admitted to the room.
	CountByRoom(ctx context.Context, roomID uuid.UUID) (int, error)
	// ListByRoom returns the patients currently admitted to the room.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*Patient, error)
}
