package ambulance

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows an ambulance listing.
type ListFilter struct {
	Status string
}

type Repository interface {
	Create(ctx context.Context, a *Ambulance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ambulance, error)
	// GetForUpdate row-locks the ambulance so dispatch and release
	// transitions serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Ambulance, error)
	Update(ctx context.Context, a *Ambulance) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Ambulance, int, error)
}
