package staff

import (
	"context"

	"github.com/google/uuid"
)

// DoctorFilter narrows a doctor listing.
type DoctorFilter struct {
	Specialization string
	AvailableOnly  bool
}

// NurseFilter narrows a nurse listing.
type NurseFilter struct {
	Shift string
	Ward  string
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error)
}

type NurseRepository interface {
	Create(ctx context.Context, n *Nurse) error
	GetByID(ctx context.Context, id uuid.UUID) (*Nurse, error)
	Update(ctx context.Context, n *Nurse) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f NurseFilter, limit, offset int) ([]*Nurse, int, error)
}
