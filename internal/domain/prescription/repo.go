package prescription

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a prescription listing.
type ListFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

type Repository interface {
	// Create inserts the prescription and its medicine lines.
	Create(ctx context.Context, p *Prescription) error
	// GetByID loads the prescription with its medicine lines.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns prescriptions without lines; Get loads them.
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error)
	// ListByPatient returns the patient's prescriptions with lines.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
}
