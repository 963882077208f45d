package billing

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a bill listing.
type ListFilter struct {
	PatientID *uuid.UUID
	Status    string
}

type Repository interface {
	CreateBill(ctx context.Context, b *Bill) error
	GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetBillForUpdate row-locks the bill so concurrent payments and item
	// appends serialize.
	GetBillForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetOpenByPatient returns the patient's open bill, pgx.ErrNoRows when
	// none exists.
	GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error)
	UpdateBill(ctx context.Context, b *Bill) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Bill, int, error)

	AddItem(ctx context.Context, it *BillItem) error
	GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error)
}
