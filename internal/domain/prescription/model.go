package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table. Medicines are the nested
// line rows and always travel with the prescription.
type Prescription struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	PatientID uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	Notes     *string     `db:"notes" json:"notes,omitempty"`
	Medicines []*Medicine `db:"-" json:"medicines"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Medicine maps to the prescription_medicines table.
type Medicine struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Name           string    `db:"name" json:"name"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	Duration       *string   `db:"duration" json:"duration,omitempty"`
	Instructions   *string   `db:"instructions" json:"instructions,omitempty"`
}
