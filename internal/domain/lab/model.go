package lab

import (
	"time"

	"github.com/google/uuid"
)

// Lab report statuses.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

// Report maps to the lab_reports table. ReportedAt is set when the result
// comes in.
type Report struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName    string     `db:"test_name" json:"test_name"`
	Result      *string    `db:"result" json:"result,omitempty"`
	NormalRange *string    `db:"normal_range" json:"normal_range,omitempty"`
	Status      string     `db:"status" json:"status"`
	ReportedAt  *time.Time `db:"reported_at" json:"reported_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
