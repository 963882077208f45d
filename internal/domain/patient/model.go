package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient categories. A patient holds a room reference if and only if the
// category is InPatient.
const (
	CategoryOutPatient = "OutPatient"
	CategoryInPatient  = "InPatient"
	CategoryDischarged = "Discharged"
)

// Patient maps to the patients table.
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientNo       string     `db:"patient_no" json:"patient_id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	MiddleName      *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	Name            string     `db:"name" json:"name"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Age             *int       `db:"age" json:"age,omitempty"`
	Gender          string     `db:"gender" json:"gender"`
	BloodGroup      *string    `db:"blood_group" json:"blood_group,omitempty"`
	Height          *float64   `db:"height" json:"height,omitempty"`
	Weight          *float64   `db:"weight" json:"weight,omitempty"`
	BMI             *float64   `db:"bmi" json:"bmi,omitempty"`
	PhoneNo         string     `db:"phone_no" json:"phone_no"`
	EmailID         *string    `db:"email_id" json:"email_id,omitempty"`
	Address         *string    `db:"address" json:"address,omitempty"`
	Disease         *string    `db:"disease" json:"disease,omitempty"`
	Category        string     `db:"category" json:"category"`
	RoomID          *uuid.UUID `db:"room_id" json:"room_id,omitempty"`
	AdmittedAt      *time.Time `db:"admitted_at" json:"admitted_at,omitempty"`
	DischargedAt    *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	DepositedAmount float64    `db:"deposited_amount" json:"deposited_amount"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	PendingAmount   float64    `db:"-" json:"pending_amount"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ComputeDerived refreshes fields that are projections of other columns.
// Must run before every serialization so the aggregate is never stale.
func (p *Patient) ComputeDerived() {
	p.Name = strings.TrimSpace(p.FirstName + " " + deref(p.LastName))
	p.PendingAmount = p.TotalAmount - p.DepositedAmount
}

// IsInpatient reports whether the patient currently occupies a room.
func (p *Patient) IsInpatient() bool {
	return p.Category == CategoryInPatient && p.RoomID != nil
}

// Admission is the derived admission view returned under ?include=admission.
// The room reference is present only while the stay is active; discharge
// severs the patient-room link.
type Admission struct {
	RoomID          *uuid.UUID `json:"room_id,omitempty"`
	DateOfAdmission time.Time  `json:"date_of_admission"`
	DateOfDischarge *time.Time `json:"date_of_discharge,omitempty"`
}

// AdmissionView returns the admission record, or nil when the patient has
// never been admitted.
func (p *Patient) AdmissionView() *Admission {
	if p.AdmittedAt == nil {
		return nil
	}
	return &Admission{
		RoomID:          p.RoomID,
		DateOfAdmission: *p.AdmittedAt,
		DateOfDischarge: p.DischargedAt,
	}
}

// NewPatientNo derives the human-facing patient id, e.g. "PAT-9C04D1EF".
func NewPatientNo(id uuid.UUID) string {
	return "PAT-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
