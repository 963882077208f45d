package staff

import (
	"time"

	"github.com/google/uuid"
)

// Nurse shifts.
const (
	ShiftMorning = "Morning"
	ShiftEvening = "Evening"
	ShiftNight   = "Night"
)

// Doctor maps to the doctors table.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Specialization  string    `db:"specialization" json:"specialization"`
	Qualification   *string   `db:"qualification" json:"qualification,omitempty"`
	PhoneNo         string    `db:"phone_no" json:"phone_no"`
	EmailID         *string   `db:"email_id" json:"email_id,omitempty"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	Available       bool      `db:"available" json:"available"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Nurse maps to the nurses table.
type Nurse struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PhoneNo   string    `db:"phone_no" json:"phone_no"`
	EmailID   *string   `db:"email_id" json:"email_id,omitempty"`
	Shift     string    `db:"shift" json:"shift"`
	Ward      *string   `db:"ward" json:"ward,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidShift reports whether s is a known nurse shift.
func ValidShift(s string) bool {
	switch s {
	case ShiftMorning, ShiftEvening, ShiftNight:
		return true
	}
	return false
}
