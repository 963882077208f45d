package ambulance

import (
	"time"

	"github.com/google/uuid"
)

// Ambulance statuses. Dispatch moves Available to OnCall; release moves
// OnCall back to Available. Maintenance is set manually.
const (
	StatusAvailable   = "Available"
	StatusOnCall      = "OnCall"
	StatusMaintenance = "Maintenance"
)

// Ambulance maps to the ambulances table.
type Ambulance struct {
	ID          uuid.UUID `db:"id" json:"id"`
	VehicleNo   string    `db:"vehicle_no" json:"vehicle_no"`
	DriverName  string    `db:"driver_name" json:"driver_name"`
	DriverPhone string    `db:"driver_phone" json:"driver_phone"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ValidStatus reports whether s is a known ambulance status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusOnCall, StatusMaintenance:
		return true
	}
	return false
}
