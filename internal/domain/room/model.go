package room

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Room statuses. Maintenance is set manually and blocks allocation; the
// other three are derived from the bed counters.
const (
	StatusAvailable         = "Available"
	StatusPartiallyOccupied = "PartiallyOccupied"
	StatusFull              = "Full"
	StatusMaintenance       = "Maintenance"
)

// Room types.
const (
	TypeNormal      = "Normal"
	TypeICU         = "ICU"
	TypeSemiPrivate = "Semi-Private"
	TypePrivate     = "Private"
)

// Room maps to the rooms table. BedCountRemaining is the capacity counter:
// decremented on admission, incremented on discharge, never negative and
// never above BedCountTotal.
type Room struct {
	ID                uuid.UUID `db:"id" json:"id"`
	RoomNo            string    `db:"room_no" json:"room_no"`
	RoomType          string    `db:"room_type" json:"room_type"`
	Status            string    `db:"status" json:"status"`
	PricePerDay       float64   `db:"price_per_day" json:"price_per_day"`
	BedCountTotal     int       `db:"bed_count_total" json:"bed_count_total"`
	BedCountRemaining int       `db:"bed_count_remaining" json:"bed_count_remaining"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ValidType reports whether t is a known room type.
func ValidType(t string) bool {
	switch t {
	case TypeNormal, TypeICU, TypeSemiPrivate, TypePrivate:
		return true
	}
	return false
}

// HasCapacity reports whether the room can accept another admission.
func (r *Room) HasCapacity() bool {
	return r.Status != StatusMaintenance && r.BedCountRemaining > 0
}

// DeriveStatus returns the status implied by the bed counters. A room in
// maintenance keeps that status until it is cleared manually.
func (r *Room) DeriveStatus() string {
	if r.Status == StatusMaintenance {
		return StatusMaintenance
	}
	switch {
	case r.BedCountRemaining <= 0:
		return StatusFull
	case r.BedCountRemaining < r.BedCountTotal:
		return StatusPartiallyOccupied
	default:
		return StatusAvailable
	}
}

// NewRoomNo derives the human-facing room number prefix form, e.g.
// "RM-3F2A91BC", from a uuid.
func NewRoomNo(id uuid.UUID) string {
	return "RM-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
