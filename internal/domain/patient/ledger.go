package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/room"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
)

// Ledger is the occupancy ledger. Every operation that moves a patient in or
// out of a room runs through it so bed counters, patient state and room
// charges change atomically. Implemented by the occupancy package; declared
// here so the patient handler does not depend on it directly.
type Ledger interface {
	// Allocate admits a new patient into a room, decrementing the bed count.
	Allocate(ctx context.Context, p *Patient, roomID uuid.UUID, admittedAt time.Time) (*AllocateResult, error)
	// Discharge ends a stay: releases the bed, severs the room link and
	// finalizes room charges onto the patient's open bill.
	Discharge(ctx context.Context, patientID uuid.UUID, dischargedAt time.Time) (*DischargeResult, error)
	// Reassign moves an admitted patient to a different room. A patient
	// with no current room is admitted into the target room instead.
	Reassign(ctx context.Context, patientID, newRoomID uuid.UUID) (*ReassignResult, error)
	// DeletePatient removes a patient record, releasing the bed first when
	// the patient is still admitted.
	DeletePatient(ctx context.Context, patientID uuid.UUID) ([]event.Event, error)
}

type AllocateResult struct {
	Patient *Patient   `json:"patient"`
	Room    *room.Room `json:"room"`
	Events  []event.Event
}

type DischargeResult struct {
	Patient     *Patient   `json:"patient"`
	Room        *room.Room `json:"room,omitempty"`
	DaysStayed  int        `json:"days_stayed"`
	RoomCharges float64    `json:"room_charges"`
	BillID      uuid.UUID  `json:"bill_id"`
	BillNo      string     `json:"bill_no"`
	Events      []event.Event
}

type ReassignResult struct {
	Patient *Patient   `json:"patient"`
	OldRoom *room.Room `json:"old_room"`
	NewRoom *room.Room `json:"new_room"`
	Events  []event.Event
}
