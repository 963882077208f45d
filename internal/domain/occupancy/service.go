// Package occupancy is the ledger behind every patient-room transition.
// Allocations, discharges and reassignments mutate the patient row, the room
// bed counters and the bill inside one transaction, with the affected room
// rows locked for the duration. Bed counters therefore never go negative and
// never exceed the room total.
package occupancy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/billing"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/room"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

// Service implements patient.Ledger.
type Service struct {
	pool     *pgxpool.Pool
	patients patient.Repository
	rooms    room.Repository
	bills    *billing.Service
	auditor  *audit.Recorder
}

func NewService(pool *pgxpool.Pool, patients patient.Repository, rooms room.Repository, bills *billing.Service, auditor *audit.Recorder) *Service {
	return &Service{pool: pool, patients: patients, rooms: rooms, bills: bills, auditor: auditor}
}

// Allocate admits p into the room: the patient insert and the bed decrement
// commit together or not at all. A full or maintenance room rejects the
// admission and leaves every row untouched.
func (s *Service) Allocate(ctx context.Context, p *patient.Patient, roomID uuid.UUID, admittedAt time.Time) (*patient.AllocateResult, error) {
	if p.FirstName == "" || p.PhoneNo == "" {
		return nil, apperr.Validation("first_name and phone_no are required")
	}
	if p.Gender == "" {
		p.Gender = "Other"
	}
	if p.DepositedAmount < 0 {
		return nil, apperr.Validation("deposited_amount must not be negative")
	}

	var rm *room.Room
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		var err error
		rm, err = s.lockRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if rm.Status == room.StatusMaintenance {
			return apperr.Unavailable("room %s is under maintenance", rm.RoomNo)
		}
		if !rm.HasCapacity() {
			return apperr.Unavailable("room %s has no free beds", rm.RoomNo)
		}

		p.ID = uuid.New()
		p.PatientNo = patient.NewPatientNo(p.ID)
		p.Category = patient.CategoryInPatient
		p.RoomID = &roomID
		p.AdmittedAt = &admittedAt
		p.DischargedAt = nil
		p.ComputeDerived()
		if err := s.patients.Create(ctx, p); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "create patient")
		}

		rm.BedCountRemaining--
		rm.Status = rm.DeriveStatus()
		if err := s.rooms.UpdateBeds(ctx, rm); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update room beds")
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.auditor.Record(ctx, audit.ActionAdmit, "Patient", p.ID.String(), nil,
		map[string]interface{}{"patient": p, "room": rm})
	return &patient.AllocateResult{
		Patient: p,
		Room:    rm,
		Events: []event.Event{
			patientEvent(event.TypePatientAdded, p),
			roomEvent(rm),
		},
	}, nil
}

// Discharge ends the stay: the bed comes back, the room link is severed and
// the room charges for the full stay land on the patient's open bill.
func (s *Service) Discharge(ctx context.Context, patientID uuid.UUID, dischargedAt time.Time) (*patient.DischargeResult, error) {
	var (
		p    *patient.Patient
		rm   *room.Room
		bill *billing.Bill
		days int
	)
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		var err error
		p, err = s.loadPatient(ctx, patientID)
		if err != nil {
			return err
		}
		if !p.IsInpatient() {
			return apperr.StateMismatch("patient %s is not admitted", p.PatientNo)
		}
		if p.AdmittedAt != nil && dischargedAt.Before(*p.AdmittedAt) {
			return apperr.Validation("date_of_discharge precedes date_of_admission")
		}

		rm, err = s.lockRoom(ctx, *p.RoomID)
		if err != nil {
			return err
		}

		days = DaysStayed(*p.AdmittedAt, dischargedAt)
		desc := fmt.Sprintf("Room %s (%s), %d day(s)", rm.RoomNo, rm.RoomType, days)
		bill, err = s.bills.FinalizeRoomCharges(ctx, p.ID, desc, days, rm.PricePerDay)
		if err != nil {
			return err
		}

		p.Category = patient.CategoryDischarged
		p.RoomID = nil
		p.DischargedAt = &dischargedAt
		p.TotalAmount = bill.Total
		p.ComputeDerived()
		if err := s.patients.Update(ctx, p); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update patient")
		}

		releaseBed(rm)
		if err := s.rooms.UpdateBeds(ctx, rm); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update room beds")
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.auditor.Record(ctx, audit.ActionDischarge, "Patient", p.ID.String(), nil,
		map[string]interface{}{"patient": p, "days_stayed": days, "bill_no": bill.BillNo})
	return &patient.DischargeResult{
		Patient:     p,
		Room:        rm,
		DaysStayed:  days,
		RoomCharges: float64(days) * rm.PricePerDay,
		BillID:      bill.ID,
		BillNo:      bill.BillNo,
		Events: []event.Event{
			patientEvent(event.TypePatientDischarged, p),
			roomEvent(rm),
			{Topic: event.TopicBills, Type: event.TypeBillUpdated, EntityType: "Bill", EntityID: bill.ID.String(), Data: bill},
		},
	}, nil
}

// Reassign moves an admitted patient between rooms. Both room rows are
// locked in id order so two crossing reassignments cannot deadlock. A
// patient with no current room is admitted into the target room instead,
// in the same transaction.
func (s *Service) Reassign(ctx context.Context, patientID, newRoomID uuid.UUID) (*patient.ReassignResult, error) {
	var (
		p     *patient.Patient
		oldRm *room.Room
		newRm *room.Room
	)
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		var err error
		p, err = s.loadPatient(ctx, patientID)
		if err != nil {
			return err
		}
		if p.RoomID == nil {
			newRm, err = s.admitExisting(ctx, p, newRoomID)
			return err
		}
		if !p.IsInpatient() {
			return apperr.StateMismatch("patient %s is not admitted", p.PatientNo)
		}
		oldRoomID := *p.RoomID
		if oldRoomID == newRoomID {
			return apperr.Validation("patient is already in that room")
		}

		oldRm, newRm, err = s.lockRoomPair(ctx, oldRoomID, newRoomID)
		if err != nil {
			return err
		}
		if newRm.Status == room.StatusMaintenance {
			return apperr.Unavailable("room %s is under maintenance", newRm.RoomNo)
		}
		if !newRm.HasCapacity() {
			return apperr.Unavailable("room %s has no free beds", newRm.RoomNo)
		}

		releaseBed(oldRm)
		newRm.BedCountRemaining--
		newRm.Status = newRm.DeriveStatus()
		if err := s.rooms.UpdateBeds(ctx, oldRm); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update room beds")
		}
		if err := s.rooms.UpdateBeds(ctx, newRm); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update room beds")
		}

		p.RoomID = &newRoomID
		p.ComputeDerived()
		if err := s.patients.Update(ctx, p); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update patient")
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	if oldRm == nil {
		s.auditor.Record(ctx, audit.ActionAdmit, "Patient", p.ID.String(), nil,
			map[string]interface{}{"patient": p, "room": newRm})
		return &patient.ReassignResult{
			Patient: p,
			NewRoom: newRm,
			Events: []event.Event{
				patientEvent(event.TypePatientUpdated, p),
				roomEvent(newRm),
			},
		}, nil
	}

	s.auditor.Record(ctx, audit.ActionReassign, "Patient", p.ID.String(),
		map[string]interface{}{"room_id": oldRm.ID},
		map[string]interface{}{"room_id": newRm.ID})
	return &patient.ReassignResult{
		Patient: p,
		OldRoom: oldRm,
		NewRoom: newRm,
		Events: []event.Event{
			patientEvent(event.TypePatientUpdated, p),
			roomEvent(oldRm),
			roomEvent(newRm),
		},
	}, nil
}

// admitExisting runs the admission path for an already-registered patient
// with no room: reassignment onto a room-less patient degrades to an
// allocation of that room.
func (s *Service) admitExisting(ctx context.Context, p *patient.Patient, roomID uuid.UUID) (*room.Room, error) {
	rm, err := s.lockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.Status == room.StatusMaintenance {
		return nil, apperr.Unavailable("room %s is under maintenance", rm.RoomNo)
	}
	if !rm.HasCapacity() {
		return nil, apperr.Unavailable("room %s has no free beds", rm.RoomNo)
	}

	now := time.Now().UTC()
	p.Category = patient.CategoryInPatient
	p.RoomID = &roomID
	p.AdmittedAt = &now
	p.DischargedAt = nil
	p.ComputeDerived()
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update patient")
	}

	rm.BedCountRemaining--
	rm.Status = rm.DeriveStatus()
	if err := s.rooms.UpdateBeds(ctx, rm); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update room beds")
	}
	return rm, nil
}

// DeletePatient removes the patient record. An admitted patient's bed is
// released in the same transaction.
func (s *Service) DeletePatient(ctx context.Context, patientID uuid.UUID) ([]event.Event, error) {
	var (
		p  *patient.Patient
		rm *room.Room
	)
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		var err error
		p, err = s.loadPatient(ctx, patientID)
		if err != nil {
			return err
		}
		if p.IsInpatient() {
			rm, err = s.lockRoom(ctx, *p.RoomID)
			if err != nil {
				return err
			}
			releaseBed(rm)
			if err := s.rooms.UpdateBeds(ctx, rm); err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "update room beds")
			}
		}
		if err := s.patients.Delete(ctx, patientID); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "delete patient")
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.auditor.Record(ctx, audit.ActionDelete, "Patient", p.ID.String(), p, nil)
	events := []event.Event{{
		Topic:      event.TopicPatients,
		Type:       event.TypePatientDeleted,
		EntityType: "Patient",
		EntityID:   p.ID.String(),
		Data:       map[string]string{"id": p.ID.String(), "patient_id": p.PatientNo},
	}}
	if rm != nil {
		events = append(events, roomEvent(rm))
	}
	return events, nil
}

// DaysStayed is the billable length of a stay: calendar days touched,
// minimum one. Admission and discharge on the same date bill one day.
func DaysStayed(admittedAt, dischargedAt time.Time) int {
	a := admittedAt.UTC().Truncate(24 * time.Hour)
	d := dischargedAt.UTC().Truncate(24 * time.Hour)
	days := int(d.Sub(a).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}

func (s *Service) loadPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "load patient")
	}
	return p, nil
}

func (s *Service) lockRoom(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	rm, err := s.rooms.GetForUpdate(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("room not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "lock room")
	}
	return rm, nil
}

// lockRoomPair locks two rooms in ascending id order and returns them as
// (first-requested, second-requested).
func (s *Service) lockRoomPair(ctx context.Context, a, b uuid.UUID) (*room.Room, *room.Room, error) {
	first, second := a, b
	if b.String() < a.String() {
		first, second = b, a
	}
	rmFirst, err := s.lockRoom(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	rmSecond, err := s.lockRoom(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if first == a {
		return rmFirst, rmSecond, nil
	}
	return rmSecond, rmFirst, nil
}

// releaseBed returns one bed to the room, clamped at the room total.
func releaseBed(rm *room.Room) {
	rm.BedCountRemaining++
	if rm.BedCountRemaining > rm.BedCountTotal {
		rm.BedCountRemaining = rm.BedCountTotal
	}
	rm.Status = rm.DeriveStatus()
}

// txErr maps transient lock conflicts onto the retryable Conflict kind.
func txErr(err error) error {
	if db.IsSerializationFailure(err) {
		return apperr.Wrap(apperr.KindConflict, err, "concurrent occupancy update, retry")
	}
	return err
}

func patientEvent(typ string, p *patient.Patient) event.Event {
	return event.Event{
		Topic:      event.TopicPatients,
		Type:       typ,
		EntityType: "Patient",
		EntityID:   p.ID.String(),
		Data:       p,
	}
}

func roomEvent(rm *room.Room) event.Event {
	return event.Event{
		Topic:      event.TopicRooms,
		Type:       event.TypeRoomUpdated,
		EntityType: "Room",
		EntityID:   rm.ID.String(),
		Data:       rm,
	}
}
