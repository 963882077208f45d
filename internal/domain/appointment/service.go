package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/billing"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/staff"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

type Service struct {
	repo     Repository
	pool     *pgxpool.Pool
	patients patient.Repository
	doctors  staff.DoctorRepository
	bills    *billing.Service
	auditor  *audit.Recorder
}

func NewService(repo Repository, pool *pgxpool.Pool, patients patient.Repository, doctors staff.DoctorRepository, bills *billing.Service, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, pool: pool, patients: patients, doctors: doctors, bills: bills, auditor: auditor}
}

// Schedule books an appointment. Patient and doctor must exist and the
// doctor must be taking appointments.
func (s *Service) Schedule(ctx context.Context, a *Appointment) ([]event.Event, error) {
	if a.PatientID == uuid.Nil || a.DoctorID == uuid.Nil {
		return nil, apperr.Validation("patient_id and doctor_id are required")
	}
	if a.ScheduledAt.IsZero() {
		return nil, apperr.Validation("scheduled_at is required")
	}

	if _, err := s.patients.GetByID(ctx, a.PatientID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "load patient")
	}
	doc, err := s.loadDoctor(ctx, a.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doc.Available {
		return nil, apperr.Unavailable("doctor %s is not taking appointments", doc.Name)
	}

	a.Status = StatusScheduled
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create appointment")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Appointment", a.ID.String(), nil, a)
	return appointmentEvents(a), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, err
	}
	return a, nil
}

// Reschedule moves a scheduled appointment to a new time or updates its
// reason.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt *time.Time, reason *string) (*Appointment, []event.Event, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.IsTerminal() {
		return nil, nil, apperr.StateMismatch("appointment is %s", a.Status)
	}
	prev := *a
	if scheduledAt != nil {
		a.ScheduledAt = *scheduledAt
	}
	if reason != nil {
		a.Reason = reason
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "update appointment")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Appointment", a.ID.String(), &prev, a)
	return a, appointmentEvents(a), nil
}

// Complete marks the visit as done and posts a consultation line at the
// doctor's current fee onto the patient's open bill. The status change and
// the bill item commit together.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, *billing.Bill, []event.Event, error) {
	var (
		a    *Appointment
		bill *billing.Bill
	)
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		var err error
		a, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return apperr.StateMismatch("appointment is %s", a.Status)
		}
		doc, err := s.loadDoctor(ctx, a.DoctorID)
		if err != nil {
			return err
		}

		a.Status = StatusCompleted
		if err := s.repo.Update(ctx, a); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update appointment")
		}

		if doc.ConsultationFee > 0 {
			bill, _, err = s.bills.AddItemForPatient(ctx, a.PatientID, billing.ItemInput{
				Description: fmt.Sprintf("Consultation: Dr. %s (%s)", doc.Name, doc.Specialization),
				ItemType:    billing.ItemConsultation,
				Quantity:    1,
				UnitPrice:   doc.ConsultationFee,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "Appointment", a.ID.String(), nil, a)
	events := appointmentEvents(a)
	if bill != nil {
		events = append(events, event.Event{
			Topic:      event.TopicBills,
			Type:       event.TypeBillUpdated,
			EntityType: "Bill",
			EntityID:   bill.ID.String(),
			Data:       bill,
		})
	}
	return a, bill, events, nil
}

// Transition cancels or no-shows a scheduled appointment.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, status string) (*Appointment, []event.Event, error) {
	if status != StatusCancelled && status != StatusNoShow {
		return nil, nil, apperr.Validation("invalid status: %s", status)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.IsTerminal() {
		return nil, nil, apperr.StateMismatch("appointment is %s", a.Status)
	}
	prev := *a
	a.Status = status
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "update appointment")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Appointment", a.ID.String(), &prev, a)
	return a, appointmentEvents(a), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete appointment")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Appointment", a.ID.String(), a, nil)
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) loadDoctor(ctx context.Context, id uuid.UUID) (*staff.Doctor, error) {
	doc, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("doctor not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "load doctor")
	}
	return doc, nil
}

func appointmentEvents(a *Appointment) []event.Event {
	return []event.Event{{
		Topic:      event.TopicAppointments,
		Type:       event.TypeAppointmentUpdated,
		EntityType: "Appointment",
		EntityID:   a.ID.String(),
		Data:       a,
	}}
}
