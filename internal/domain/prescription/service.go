package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/staff"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

type Service struct {
	repo     Repository
	pool     *pgxpool.Pool
	patients patient.Repository
	doctors  staff.DoctorRepository
	auditor  *audit.Recorder
}

func NewService(repo Repository, pool *pgxpool.Pool, patients patient.Repository, doctors staff.DoctorRepository, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, pool: pool, patients: patients, doctors: doctors, auditor: auditor}
}

// Create writes the prescription and its medicine lines in one transaction.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil || p.DoctorID == uuid.Nil {
		return apperr.Validation("patient_id and doctor_id are required")
	}
	if len(p.Medicines) == 0 {
		return apperr.Validation("at least one medicine line is required")
	}
	for _, m := range p.Medicines {
		if m.Name == "" || m.Dosage == "" || m.Frequency == "" {
			return apperr.Validation("medicine name, dosage and frequency are required")
		}
	}

	if _, err := s.patients.GetByID(ctx, p.PatientID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("patient not found")
		}
		return apperr.Wrap(apperr.KindInternal, err, "load patient")
	}
	if _, err := s.doctors.GetByID(ctx, p.DoctorID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("doctor not found")
		}
		return apperr.Wrap(apperr.KindInternal, err, "load doctor")
	}

	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create prescription")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Prescription", p.ID.String(), nil, p)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("prescription not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete prescription")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Prescription", p.ID.String(), p, nil)
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
