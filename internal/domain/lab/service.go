package lab

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
)

type Service struct {
	repo     Repository
	patients patient.Repository
	auditor  *audit.Recorder
}

func NewService(repo Repository, patients patient.Repository, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, patients: patients, auditor: auditor}
}

// Order opens a lab report in Pending state. A result supplied up front
// completes it immediately.
func (s *Service) Order(ctx context.Context, rep *Report) error {
	if rep.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if rep.TestName == "" {
		return apperr.Validation("test_name is required")
	}
	if _, err := s.patients.GetByID(ctx, rep.PatientID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("patient not found")
		}
		return apperr.Wrap(apperr.KindInternal, err, "load patient")
	}

	rep.Status = StatusPending
	if rep.Result != nil {
		rep.Status = StatusCompleted
		if rep.ReportedAt == nil {
			now := time.Now().UTC()
			rep.ReportedAt = &now
		}
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create lab report")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "LabReport", rep.ID.String(), nil, rep)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("lab report not found")
		}
		return nil, err
	}
	return rep, nil
}

// Update patches the report. Setting a result on a pending report completes
// it and stamps reported_at.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Report, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *rep

	if patch.TestName != nil {
		if *patch.TestName == "" {
			return nil, apperr.Validation("test_name must not be empty")
		}
		rep.TestName = *patch.TestName
	}
	if patch.NormalRange != nil {
		rep.NormalRange = patch.NormalRange
	}
	if patch.Result != nil {
		rep.Result = patch.Result
		rep.Status = StatusCompleted
		if rep.ReportedAt == nil {
			now := time.Now().UTC()
			rep.ReportedAt = &now
		}
	}

	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update lab report")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "LabReport", rep.ID.String(), &prev, rep)
	return rep, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete lab report")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "LabReport", rep.ID.String(), rep, nil)
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Patch is a partial lab report update.
type Patch struct {
	TestName    *string `json:"test_name"`
	Result      *string `json:"result"`
	NormalRange *string `json:"normal_range"`
}
