package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
)

type Service struct {
	doctors DoctorRepository
	nurses  NurseRepository
	auditor *audit.Recorder
}

func NewService(doctors DoctorRepository, nurses NurseRepository, auditor *audit.Recorder) *Service {
	return &Service{doctors: doctors, nurses: nurses, auditor: auditor}
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" || d.PhoneNo == "" {
		return apperr.Validation("name and phone_no are required")
	}
	if d.Specialization == "" {
		d.Specialization = "General"
	}
	if d.ConsultationFee < 0 {
		return apperr.Validation("consultation_fee must not be negative")
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create doctor")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Doctor", d.ID.String(), nil, d)
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("doctor not found")
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, patch DoctorPatch) (*Doctor, error) {
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *d

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		d.Name = *patch.Name
	}
	if patch.Specialization != nil {
		d.Specialization = *patch.Specialization
	}
	if patch.Qualification != nil {
		d.Qualification = patch.Qualification
	}
	if patch.PhoneNo != nil {
		if *patch.PhoneNo == "" {
			return nil, apperr.Validation("phone_no must not be empty")
		}
		d.PhoneNo = *patch.PhoneNo
	}
	if patch.EmailID != nil {
		d.EmailID = patch.EmailID
	}
	if patch.ConsultationFee != nil {
		if *patch.ConsultationFee < 0 {
			return nil, apperr.Validation("consultation_fee must not be negative")
		}
		d.ConsultationFee = *patch.ConsultationFee
	}
	if patch.Available != nil {
		d.Available = *patch.Available
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update doctor")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Doctor", d.ID.String(), &prev, d)
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete doctor")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Doctor", d.ID.String(), d, nil)
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, f, limit, offset)
}

func (s *Service) CreateNurse(ctx context.Context, n *Nurse) error {
	if n.Name == "" || n.PhoneNo == "" {
		return apperr.Validation("name and phone_no are required")
	}
	if n.Shift == "" {
		n.Shift = ShiftMorning
	}
	if !ValidShift(n.Shift) {
		return apperr.Validation("invalid shift: %s", n.Shift)
	}
	if err := s.nurses.Create(ctx, n); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create nurse")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Nurse", n.ID.String(), nil, n)
	return nil
}

func (s *Service) GetNurse(ctx context.Context, id uuid.UUID) (*Nurse, error) {
	n, err := s.nurses.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("nurse not found")
		}
		return nil, err
	}
	return n, nil
}

func (s *Service) UpdateNurse(ctx context.Context, id uuid.UUID, patch NursePatch) (*Nurse, error) {
	n, err := s.GetNurse(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *n

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		n.Name = *patch.Name
	}
	if patch.PhoneNo != nil {
		if *patch.PhoneNo == "" {
			return nil, apperr.Validation("phone_no must not be empty")
		}
		n.PhoneNo = *patch.PhoneNo
	}
	if patch.EmailID != nil {
		n.EmailID = patch.EmailID
	}
	if patch.Shift != nil {
		if !ValidShift(*patch.Shift) {
			return nil, apperr.Validation("invalid shift: %s", *patch.Shift)
		}
		n.Shift = *patch.Shift
	}
	if patch.Ward != nil {
		n.Ward = patch.Ward
	}

	if err := s.nurses.Update(ctx, n); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update nurse")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Nurse", n.ID.String(), &prev, n)
	return n, nil
}

func (s *Service) DeleteNurse(ctx context.Context, id uuid.UUID) error {
	n, err := s.GetNurse(ctx, id)
	if err != nil {
		return err
	}
	if err := s.nurses.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete nurse")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Nurse", n.ID.String(), n, nil)
	return nil
}

func (s *Service) ListNurses(ctx context.Context, f NurseFilter, limit, offset int) ([]*Nurse, int, error) {
	return s.nurses.List(ctx, f, limit, offset)
}

// DoctorPatch is a partial doctor update.
type DoctorPatch struct {
	Name            *string  `json:"name"`
	Specialization  *string  `json:"specialization"`
	Qualification   *string  `json:"qualification"`
	PhoneNo         *string  `json:"phone_no"`
	EmailID         *string  `json:"email_id"`
	ConsultationFee *float64 `json:"consultation_fee"`
	Available       *bool    `json:"available"`
}

// NursePatch is a partial nurse update.
type NursePatch struct {
	Name    *string `json:"name"`
	PhoneNo *string `json:"phone_no"`
	EmailID *string `json:"email_id"`
	Shift   *string `json:"shift"`
	Ward    *string `json:"ward"`
}
