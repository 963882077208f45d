package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
)

type Service struct {
	repo    Repository
	auditor *audit.Recorder
}

func NewService(repo Repository, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Register creates an out-patient record. In-patient admissions go through
// the occupancy ledger so the room allocation and the patient insert land in
// the same transaction.
func (s *Service) Register(ctx context.Context, p *Patient) ([]event.Event, error) {
	if err := validateNew(p); err != nil {
		return nil, err
	}
	if p.Category == CategoryInPatient {
		return nil, apperr.Validation("in-patient registration requires a room allocation")
	}
	if p.Category == "" {
		p.Category = CategoryOutPatient
	}
	if p.Category != CategoryOutPatient && p.Category != CategoryDischarged {
		return nil, apperr.Validation("invalid category: %s", p.Category)
	}

	p.ID = uuid.New()
	p.PatientNo = NewPatientNo(p.ID)
	p.RoomID = nil
	p.ComputeDerived()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create patient")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Patient", p.ID.String(), nil, p)
	return []event.Event{{
		Topic:      event.TopicPatients,
		Type:       event.TypePatientAdded,
		EntityType: "Patient",
		EntityID:   p.ID.String(),
		Data:       p,
	}}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, err
	}
	return p, nil
}

// Update applies a partial update to demographics and deposits. Category and
// room linkage are owned by the occupancy ledger and cannot change here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Patient, []event.Event, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *p

	if patch.FirstName != nil {
		if *patch.FirstName == "" {
			return nil, nil, apperr.Validation("first_name must not be empty")
		}
		p.FirstName = *patch.FirstName
	}
	if patch.MiddleName != nil {
		p.MiddleName = patch.MiddleName
	}
	if patch.LastName != nil {
		p.LastName = patch.LastName
	}
	if patch.DateOfBirth != nil {
		p.DateOfBirth = patch.DateOfBirth
	}
	if patch.Age != nil {
		p.Age = patch.Age
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.BloodGroup != nil {
		p.BloodGroup = patch.BloodGroup
	}
	if patch.Height != nil {
		p.Height = patch.Height
	}
	if patch.Weight != nil {
		p.Weight = patch.Weight
	}
	if patch.BMI != nil {
		p.BMI = patch.BMI
	}
	if patch.PhoneNo != nil {
		if *patch.PhoneNo == "" {
			return nil, nil, apperr.Validation("phone_no must not be empty")
		}
		p.PhoneNo = *patch.PhoneNo
	}
	if patch.EmailID != nil {
		p.EmailID = patch.EmailID
	}
	if patch.Address != nil {
		p.Address = patch.Address
	}
	if patch.Disease != nil {
		p.Disease = patch.Disease
	}
	if patch.DepositedAmount != nil {
		if *patch.DepositedAmount < 0 {
			return nil, nil, apperr.Validation("deposited_amount must not be negative")
		}
		p.DepositedAmount = *patch.DepositedAmount
	}
	p.ComputeDerived()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "update patient")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Patient", p.ID.String(), &prev, p)
	return p, []event.Event{{
		Topic:      event.TopicPatients,
		Type:       event.TypePatientUpdated,
		EntityType: "Patient",
		EntityID:   p.ID.String(),
		Data:       p,
	}}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func validateNew(p *Patient) error {
	if p.FirstName == "" || p.PhoneNo == "" {
		return apperr.Validation("first_name and phone_no are required")
	}
	if p.Gender == "" {
		p.Gender = "Other"
	}
	if p.DepositedAmount < 0 {
		return apperr.Validation("deposited_amount must not be negative")
	}
	return nil
}

// Patch is a partial patient update.
type Patch struct {
	FirstName       *string    `json:"first_name"`
	MiddleName      *string    `json:"middle_name"`
	LastName        *string    `json:"last_name"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Age             *int       `json:"age"`
	Gender          *string    `json:"gender"`
	BloodGroup      *string    `json:"blood_group"`
	Height          *float64   `json:"height"`
	Weight          *float64   `json:"weight"`
	BMI             *float64   `json:"bmi"`
	PhoneNo         *string    `json:"phone_no"`
	EmailID         *string    `json:"email_id"`
	Address         *string    `json:"address"`
	Disease         *string    `json:"disease"`
	DepositedAmount *float64   `json:"deposited_amount"`
}
