package ambulance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

type Service struct {
	repo    Repository
	pool    *pgxpool.Pool
	auditor *audit.Recorder
}

func NewService(repo Repository, pool *pgxpool.Pool, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, pool: pool, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, a *Ambulance) error {
	if a.VehicleNo == "" || a.DriverName == "" || a.DriverPhone == "" {
		return apperr.Validation("vehicle_no, driver_name and driver_phone are required")
	}
	if a.Status == "" {
		a.Status = StatusAvailable
	}
	if !ValidStatus(a.Status) {
		return apperr.Validation("invalid status: %s", a.Status)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create ambulance")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Ambulance", a.ID.String(), nil, a)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("ambulance not found")
		}
		return nil, err
	}
	return a, nil
}

// Dispatch sends an available ambulance out. The row is locked so two
// dispatchers cannot claim the same vehicle.
func (s *Service) Dispatch(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return s.transition(ctx, id, StatusAvailable, StatusOnCall, audit.ActionDispatch)
}

// Release returns an on-call ambulance to the available fleet.
func (s *Service) Release(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return s.transition(ctx, id, StatusOnCall, StatusAvailable, audit.ActionUpdate)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to, action string) (*Ambulance, error) {
	var amb *Ambulance
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			if apperr.IsNotFound(err) {
				return apperr.NotFound("ambulance not found")
			}
			return apperr.Wrap(apperr.KindInternal, err, "lock ambulance")
		}
		if a.Status != from {
			return apperr.StateMismatch("ambulance %s is %s", a.VehicleNo, a.Status)
		}
		a.Status = to
		if err := s.repo.Update(ctx, a); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update ambulance")
		}
		amb = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, action, "Ambulance", amb.ID.String(), nil, amb)
	return amb, nil
}

// Update patches driver and vehicle details, and may force a status for
// maintenance windows.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Ambulance, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *a

	if patch.VehicleNo != nil {
		if *patch.VehicleNo == "" {
			return nil, apperr.Validation("vehicle_no must not be empty")
		}
		a.VehicleNo = *patch.VehicleNo
	}
	if patch.DriverName != nil {
		a.DriverName = *patch.DriverName
	}
	if patch.DriverPhone != nil {
		a.DriverPhone = *patch.DriverPhone
	}
	if patch.Status != nil {
		if !ValidStatus(*patch.Status) {
			return nil, apperr.Validation("invalid status: %s", *patch.Status)
		}
		a.Status = *patch.Status
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "update ambulance")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Ambulance", a.ID.String(), &prev, a)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusOnCall {
		return apperr.StateMismatch("ambulance %s is on call", a.VehicleNo)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete ambulance")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Ambulance", a.ID.String(), a, nil)
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Ambulance, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Patch is a partial ambulance update.
type Patch struct {
	VehicleNo   *string `json:"vehicle_no"`
	DriverName  *string `json:"driver_name"`
	DriverPhone *string `json:"driver_phone"`
	Status      *string `json:"status"`
}
