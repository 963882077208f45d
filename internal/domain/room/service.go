package room

import (
	"context"

	"github.com/google/uuid"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
)

// OccupantCounter reports how many admitted patients reference a room.
// Implemented by the patient repository; declared here so the room package
// does not depend on the patient package.
type OccupantCounter interface {
	CountByRoom(ctx context.Context, roomID uuid.UUID) (int, error)
}

type Service struct {
	repo      Repository
	occupants OccupantCounter
	auditor   *audit.Recorder
}

func NewService(repo Repository, occupants OccupantCounter, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, occupants: occupants, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, rm *Room) ([]event.Event, error) {
	if rm.RoomType == "" {
		rm.RoomType = TypeNormal
	}
	if !ValidType(rm.RoomType) {
		return nil, apperr.Validation("invalid room_type: %s", rm.RoomType)
	}
	if rm.BedCountTotal <= 0 {
		rm.BedCountTotal = 1
	}
	if rm.PricePerDay < 0 {
		return nil, apperr.Validation("price_per_day must not be negative")
	}
	rm.BedCountRemaining = rm.BedCountTotal
	rm.Status = rm.DeriveStatus()

	if err := s.repo.Create(ctx, rm); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create room")
	}
	s.auditor.Record(ctx, audit.ActionCreate, "Room", rm.ID.String(), nil, rm)
	return []event.Event{{
		Topic:      event.TopicRooms,
		Type:       event.TypeRoomCreated,
		EntityType: "Room",
		EntityID:   rm.ID.String(),
		Data:       rm,
	}}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("room not found")
		}
		return nil, err
	}
	return rm, nil
}

// Update applies a partial update. Capacity counters are owned by the
// occupancy ledger; only type, rate, status (to/from maintenance) and total
// bed count may change here, and the total can never drop below the beds
// currently occupied.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Room, []event.Event, error) {
	rm, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *rm

	if patch.RoomType != nil {
		if !ValidType(*patch.RoomType) {
			return nil, nil, apperr.Validation("invalid room_type: %s", *patch.RoomType)
		}
		rm.RoomType = *patch.RoomType
	}
	if patch.PricePerDay != nil {
		if *patch.PricePerDay < 0 {
			return nil, nil, apperr.Validation("price_per_day must not be negative")
		}
		rm.PricePerDay = *patch.PricePerDay
	}
	if patch.Maintenance != nil {
		if *patch.Maintenance {
			rm.Status = StatusMaintenance
		} else if rm.Status == StatusMaintenance {
			rm.Status = StatusAvailable
		}
	}
	if patch.BedCountTotal != nil {
		occupied := rm.BedCountTotal - rm.BedCountRemaining
		if *patch.BedCountTotal < occupied {
			return nil, nil, apperr.Validation(
				"bed_count_total %d is below current occupancy %d", *patch.BedCountTotal, occupied)
		}
		rm.BedCountTotal = *patch.BedCountTotal
		rm.BedCountRemaining = rm.BedCountTotal - occupied
	}
	rm.Status = rm.DeriveStatus()

	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "update room")
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Room", rm.ID.String(), &prev, rm)
	return rm, []event.Event{{
		Topic:      event.TopicRooms,
		Type:       event.TypeRoomUpdated,
		EntityType: "Room",
		EntityID:   rm.ID.String(),
		Data:       rm,
	}}, nil
}

// Delete removes a room. A room with admitted occupants cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) ([]event.Event, error) {
	rm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	occupied, err := s.occupants.CountByRoom(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "count occupants")
	}
	if occupied > 0 {
		return nil, apperr.Validation("room has %d occupant(s); discharge them first", occupied)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "delete room")
	}
	s.auditor.Record(ctx, audit.ActionDelete, "Room", rm.ID.String(), rm, nil)
	return []event.Event{{
		Topic:      event.TopicRooms,
		Type:       event.TypeRoomDeleted,
		EntityType: "Room",
		EntityID:   rm.ID.String(),
		Data:       map[string]string{"id": rm.ID.String(), "room_no": rm.RoomNo},
	}}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Room, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Patch is a partial room update.
type Patch struct {
	RoomType      *string  `json:"room_type"`
	PricePerDay   *float64 `json:"price_per_day"`
	BedCountTotal *int     `json:"bed_count_total"`
	Maintenance   *bool    `json:"maintenance"`
}
