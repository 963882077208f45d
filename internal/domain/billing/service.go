package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

type Service struct {
	repo    Repository
	pool    *pgxpool.Pool
	auditor *audit.Recorder
	// taxPct is applied to room charges when a stay is finalized.
	taxPct float64
}

func NewService(repo Repository, pool *pgxpool.Pool, auditor *audit.Recorder, taxPct float64) *Service {
	return &Service{repo: repo, pool: pool, auditor: auditor, taxPct: taxPct}
}

// ItemInput is a line item to append to a bill.
type ItemInput struct {
	Description string  `json:"description"`
	ItemType    string  `json:"item_type"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (in *ItemInput) validate() error {
	if in.Description == "" {
		return apperr.Validation("description is required")
	}
	if in.ItemType == "" {
		in.ItemType = ItemOther
	}
	if !ValidItemType(in.ItemType) {
		return apperr.Validation("invalid item_type: %s", in.ItemType)
	}
	if in.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	if in.UnitPrice < 0 {
		return apperr.Validation("unit_price must not be negative")
	}
	return nil
}

// EnsureOpenBill returns the patient's open bill, creating a fresh Pending
// one when none exists.
func (s *Service) EnsureOpenBill(ctx context.Context, patientID uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetOpenByPatient(ctx, patientID)
	if err == nil {
		return b, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, apperr.Wrap(apperr.KindInternal, err, "load open bill")
	}
	b = &Bill{PatientID: patientID, Status: StatusPending}
	if err := s.repo.CreateBill(ctx, b); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create bill")
	}
	return b, nil
}

// AddItem appends a line item to the bill and rebuilds the aggregate, all
// under a row lock on the bill.
func (s *Service) AddItem(ctx context.Context, billID uuid.UUID, in ItemInput) (*Bill, *BillItem, []event.Event, error) {
	if err := in.validate(); err != nil {
		return nil, nil, nil, err
	}

	var (
		bill *Bill
		item *BillItem
	)
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.lockBill(ctx, billID)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return apperr.StateMismatch("bill %s is cancelled", b.BillNo)
		}
		it, err := s.appendItem(ctx, b, in)
		if err != nil {
			return err
		}
		bill, item = b, it
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Bill", bill.ID.String(), nil, bill)
	return bill, item, billEvents(bill), nil
}

// AddItemForPatient appends a line item to the patient's open bill, opening
// one if needed. Used by the appointment and prescription flows where only
// the patient is known.
func (s *Service) AddItemForPatient(ctx context.Context, patientID uuid.UUID, in ItemInput) (*Bill, []event.Event, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var bill *Bill
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.EnsureOpenBill(ctx, patientID)
		if err != nil {
			return err
		}
		b, err = s.lockBill(ctx, b.ID)
		if err != nil {
			return err
		}
		if _, err := s.appendItem(ctx, b, in); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return bill, billEvents(bill), nil
}

// FinalizeRoomCharges posts the room charges for a completed stay onto the
// patient's open bill and applies the configured tax rate to them. Called by
// the occupancy ledger inside the discharge transaction.
func (s *Service) FinalizeRoomCharges(ctx context.Context, patientID uuid.UUID, description string, days int, pricePerDay float64) (*Bill, error) {
	var bill *Bill
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.EnsureOpenBill(ctx, patientID)
		if err != nil {
			return err
		}
		b, err = s.lockBill(ctx, b.ID)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return apperr.StateMismatch("bill %s is cancelled", b.BillNo)
		}
		charges := float64(days) * pricePerDay
		b.Tax += charges * s.taxPct / 100
		if _, err := s.appendItem(ctx, b, ItemInput{
			Description: description,
			ItemType:    ItemRoomCharge,
			Quantity:    days,
			UnitPrice:   pricePerDay,
		}); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// RecordPayment applies a payment against the bill's balance. The method is
// free text ("cash", "card", ...) and lands in the audit trail only.
func (s *Service) RecordPayment(ctx context.Context, billID uuid.UUID, amount float64, method string) (*Bill, []event.Event, error) {
	if amount <= 0 {
		return nil, nil, apperr.Validation("amount must be positive")
	}

	var bill *Bill
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.lockBill(ctx, billID)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return apperr.StateMismatch("bill %s is cancelled", b.BillNo)
		}
		if amount > b.Balance {
			return apperr.Validation("payment %.2f exceeds balance %.2f", amount, b.Balance)
		}
		b.PaidAmount += amount
		if err := s.recalc(ctx, b); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.auditor.Record(ctx, audit.ActionPayment, "Bill", bill.ID.String(), nil,
		map[string]interface{}{"amount": amount, "method": method, "bill": bill})
	return bill, billEvents(bill), nil
}

// UpdateCharges adjusts tax and discount and rebuilds the aggregate.
func (s *Service) UpdateCharges(ctx context.Context, billID uuid.UUID, tax, discount *float64) (*Bill, []event.Event, error) {
	var bill *Bill
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.lockBill(ctx, billID)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return apperr.StateMismatch("bill %s is cancelled", b.BillNo)
		}
		if tax != nil {
			if *tax < 0 {
				return apperr.Validation("tax must not be negative")
			}
			b.Tax = *tax
		}
		if discount != nil {
			if *discount < 0 {
				return apperr.Validation("discount must not be negative")
			}
			b.Discount = *discount
		}
		if err := s.recalc(ctx, b); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return bill, billEvents(bill), nil
}

// Cancel freezes the bill. A settled bill cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, billID uuid.UUID) (*Bill, []event.Event, error) {
	var bill *Bill
	err := db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.lockBill(ctx, billID)
		if err != nil {
			return err
		}
		switch b.Status {
		case StatusCancelled:
			return apperr.StateMismatch("bill %s is already cancelled", b.BillNo)
		case StatusPaid:
			return apperr.StateMismatch("bill %s is settled", b.BillNo)
		}
		b.Status = StatusCancelled
		if err := s.repo.UpdateBill(ctx, b); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "update bill")
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.auditor.Record(ctx, audit.ActionUpdate, "Bill", bill.ID.String(), nil, bill)
	return bill, billEvents(bill), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, []*BillItem, error) {
	b, err := s.repo.GetBillByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil, apperr.NotFound("bill not found")
		}
		return nil, nil, err
	}
	items, err := s.repo.GetItems(ctx, id)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "load bill items")
	}
	// Recalculate is idempotent; reads never serve a stale aggregate even if
	// a stored row predates a rule change.
	b.Recalculate(items)
	return b, items, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Bill, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) lockBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetBillForUpdate(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("bill not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "lock bill")
	}
	return b, nil
}

func (s *Service) appendItem(ctx context.Context, b *Bill, in ItemInput) (*BillItem, error) {
	it := &BillItem{
		BillID:      b.ID,
		Description: in.Description,
		ItemType:    in.ItemType,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Amount:      float64(in.Quantity) * in.UnitPrice,
	}
	if err := s.repo.AddItem(ctx, it); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "add bill item")
	}
	return it, s.recalc(ctx, b)
}

func (s *Service) recalc(ctx context.Context, b *Bill) error {
	items, err := s.repo.GetItems(ctx, b.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "load bill items")
	}
	b.Recalculate(items)
	if err := s.repo.UpdateBill(ctx, b); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "update bill")
	}
	return nil
}

func billEvents(b *Bill) []event.Event {
	return []event.Event{{
		Topic:      event.TopicBills,
		Type:       event.TypeBillUpdated,
		EntityType: "Bill",
		EntityID:   b.ID.String(),
		Data:       b,
	}}
}
