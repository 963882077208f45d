package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

// stubTx satisfies pgx.Tx via embedding; RunInTx only checks the context for
// its presence, so no method is ever called.
type stubTx struct{ pgx.Tx }

func txContext() context.Context {
	return db.ContextWithTx(context.Background(), stubTx{})
}

type mockRepo struct {
	bills map[uuid.UUID]*Bill
	items map[uuid.UUID][]*BillItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		bills: make(map[uuid.UUID]*Bill),
		items: make(map[uuid.UUID][]*BillItem),
	}
}

func (m *mockRepo) CreateBill(_ context.Context, b *Bill) error {
	b.ID = uuid.New()
	if b.BillNo == "" {
		b.BillNo = NewBillNo(b.ID)
	}
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockRepo) GetBillByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) GetBillForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return m.GetBillByID(ctx, id)
}

func (m *mockRepo) GetOpenByPatient(_ context.Context, patientID uuid.UUID) (*Bill, error) {
	for _, b := range m.bills {
		if b.PatientID == patientID && b.IsOpen() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) UpdateBill(_ context.Context, b *Bill) error {
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Bill, int, error) {
	var out []*Bill
	for _, b := range m.bills {
		if f.PatientID != nil && b.PatientID != *f.PatientID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *mockRepo) AddItem(_ context.Context, it *BillItem) error {
	it.ID = uuid.New()
	cp := *it
	m.items[it.BillID] = append(m.items[it.BillID], &cp)
	return nil
}

func (m *mockRepo) GetItems(_ context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return m.items[billID], nil
}

func newTestService(repo Repository, taxPct float64) *Service {
	return NewService(repo, nil, audit.NewRecorder(nil, zerolog.Nop()), taxPct)
}

func TestEnsureOpenBillCreatesOnce(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	patientID := uuid.New()

	first, err := svc.EnsureOpenBill(context.Background(), patientID)
	if err != nil {
		t.Fatalf("EnsureOpenBill: %v", err)
	}
	second, err := svc.EnsureOpenBill(context.Background(), patientID)
	if err != nil {
		t.Fatalf("EnsureOpenBill: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one open bill, got %s and %s", first.ID, second.ID)
	}
	if first.Status != StatusPending {
		t.Errorf("status = %s, want %s", first.Status, StatusPending)
	}
}

func TestAddItemRecalculates(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	ctx := txContext()

	bill, err := svc.EnsureOpenBill(ctx, uuid.New())
	if err != nil {
		t.Fatalf("EnsureOpenBill: %v", err)
	}

	b, item, _, err := svc.AddItem(ctx, bill.ID, ItemInput{
		Description: "X-Ray",
		ItemType:    ItemLabTest,
		Quantity:    2,
		UnitPrice:   450,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.Amount != 900 {
		t.Errorf("item amount = %v, want 900", item.Amount)
	}
	if b.Subtotal != 900 || b.Total != 900 || b.Balance != 900 {
		t.Errorf("aggregate not rebuilt: %+v", b)
	}
}

func TestAddItemValidation(t *testing.T) {
	svc := newTestService(newMockRepo(), 0)

	_, _, _, err := svc.AddItem(txContext(), uuid.New(), ItemInput{Quantity: 1})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("missing description: kind = %v, want validation", apperr.KindOf(err))
	}

	_, _, _, err = svc.AddItem(txContext(), uuid.New(), ItemInput{Description: "x", Quantity: 0})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("zero quantity: kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestAddItemCancelledBill(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	ctx := txContext()

	bill, _ := svc.EnsureOpenBill(ctx, uuid.New())
	bill.Status = StatusCancelled
	repo.UpdateBill(ctx, bill)

	_, _, _, err := svc.AddItem(ctx, bill.ID, ItemInput{Description: "x", Quantity: 1, UnitPrice: 10})
	if apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Errorf("kind = %v, want state mismatch", apperr.KindOf(err))
	}
}

func TestRecordPaymentLifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	ctx := txContext()

	bill, _ := svc.EnsureOpenBill(ctx, uuid.New())
	if _, _, _, err := svc.AddItem(ctx, bill.ID, ItemInput{Description: "surgery", Quantity: 1, UnitPrice: 1000}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	b, _, err := svc.RecordPayment(ctx, bill.ID, 400, "cash")
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if b.Status != StatusPartiallyPaid || b.Balance != 600 {
		t.Errorf("after partial payment: status=%s balance=%v", b.Status, b.Balance)
	}

	b, _, err = svc.RecordPayment(ctx, bill.ID, 600, "card")
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if b.Status != StatusPaid || b.Balance != 0 {
		t.Errorf("after full payment: status=%s balance=%v", b.Status, b.Balance)
	}
}

func TestRecordPaymentOverBalance(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	ctx := txContext()

	bill, _ := svc.EnsureOpenBill(ctx, uuid.New())
	svc.AddItem(ctx, bill.ID, ItemInput{Description: "consult", Quantity: 1, UnitPrice: 100})

	_, _, err := svc.RecordPayment(ctx, bill.ID, 500, "cash")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestFinalizeRoomChargesAppliesTax(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 10)
	ctx := txContext()
	patientID := uuid.New()

	bill, err := svc.FinalizeRoomCharges(ctx, patientID, "Room 101, 3 day(s)", 3, 1500)
	if err != nil {
		t.Fatalf("FinalizeRoomCharges: %v", err)
	}
	if bill.Subtotal != 4500 {
		t.Errorf("subtotal = %v, want 4500", bill.Subtotal)
	}
	if bill.Tax != 450 {
		t.Errorf("tax = %v, want 450", bill.Tax)
	}
	if bill.Total != 4950 {
		t.Errorf("total = %v, want 4950", bill.Total)
	}

	items, _ := repo.GetItems(ctx, bill.ID)
	if len(items) != 1 || items[0].ItemType != ItemRoomCharge {
		t.Fatalf("expected one room charge item, got %+v", items)
	}
	if items[0].Quantity != 3 || items[0].UnitPrice != 1500 {
		t.Errorf("item = %+v, want quantity 3 at 1500", items[0])
	}
}

func TestCancelStates(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 0)
	ctx := txContext()

	bill, _ := svc.EnsureOpenBill(ctx, uuid.New())
	b, _, err := svc.Cancel(ctx, bill.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if b.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", b.Status, StatusCancelled)
	}

	if _, _, err := svc.Cancel(ctx, bill.ID); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Errorf("double cancel: kind = %v, want state mismatch", apperr.KindOf(err))
	}
}
