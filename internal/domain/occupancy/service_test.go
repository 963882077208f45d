package occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/billing"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/room"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

// stubTx satisfies pgx.Tx via embedding; RunInTx only checks the context for
// its presence, so no method is ever called.
type stubTx struct{ pgx.Tx }

func txContext() context.Context {
	return db.ContextWithTx(context.Background(), stubTx{})
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *patient.Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, f patient.ListFilter, limit, offset int) ([]*patient.Patient, int, error) {
	var out []*patient.Patient
	for _, p := range m.patients {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPatientRepo) CountByRoom(_ context.Context, roomID uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.patients {
		if p.IsInpatient() && *p.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (m *mockPatientRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*patient.Patient, error) {
	var out []*patient.Patient
	for _, p := range m.patients {
		if p.IsInpatient() && *p.RoomID == roomID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockRoomRepo struct {
	rooms map[uuid.UUID]*room.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[uuid.UUID]*room.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, r *room.Room) error {
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockRoomRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRoomRepo) Update(_ context.Context, r *room.Room) error {
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *mockRoomRepo) UpdateBeds(_ context.Context, r *room.Room) error {
	cur, ok := m.rooms[r.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.BedCountRemaining = r.BedCountRemaining
	cur.Status = r.Status
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rooms, id)
	return nil
}

func (m *mockRoomRepo) List(_ context.Context, f room.ListFilter, limit, offset int) ([]*room.Room, int, error) {
	var out []*room.Room
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out, len(out), nil
}

type mockBillRepo struct {
	bills map[uuid.UUID]*billing.Bill
	items map[uuid.UUID][]*billing.BillItem
}

func newMockBillRepo() *mockBillRepo {
	return &mockBillRepo{
		bills: make(map[uuid.UUID]*billing.Bill),
		items: make(map[uuid.UUID][]*billing.BillItem),
	}
}

func (m *mockBillRepo) CreateBill(_ context.Context, b *billing.Bill) error {
	b.ID = uuid.New()
	if b.BillNo == "" {
		b.BillNo = billing.NewBillNo(b.ID)
	}
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockBillRepo) GetBillByID(_ context.Context, id uuid.UUID) (*billing.Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockBillRepo) GetBillForUpdate(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return m.GetBillByID(ctx, id)
}

func (m *mockBillRepo) GetOpenByPatient(_ context.Context, patientID uuid.UUID) (*billing.Bill, error) {
	for _, b := range m.bills {
		if b.PatientID == patientID && b.IsOpen() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockBillRepo) UpdateBill(_ context.Context, b *billing.Bill) error {
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockBillRepo) List(_ context.Context, f billing.ListFilter, limit, offset int) ([]*billing.Bill, int, error) {
	var out []*billing.Bill
	for _, b := range m.bills {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *mockBillRepo) AddItem(_ context.Context, it *billing.BillItem) error {
	it.ID = uuid.New()
	cp := *it
	m.items[it.BillID] = append(m.items[it.BillID], &cp)
	return nil
}

func (m *mockBillRepo) GetItems(_ context.Context, billID uuid.UUID) ([]*billing.BillItem, error) {
	return m.items[billID], nil
}

type fixture struct {
	svc      *Service
	patients *mockPatientRepo
	rooms    *mockRoomRepo
	bills    *mockBillRepo
}

func newFixture() *fixture {
	auditor := audit.NewRecorder(nil, zerolog.Nop())
	patients := newMockPatientRepo()
	rooms := newMockRoomRepo()
	bills := newMockBillRepo()
	billSvc := billing.NewService(bills, nil, auditor, 10)
	return &fixture{
		svc:      NewService(nil, patients, rooms, billSvc, auditor),
		patients: patients,
		rooms:    rooms,
		bills:    bills,
	}
}

func (f *fixture) addRoom(t *testing.T, total int, price float64) *room.Room {
	t.Helper()
	rm := &room.Room{
		ID:                uuid.New(),
		RoomType:          room.TypeNormal,
		Status:            room.StatusAvailable,
		PricePerDay:       price,
		BedCountTotal:     total,
		BedCountRemaining: total,
	}
	rm.RoomNo = room.NewRoomNo(rm.ID)
	if err := f.rooms.Create(context.Background(), rm); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return rm
}

func (f *fixture) admit(t *testing.T, roomID uuid.UUID, admittedAt time.Time) *patient.Patient {
	t.Helper()
	p := &patient.Patient{FirstName: "Asha", PhoneNo: "9000000001", Gender: "Female"}
	res, err := f.svc.Allocate(txContext(), p, roomID, admittedAt)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	return res.Patient
}

func mustRoom(t *testing.T, f *fixture, id uuid.UUID) *room.Room {
	t.Helper()
	rm, err := f.rooms.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("room %s: %v", id, err)
	}
	return rm
}

func TestAllocateDecrementsBed(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)

	p := f.admit(t, rm.ID, time.Now())

	if p.Category != patient.CategoryInPatient {
		t.Fatalf("category = %q, want InPatient", p.Category)
	}
	if p.RoomID == nil || *p.RoomID != rm.ID {
		t.Fatalf("room link not set")
	}
	if p.PatientNo == "" {
		t.Fatal("patient_no not assigned")
	}
	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 1 {
		t.Fatalf("beds remaining = %d, want 1", got.BedCountRemaining)
	}
	if got.Status != room.StatusPartiallyOccupied {
		t.Fatalf("status = %q, want PartiallyOccupied", got.Status)
	}
}

func TestAllocateStatusProgression(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)

	f.admit(t, rm.ID, time.Now())
	if got := mustRoom(t, f, rm.ID); got.Status != room.StatusPartiallyOccupied {
		t.Fatalf("after first admission status = %q", got.Status)
	}
	f.admit(t, rm.ID, time.Now())
	if got := mustRoom(t, f, rm.ID); got.Status != room.StatusFull {
		t.Fatalf("after second admission status = %q", got.Status)
	}
}

func TestAllocateFullRoomLeavesStateUntouched(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 1500)
	f.admit(t, rm.ID, time.Now())

	p := &patient.Patient{FirstName: "Ravi", PhoneNo: "9000000002"}
	_, err := f.svc.Allocate(txContext(), p, rm.ID, time.Now())
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want Unavailable", apperr.KindOf(err))
	}

	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 0 || got.Status != room.StatusFull {
		t.Fatalf("room mutated on rejected allocation: %d beds, status %q",
			got.BedCountRemaining, got.Status)
	}
	if len(f.patients.patients) != 1 {
		t.Fatalf("patient count = %d, want 1", len(f.patients.patients))
	}
}

func TestAllocateMaintenanceRoomRejected(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)
	rm.Status = room.StatusMaintenance
	f.rooms.Update(context.Background(), rm)

	p := &patient.Patient{FirstName: "Ravi", PhoneNo: "9000000002"}
	_, err := f.svc.Allocate(txContext(), p, rm.ID, time.Now())
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want Unavailable", apperr.KindOf(err))
	}
}

func TestAllocateUnknownRoom(t *testing.T) {
	f := newFixture()
	p := &patient.Patient{FirstName: "Ravi", PhoneNo: "9000000002"}
	_, err := f.svc.Allocate(txContext(), p, uuid.New(), time.Now())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestAllocateValidation(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 1500)
	p := &patient.Patient{FirstName: "", PhoneNo: "9000000002"}
	_, err := f.svc.Allocate(txContext(), p, rm.ID, time.Now())
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}
}

func TestDischargeRestoresBedAndBills(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)
	admitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := f.admit(t, rm.ID, admitted)

	res, err := f.svc.Discharge(txContext(), p.ID, admitted.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}

	if res.DaysStayed != 3 {
		t.Fatalf("days stayed = %d, want 3", res.DaysStayed)
	}
	if res.RoomCharges != 4500 {
		t.Fatalf("room charges = %v, want 4500", res.RoomCharges)
	}
	if res.Patient.Category != patient.CategoryDischarged {
		t.Fatalf("category = %q, want Discharged", res.Patient.Category)
	}
	if res.Patient.RoomID != nil {
		t.Fatal("room link not severed on discharge")
	}
	if res.Patient.DischargedAt == nil {
		t.Fatal("discharged_at not set")
	}

	// 4500 room charges plus 10% tax.
	bill, err := f.bills.GetBillByID(context.Background(), res.BillID)
	if err != nil {
		t.Fatalf("bill: %v", err)
	}
	if bill.Subtotal != 4500 || bill.Tax != 450 || bill.Total != 4950 {
		t.Fatalf("bill aggregate = %v/%v/%v, want 4500/450/4950",
			bill.Subtotal, bill.Tax, bill.Total)
	}
	if res.Patient.TotalAmount != bill.Total {
		t.Fatalf("patient total = %v, want %v", res.Patient.TotalAmount, bill.Total)
	}

	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 2 {
		t.Fatalf("beds remaining = %d, want 2", got.BedCountRemaining)
	}
	if got.Status != room.StatusAvailable {
		t.Fatalf("status = %q, want Available", got.Status)
	}
}

func TestDischargeSameDayBillsOneDay(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 2000)
	admitted := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p := f.admit(t, rm.ID, admitted)

	res, err := f.svc.Discharge(txContext(), p.ID, admitted.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if res.DaysStayed != 1 {
		t.Fatalf("days stayed = %d, want 1", res.DaysStayed)
	}
	if res.RoomCharges != 2000 {
		t.Fatalf("room charges = %v, want 2000", res.RoomCharges)
	}
}

func TestDischargeNotAdmitted(t *testing.T) {
	f := newFixture()
	p := &patient.Patient{ID: uuid.New(), FirstName: "Meera", PhoneNo: "9000000003",
		Category: patient.CategoryOutPatient}
	p.PatientNo = patient.NewPatientNo(p.ID)
	f.patients.Create(context.Background(), p)

	_, err := f.svc.Discharge(txContext(), p.ID, time.Now())
	if apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
}

func TestDischargeBeforeAdmission(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 1500)
	admitted := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	p := f.admit(t, rm.ID, admitted)

	_, err := f.svc.Discharge(txContext(), p.ID, admitted.Add(-24*time.Hour))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}
	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 0 {
		t.Fatalf("beds remaining = %d, want 0", got.BedCountRemaining)
	}
}

func TestDischargeClampsOverfullCounter(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)
	p := f.admit(t, rm.ID, time.Now())

	// Inconsistent data: the counter says every bed is free even though a
	// patient still references the room. Discharge must repair, not fail.
	rm.BedCountRemaining = rm.BedCountTotal
	rm.Status = room.StatusAvailable
	f.rooms.Update(context.Background(), rm)

	res, err := f.svc.Discharge(txContext(), p.ID, time.Now())
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if res.Room.BedCountRemaining != rm.BedCountTotal {
		t.Fatalf("beds remaining = %d, want clamped at %d",
			res.Room.BedCountRemaining, rm.BedCountTotal)
	}
	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 2 || got.Status != room.StatusAvailable {
		t.Fatalf("room %d beds, status %q", got.BedCountRemaining, got.Status)
	}
}

func TestReassignMovesBed(t *testing.T) {
	f := newFixture()
	oldRm := f.addRoom(t, 1, 1500)
	newRm := f.addRoom(t, 2, 3500)
	p := f.admit(t, oldRm.ID, time.Now())

	res, err := f.svc.Reassign(txContext(), p.ID, newRm.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if *res.Patient.RoomID != newRm.ID {
		t.Fatalf("patient room = %s, want %s", res.Patient.RoomID, newRm.ID)
	}

	gotOld := mustRoom(t, f, oldRm.ID)
	if gotOld.BedCountRemaining != 1 || gotOld.Status != room.StatusAvailable {
		t.Fatalf("old room %d beds, status %q", gotOld.BedCountRemaining, gotOld.Status)
	}
	gotNew := mustRoom(t, f, newRm.ID)
	if gotNew.BedCountRemaining != 1 || gotNew.Status != room.StatusPartiallyOccupied {
		t.Fatalf("new room %d beds, status %q", gotNew.BedCountRemaining, gotNew.Status)
	}
}

func TestReassignRoomlessPatientAdmits(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)

	p := &patient.Patient{ID: uuid.New(), FirstName: "Meera", PhoneNo: "9000000003",
		Category: patient.CategoryOutPatient}
	p.PatientNo = patient.NewPatientNo(p.ID)
	f.patients.Create(context.Background(), p)

	res, err := f.svc.Reassign(txContext(), p.ID, rm.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if res.Patient.Category != patient.CategoryInPatient {
		t.Fatalf("category = %q, want InPatient", res.Patient.Category)
	}
	if res.Patient.RoomID == nil || *res.Patient.RoomID != rm.ID {
		t.Fatal("room link not set")
	}
	if res.Patient.AdmittedAt == nil {
		t.Fatal("admitted_at not set")
	}
	if res.OldRoom != nil {
		t.Fatalf("old room = %v, want none", res.OldRoom)
	}
	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 1 || got.Status != room.StatusPartiallyOccupied {
		t.Fatalf("room %d beds, status %q", got.BedCountRemaining, got.Status)
	}
}

func TestReassignRoomlessPatientFullRoom(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 1500)
	f.admit(t, rm.ID, time.Now())

	p := &patient.Patient{ID: uuid.New(), FirstName: "Meera", PhoneNo: "9000000003",
		Category: patient.CategoryOutPatient}
	p.PatientNo = patient.NewPatientNo(p.ID)
	f.patients.Create(context.Background(), p)

	_, err := f.svc.Reassign(txContext(), p.ID, rm.ID)
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want Unavailable", apperr.KindOf(err))
	}
	got, _ := f.patients.GetByID(context.Background(), p.ID)
	if got.Category != patient.CategoryOutPatient || got.RoomID != nil {
		t.Fatalf("patient mutated on rejected admission: %q", got.Category)
	}
}

func TestReassignSameRoom(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 2, 1500)
	p := f.admit(t, rm.ID, time.Now())

	_, err := f.svc.Reassign(txContext(), p.ID, rm.ID)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}
}

func TestReassignFullTarget(t *testing.T) {
	f := newFixture()
	oldRm := f.addRoom(t, 1, 1500)
	fullRm := f.addRoom(t, 1, 6000)
	f.admit(t, fullRm.ID, time.Now())
	p := f.admit(t, oldRm.ID, time.Now())

	_, err := f.svc.Reassign(txContext(), p.ID, fullRm.ID)
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want Unavailable", apperr.KindOf(err))
	}
	got := mustRoom(t, f, oldRm.ID)
	if got.BedCountRemaining != 0 {
		t.Fatalf("old room beds = %d, want 0", got.BedCountRemaining)
	}
}

func TestDeleteAdmittedPatientReleasesBed(t *testing.T) {
	f := newFixture()
	rm := f.addRoom(t, 1, 1500)
	p := f.admit(t, rm.ID, time.Now())

	events, err := f.svc.DeletePatient(txContext(), p.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want patient deletion plus room update", len(events))
	}
	got := mustRoom(t, f, rm.ID)
	if got.BedCountRemaining != 1 || got.Status != room.StatusAvailable {
		t.Fatalf("room %d beds, status %q", got.BedCountRemaining, got.Status)
	}
	if _, err := f.patients.GetByID(context.Background(), p.ID); err == nil {
		t.Fatal("patient still present after delete")
	}
}

func TestDaysStayed(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		out  time.Time
		want int
	}{
		{"same day", base.Add(5 * time.Hour), 1},
		{"next morning", base.Add(23 * time.Hour), 2},
		{"two nights", base.Add(48 * time.Hour), 3},
		{"clock skew", base.Add(-time.Hour), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysStayed(base, tc.out); got != tc.want {
				t.Fatalf("DaysStayed = %d, want %d", got, tc.want)
			}
		})
	}
}
