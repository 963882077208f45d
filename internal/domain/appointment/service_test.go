package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/billing"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/staff"
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
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *patient.Patient) error { return nil }
func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }

func (m *mockPatientRepo) List(_ context.Context, f patient.ListFilter, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) CountByRoom(_ context.Context, roomID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockPatientRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*patient.Patient, error) {
	return nil, nil
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*staff.Doctor
}

func (m *mockDoctorRepo) Create(_ context.Context, d *staff.Doctor) error {
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*staff.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, d *staff.Doctor) error { return nil }
func (m *mockDoctorRepo) Delete(_ context.Context, id uuid.UUID) error    { return nil }

func (m *mockDoctorRepo) List(_ context.Context, f staff.DoctorFilter, limit, offset int) ([]*staff.Doctor, int, error) {
	return nil, 0, nil
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
	return nil, 0, nil
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
	svc     *Service
	repo    *mockRepo
	bills   *mockBillRepo
	doctor  *staff.Doctor
	patient *patient.Patient
}

func newFixture() *fixture {
	auditor := audit.NewRecorder(nil, zerolog.Nop())
	repo := newMockRepo()
	bills := newMockBillRepo()

	p := &patient.Patient{ID: uuid.New(), FirstName: "Asha", PhoneNo: "9000000001",
		Category: patient.CategoryOutPatient}
	p.PatientNo = patient.NewPatientNo(p.ID)
	patients := &mockPatientRepo{patients: map[uuid.UUID]*patient.Patient{p.ID: p}}

	doc := &staff.Doctor{ID: uuid.New(), Name: "Mehta", Specialization: "Cardiology",
		ConsultationFee: 800, Available: true}
	doctors := &mockDoctorRepo{doctors: map[uuid.UUID]*staff.Doctor{doc.ID: doc}}

	billSvc := billing.NewService(bills, nil, auditor, 0)
	return &fixture{
		svc:     NewService(repo, nil, patients, doctors, billSvc, auditor),
		repo:    repo,
		bills:   bills,
		doctor:  doc,
		patient: p,
	}
}

func (f *fixture) schedule(t *testing.T) *Appointment {
	t.Helper()
	a := &Appointment{PatientID: f.patient.ID, DoctorID: f.doctor.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour)}
	if _, err := f.svc.Schedule(txContext(), a); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return a
}

func TestSchedule(t *testing.T) {
	f := newFixture()
	a := f.schedule(t)
	if a.Status != StatusScheduled {
		t.Fatalf("status = %q, want Scheduled", a.Status)
	}
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Schedule(txContext(), &Appointment{DoctorID: f.doctor.ID,
		ScheduledAt: time.Now()})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}

	_, err = f.svc.Schedule(txContext(), &Appointment{PatientID: uuid.New(),
		DoctorID: f.doctor.ID, ScheduledAt: time.Now()})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestScheduleUnavailableDoctor(t *testing.T) {
	f := newFixture()
	f.doctor.Available = false

	_, err := f.svc.Schedule(txContext(), &Appointment{PatientID: f.patient.ID,
		DoctorID: f.doctor.ID, ScheduledAt: time.Now()})
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %v, want Unavailable", apperr.KindOf(err))
	}
}

func TestCompletePostsConsultation(t *testing.T) {
	f := newFixture()
	a := f.schedule(t)

	got, bill, events, err := f.svc.Complete(txContext(), a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want Completed", got.Status)
	}
	if bill == nil {
		t.Fatal("no bill returned")
	}
	if bill.Subtotal != 800 || bill.Total != 800 {
		t.Fatalf("bill = %v/%v, want 800/800", bill.Subtotal, bill.Total)
	}
	items, _ := f.bills.GetItems(context.Background(), bill.ID)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].ItemType != billing.ItemConsultation {
		t.Fatalf("item type = %q, want Consultation", items[0].ItemType)
	}
	if !strings.Contains(items[0].Description, "Dr. Mehta") {
		t.Fatalf("description = %q", items[0].Description)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want appointment plus bill", len(events))
	}
}

func TestCompleteFreeConsultationSkipsBill(t *testing.T) {
	f := newFixture()
	f.doctor.ConsultationFee = 0
	a := f.schedule(t)

	_, bill, _, err := f.svc.Complete(txContext(), a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if bill != nil {
		t.Fatal("bill created for free consultation")
	}
	if len(f.bills.bills) != 0 {
		t.Fatalf("bills = %d, want 0", len(f.bills.bills))
	}
}

func TestTerminalStatesFrozen(t *testing.T) {
	f := newFixture()
	a := f.schedule(t)
	if _, _, err := f.svc.Transition(txContext(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, _, _, err := f.svc.Complete(txContext(), a.ID); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
	if _, _, err := f.svc.Transition(txContext(), a.ID, StatusNoShow); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
	later := time.Now().Add(48 * time.Hour)
	if _, _, err := f.svc.Reschedule(txContext(), a.ID, &later, nil); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
}

func TestTransitionInvalidStatus(t *testing.T) {
	f := newFixture()
	a := f.schedule(t)
	if _, _, err := f.svc.Transition(txContext(), a.ID, StatusCompleted); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}
}

func TestReschedule(t *testing.T) {
	f := newFixture()
	a := f.schedule(t)

	when := time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)
	reason := "follow-up"
	got, _, err := f.svc.Reschedule(txContext(), a.ID, &when, &reason)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !got.ScheduledAt.Equal(when) {
		t.Fatalf("scheduled_at = %v, want %v", got.ScheduledAt, when)
	}
	if got.Reason == nil || *got.Reason != "follow-up" {
		t.Fatalf("reason = %v", got.Reason)
	}
}
