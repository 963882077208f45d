package prescription

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
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
	rx map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{rx: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	for _, med := range p.Medicines {
		med.ID = uuid.New()
		med.PrescriptionID = p.ID
	}
	m.rx[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.rx[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rx, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rx {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range m.rx {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

type onePatientRepo struct {
	patient.Repository
	p *patient.Patient
}

func (r onePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if r.p != nil && r.p.ID == id {
		return r.p, nil
	}
	return nil, pgx.ErrNoRows
}

type oneDoctorRepo struct {
	staff.DoctorRepository
	d *staff.Doctor
}

func (r oneDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*staff.Doctor, error) {
	if r.d != nil && r.d.ID == id {
		return r.d, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestService() (*Service, *patient.Patient, *staff.Doctor) {
	p := &patient.Patient{ID: uuid.New(), FirstName: "Asha", PhoneNo: "9000000001"}
	d := &staff.Doctor{ID: uuid.New(), Name: "Mehta", Specialization: "General"}
	svc := NewService(newMockRepo(), nil, onePatientRepo{p: p}, oneDoctorRepo{d: d},
		audit.NewRecorder(nil, zerolog.Nop()))
	return svc, p, d
}

func medicine(name string) *Medicine {
	return &Medicine{Name: name, Dosage: "500mg", Frequency: "twice daily"}
}

func TestCreateAssignsLineIDs(t *testing.T) {
	svc, p, d := newTestService()

	rx := &Prescription{PatientID: p.ID, DoctorID: d.ID,
		Medicines: []*Medicine{medicine("Paracetamol"), medicine("Amoxicillin")}}
	if err := svc.Create(txContext(), rx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rx.ID == uuid.Nil {
		t.Fatal("prescription id not assigned")
	}
	for _, m := range rx.Medicines {
		if m.PrescriptionID != rx.ID {
			t.Fatalf("line not linked to prescription")
		}
	}
}

func TestCreateValidation(t *testing.T) {
	svc, p, d := newTestService()

	cases := []struct {
		name string
		rx   *Prescription
		want apperr.Kind
	}{
		{"missing doctor", &Prescription{PatientID: p.ID,
			Medicines: []*Medicine{medicine("Paracetamol")}}, apperr.KindValidation},
		{"no lines", &Prescription{PatientID: p.ID, DoctorID: d.ID}, apperr.KindValidation},
		{"incomplete line", &Prescription{PatientID: p.ID, DoctorID: d.ID,
			Medicines: []*Medicine{{Name: "Paracetamol"}}}, apperr.KindValidation},
		{"unknown patient", &Prescription{PatientID: uuid.New(), DoctorID: d.ID,
			Medicines: []*Medicine{medicine("Paracetamol")}}, apperr.KindNotFound},
		{"unknown doctor", &Prescription{PatientID: p.ID, DoctorID: uuid.New(),
			Medicines: []*Medicine{medicine("Paracetamol")}}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Create(txContext(), tc.rx); apperr.KindOf(err) != tc.want {
				t.Fatalf("kind = %v, want %v", apperr.KindOf(err), tc.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	svc, p, d := newTestService()

	rx := &Prescription{PatientID: p.ID, DoctorID: d.ID,
		Medicines: []*Medicine{medicine("Paracetamol")}}
	if err := svc.Create(txContext(), rx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(txContext(), rx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(txContext(), rx.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}
