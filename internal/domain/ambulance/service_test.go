package ambulance

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
	fleet map[uuid.UUID]*Ambulance
}

func newMockRepo() *mockRepo {
	return &mockRepo{fleet: make(map[uuid.UUID]*Ambulance)}
}

func (m *mockRepo) Create(_ context.Context, a *Ambulance) error {
	a.ID = uuid.New()
	cp := *a
	m.fleet[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Ambulance, error) {
	a, ok := m.fleet[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) Update(_ context.Context, a *Ambulance) error {
	cp := *a
	m.fleet[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.fleet, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Ambulance, int, error) {
	var out []*Ambulance
	for _, a := range m.fleet {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, nil, audit.NewRecorder(nil, zerolog.Nop())), repo
}

func seedAmbulance(t *testing.T, svc *Service) *Ambulance {
	t.Helper()
	a := &Ambulance{VehicleNo: "KA-01-1234", DriverName: "Kumar", DriverPhone: "9000000020"}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	return a
}

func TestCreateDefaultsAvailable(t *testing.T) {
	svc, _ := newTestService()
	a := seedAmbulance(t, svc)
	if a.Status != StatusAvailable {
		t.Fatalf("status = %q, want Available", a.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Create(context.Background(), &Ambulance{VehicleNo: "KA-01-1234"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want Validation", apperr.KindOf(err))
	}
}

func TestDispatchRelease(t *testing.T) {
	svc, _ := newTestService()
	a := seedAmbulance(t, svc)

	got, err := svc.Dispatch(txContext(), a.ID)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.Status != StatusOnCall {
		t.Fatalf("status = %q, want OnCall", got.Status)
	}

	got, err = svc.Release(txContext(), a.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got.Status != StatusAvailable {
		t.Fatalf("status = %q, want Available", got.Status)
	}
}

func TestDispatchWrongState(t *testing.T) {
	svc, _ := newTestService()
	a := seedAmbulance(t, svc)

	if _, err := svc.Dispatch(txContext(), a.ID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	// Second dispatch finds the vehicle already out.
	if _, err := svc.Dispatch(txContext(), a.ID); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
}

func TestReleaseIdleAmbulance(t *testing.T) {
	svc, _ := newTestService()
	a := seedAmbulance(t, svc)
	if _, err := svc.Release(txContext(), a.ID); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
}

func TestDeleteOnCallBlocked(t *testing.T) {
	svc, repo := newTestService()
	a := seedAmbulance(t, svc)
	svc.Dispatch(txContext(), a.ID)

	if err := svc.Delete(context.Background(), a.ID); apperr.KindOf(err) != apperr.KindStateMismatch {
		t.Fatalf("kind = %v, want StateMismatch", apperr.KindOf(err))
	}
	if _, err := repo.GetByID(context.Background(), a.ID); err != nil {
		t.Fatal("ambulance deleted while on call")
	}
}

func TestDispatchUnknown(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Dispatch(txContext(), uuid.New()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want NotFound", apperr.KindOf(err))
	}
}
