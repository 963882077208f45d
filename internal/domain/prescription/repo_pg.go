package prescription

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rxCols = `id, patient_id, doctor_id, notes, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Notes, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	if err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, notes)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		p.ID, p.PatientID, p.DoctorID, p.Notes).
		Scan(&p.CreatedAt); err != nil {
		return err
	}
	for _, m := range p.Medicines {
		m.ID = uuid.New()
		m.PrescriptionID = p.ID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_medicines (id, prescription_id, name, dosage,
				frequency, duration, instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.ID, m.PrescriptionID, m.Name, m.Dosage,
			m.Frequency, m.Duration, m.Instructions); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	p.Medicines, err = r.medicines(ctx, id)
	return p, err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_medicines WHERE prescription_id = $1`, id); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.PatientID != nil {
		where += ` AND patient_id = $` + strconv.Itoa(i)
		args = append(args, *f.PatientID)
		i++
	}
	if f.DoctorID != nil {
		where += ` AND doctor_id = $` + strconv.Itoa(i)
		args = append(args, *f.DoctorID)
		i++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + rxCols + ` FROM prescriptions` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	items, _, err := r.List(ctx, ListFilter{PatientID: &patientID}, 100, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		if p.Medicines, err = r.medicines(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *repoPG) medicines(ctx context.Context, prescriptionID uuid.UUID) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, name, dosage, frequency, duration, instructions
		FROM prescription_medicines WHERE prescription_id = $1 ORDER BY name`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Dosage,
			&m.Frequency, &m.Duration, &m.Instructions); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
