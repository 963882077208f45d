package patient

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

const patientCols = `id, patient_no, first_name, middle_name, last_name, name,
	date_of_birth, age, gender, blood_group, height, weight, bmi,
	phone_no, email_id, address, disease, category,
	room_id, admitted_at, discharged_at,
	deposited_amount, total_amount, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientNo, &p.FirstName, &p.MiddleName, &p.LastName, &p.Name,
		&p.DateOfBirth, &p.Age, &p.Gender, &p.BloodGroup, &p.Height, &p.Weight, &p.BMI,
		&p.PhoneNo, &p.EmailID, &p.Address, &p.Disease, &p.Category,
		&p.RoomID, &p.AdmittedAt, &p.DischargedAt,
		&p.DepositedAmount, &p.TotalAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ComputeDerived()
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.PatientNo == "" {
		p.PatientNo = NewPatientNo(p.ID)
	}
	p.ComputeDerived()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, patient_no, first_name, middle_name, last_name, name,
			date_of_birth, age, gender, blood_group, height, weight, bmi,
			phone_no, email_id, address, disease, category,
			room_id, admitted_at, discharged_at, deposited_amount, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientNo, p.FirstName, p.MiddleName, p.LastName, p.Name,
		p.DateOfBirth, p.Age, p.Gender, p.BloodGroup, p.Height, p.Weight, p.BMI,
		p.PhoneNo, p.EmailID, p.Address, p.Disease, p.Category,
		p.RoomID, p.AdmittedAt, p.DischargedAt, p.DepositedAmount, p.TotalAmount).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	p.ComputeDerived()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$2, middle_name=$3, last_name=$4, name=$5,
			date_of_birth=$6, age=$7, gender=$8, blood_group=$9,
			height=$10, weight=$11, bmi=$12,
			phone_no=$13, email_id=$14, address=$15, disease=$16, category=$17,
			room_id=$18, admitted_at=$19, discharged_at=$20,
			deposited_amount=$21, total_amount=$22, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.Name,
		p.DateOfBirth, p.Age, p.Gender, p.BloodGroup,
		p.Height, p.Weight, p.BMI,
		p.PhoneNo, p.EmailID, p.Address, p.Disease, p.Category,
		p.RoomID, p.AdmittedAt, p.DischargedAt,
		p.DepositedAmount, p.TotalAmount)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Category != "" {
		where += ` AND category = $` + strconv.Itoa(i)
		args = append(args, f.Category)
		i++
	}
	if f.RoomID != nil {
		where += ` AND room_id = $` + strconv.Itoa(i)
		args = append(args, *f.RoomID)
		i++
	}
	if f.Search != "" {
		where += ` AND (name ILIKE $` + strconv.Itoa(i) + ` OR phone_no ILIKE $` + strconv.Itoa(i) + `)`
		args = append(args, "%"+f.Search+"%")
		i++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patients` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CountByRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE room_id = $1 AND category = $2`,
		roomID, CategoryInPatient).Scan(&n)
	return n, err
}

func (r *repoPG) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*Patient, error) {
	items, _, err := r.List(ctx, ListFilter{Category: CategoryInPatient, RoomID: &roomID}, 100, 0)
	return items, err
}
