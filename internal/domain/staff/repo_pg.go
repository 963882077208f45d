package staff

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, name, specialization, qualification, phone_no, email_id,
	consultation_fee, available, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialization, &d.Qualification, &d.PhoneNo,
		&d.EmailID, &d.ConsultationFee, &d.Available, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialization, qualification, phone_no,
			email_id, consultation_fee, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Specialization, d.Qualification, d.PhoneNo,
		d.EmailID, d.ConsultationFee, d.Available).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE doctors SET name=$2, specialization=$3, qualification=$4, phone_no=$5,
			email_id=$6, consultation_fee=$7, available=$8, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Specialization, d.Qualification, d.PhoneNo,
		d.EmailID, d.ConsultationFee, d.Available)
	return err
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Specialization != "" {
		where += ` AND specialization = $` + strconv.Itoa(i)
		args = append(args, f.Specialization)
		i++
	}
	if f.AvailableOnly {
		where += ` AND available`
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorCols + ` FROM doctors` + where +
		` ORDER BY name LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

type nurseRepoPG struct{ pool *pgxpool.Pool }

func NewNurseRepoPG(pool *pgxpool.Pool) NurseRepository { return &nurseRepoPG{pool: pool} }

const nurseCols = `id, name, phone_no, email_id, shift, ward, created_at, updated_at`

func scanNurse(row pgx.Row) (*Nurse, error) {
	var n Nurse
	err := row.Scan(&n.ID, &n.Name, &n.PhoneNo, &n.EmailID, &n.Shift, &n.Ward,
		&n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *nurseRepoPG) Create(ctx context.Context, n *Nurse) error {
	n.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO nurses (id, name, phone_no, email_id, shift, ward)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		n.ID, n.Name, n.PhoneNo, n.EmailID, n.Shift, n.Ward).
		Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *nurseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Nurse, error) {
	return scanNurse(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+nurseCols+` FROM nurses WHERE id = $1`, id))
}

func (r *nurseRepoPG) Update(ctx context.Context, n *Nurse) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE nurses SET name=$2, phone_no=$3, email_id=$4, shift=$5, ward=$6, updated_at=NOW()
		WHERE id = $1`,
		n.ID, n.Name, n.PhoneNo, n.EmailID, n.Shift, n.Ward)
	return err
}

func (r *nurseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM nurses WHERE id = $1`, id)
	return err
}

func (r *nurseRepoPG) List(ctx context.Context, f NurseFilter, limit, offset int) ([]*Nurse, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Shift != "" {
		where += ` AND shift = $` + strconv.Itoa(i)
		args = append(args, f.Shift)
		i++
	}
	if f.Ward != "" {
		where += ` AND ward = $` + strconv.Itoa(i)
		args = append(args, f.Ward)
		i++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM nurses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + nurseCols + ` FROM nurses` + where +
		` ORDER BY name LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Nurse
	for rows.Next() {
		n, err := scanNurse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}
