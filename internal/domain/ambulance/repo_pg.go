package ambulance

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

const ambulanceCols = `id, vehicle_no, driver_name, driver_phone, status, created_at, updated_at`

func scanAmbulance(row pgx.Row) (*Ambulance, error) {
	var a Ambulance
	err := row.Scan(&a.ID, &a.VehicleNo, &a.DriverName, &a.DriverPhone, &a.Status,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Ambulance) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ambulances (id, vehicle_no, driver_name, driver_phone, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		a.ID, a.VehicleNo, a.DriverName, a.DriverPhone, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return scanAmbulance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ambulanceCols+` FROM ambulances WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return scanAmbulance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ambulanceCols+` FROM ambulances WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Ambulance) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE ambulances SET vehicle_no=$2, driver_name=$3, driver_phone=$4,
			status=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.VehicleNo, a.DriverName, a.DriverPhone, a.Status)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM ambulances WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Ambulance, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Status != "" {
		where += ` AND status = $` + strconv.Itoa(i)
		args = append(args, f.Status)
		i++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ambulances`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + ambulanceCols + ` FROM ambulances` + where +
		` ORDER BY vehicle_no LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Ambulance
	for rows.Next() {
		a, err := scanAmbulance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
