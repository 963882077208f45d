package room

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

const roomCols = `id, room_no, room_type, status, price_per_day,
	bed_count_total, bed_count_remaining, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	err := row.Scan(&rm.ID, &rm.RoomNo, &rm.RoomType, &rm.Status, &rm.PricePerDay,
		&rm.BedCountTotal, &rm.BedCountRemaining, &rm.CreatedAt, &rm.UpdatedAt)
	return &rm, err
}

func (r *repoPG) Create(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	if rm.RoomNo == "" {
		rm.RoomNo = NewRoomNo(rm.ID)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO rooms (id, room_no, room_type, status, price_per_day,
			bed_count_total, bed_count_remaining)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		rm.ID, rm.RoomNo, rm.RoomType, rm.Status, rm.PricePerDay,
		rm.BedCountTotal, rm.BedCountRemaining).
		Scan(&rm.CreatedAt, &rm.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, rm *Room) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE rooms SET room_type=$2, status=$3, price_per_day=$4,
			bed_count_total=$5, bed_count_remaining=$6, updated_at=NOW()
		WHERE id = $1`,
		rm.ID, rm.RoomType, rm.Status, rm.PricePerDay,
		rm.BedCountTotal, rm.BedCountRemaining)
	return err
}

func (r *repoPG) UpdateBeds(ctx context.Context, rm *Room) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE rooms SET bed_count_remaining=$2, status=$3, updated_at=NOW()
		WHERE id = $1`,
		rm.ID, rm.BedCountRemaining, rm.Status)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Room, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Status != "" {
		where += ` AND status = $` + strconv.Itoa(i)
		args = append(args, f.Status)
		i++
	}
	if f.RoomType != "" {
		where += ` AND room_type = $` + strconv.Itoa(i)
		args = append(args, f.RoomType)
		i++
	}
	if f.AvailableOnly {
		where += ` AND bed_count_remaining > 0 AND status <> '` + StatusMaintenance + `'`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM rooms`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + roomCols + ` FROM rooms` + where +
		` ORDER BY room_no LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rm)
	}
	return items, total, rows.Err()
}

