package audit

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

const auditCols = `id, actor, action, entity_type, entity_id, old_values, new_values, created_at`

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO audit_logs (id, actor, action, entity_type, entity_id, old_values, new_values)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		e.ID, e.Actor, e.Action, e.EntityType, e.EntityID, e.OldValues, e.NewValues).
		Scan(&e.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.Actor != "" {
		where += ` AND actor = $` + strconv.Itoa(i)
		args = append(args, f.Actor)
		i++
	}
	if f.Action != "" {
		where += ` AND action = $` + strconv.Itoa(i)
		args = append(args, f.Action)
		i++
	}
	if f.EntityType != "" {
		where += ` AND entity_type = $` + strconv.Itoa(i)
		args = append(args, f.EntityType)
		i++
	}
	if f.EntityID != "" {
		where += ` AND entity_id = $` + strconv.Itoa(i)
		args = append(args, f.EntityID)
		i++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + auditCols + ` FROM audit_logs` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID,
			&e.OldValues, &e.NewValues, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, rows.Err()
}
