package billing

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

const billCols = `id, bill_no, patient_id, subtotal, tax, discount, total,
	paid_amount, balance, status, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNo, &b.PatientID, &b.Subtotal, &b.Tax, &b.Discount,
		&b.Total, &b.PaidAmount, &b.Balance, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) CreateBill(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	if b.BillNo == "" {
		b.BillNo = NewBillNo(b.ID)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bills (id, bill_no, patient_id, subtotal, tax, discount,
			total, paid_amount, balance, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		b.ID, b.BillNo, b.PatientID, b.Subtotal, b.Tax, b.Discount,
		b.Total, b.PaidAmount, b.Balance, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *repoPG) GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
}

func (r *repoPG) GetBillForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `
		SELECT `+billCols+` FROM bills
		WHERE patient_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1`,
		patientID, StatusPending, StatusPartiallyPaid))
}

func (r *repoPG) UpdateBill(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bills SET subtotal=$2, tax=$3, discount=$4, total=$5,
			paid_amount=$6, balance=$7, status=$8, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Subtotal, b.Tax, b.Discount, b.Total,
		b.PaidAmount, b.Balance, b.Status)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Bill, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if f.PatientID != nil {
		where += ` AND patient_id = $` + strconv.Itoa(i)
		args = append(args, *f.PatientID)
		i++
	}
	if f.Status != "" {
		where += ` AND status = $` + strconv.Itoa(i)
		args = append(args, f.Status)
		i++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + billCols + ` FROM bills` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(i) + ` OFFSET $` + strconv.Itoa(i+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *repoPG) AddItem(ctx context.Context, it *BillItem) error {
	it.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bill_items (id, bill_id, description, item_type, quantity,
			unit_price, amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		it.ID, it.BillID, it.Description, it.ItemType, it.Quantity,
		it.UnitPrice, it.Amount).
		Scan(&it.CreatedAt)
}

func (r *repoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, description, item_type, quantity, unit_price, amount, created_at
		FROM bill_items WHERE bill_id = $1 ORDER BY created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Description, &it.ItemType,
			&it.Quantity, &it.UnitPrice, &it.Amount, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
