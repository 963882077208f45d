package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bill statuses. Cancelled is terminal; the aggregate on a cancelled bill is
// frozen and recalculation skips it.
const (
	StatusPending       = "Pending"
	StatusPartiallyPaid = "PartiallyPaid"
	StatusPaid          = "Paid"
	StatusCancelled     = "Cancelled"
)

// Bill item types.
const (
	ItemRoomCharge   = "Room"
	ItemConsultation = "Consultation"
	ItemMedicine     = "Medicine"
	ItemLabTest      = "LabTest"
	ItemOther        = "Other"
)

// Bill maps to the bills table. Subtotal, total, balance and status are
// derived from the items and payments and must only change through
// Recalculate.
type Bill struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BillNo     string    `db:"bill_no" json:"bill_no"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Subtotal   float64   `db:"subtotal" json:"subtotal"`
	Tax        float64   `db:"tax" json:"tax"`
	Discount   float64   `db:"discount" json:"discount"`
	Total      float64   `db:"total" json:"total"`
	PaidAmount float64   `db:"paid_amount" json:"paid_amount"`
	Balance    float64   `db:"balance" json:"balance"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// BillItem maps to the bill_items table. Amount is always quantity times
// unit price.
type BillItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillID      uuid.UUID `db:"bill_id" json:"bill_id"`
	Description string    `db:"description" json:"description"`
	ItemType    string    `db:"item_type" json:"item_type"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	Amount      float64   `db:"amount" json:"amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Recalculate rebuilds the derived aggregate from the item list. Idempotent:
// running it twice over the same items yields the same bill. A cancelled
// bill is left untouched.
func (b *Bill) Recalculate(items []*BillItem) {
	if b.Status == StatusCancelled {
		return
	}
	subtotal := 0.0
	for _, it := range items {
		subtotal += it.Amount
	}
	b.Subtotal = subtotal
	b.Total = b.Subtotal + b.Tax - b.Discount
	if b.Total < 0 {
		b.Total = 0
	}
	b.Balance = b.Total - b.PaidAmount

	switch {
	case b.Total > 0 && b.PaidAmount >= b.Total:
		b.Status = StatusPaid
	case b.PaidAmount > 0:
		b.Status = StatusPartiallyPaid
	default:
		b.Status = StatusPending
	}
}

// IsOpen reports whether the bill can still accrue items and payments.
func (b *Bill) IsOpen() bool {
	return b.Status == StatusPending || b.Status == StatusPartiallyPaid
}

// ValidItemType reports whether t is a known bill item type.
func ValidItemType(t string) bool {
	switch t {
	case ItemRoomCharge, ItemConsultation, ItemMedicine, ItemLabTest, ItemOther:
		return true
	}
	return false
}

// NewBillNo derives the human-facing bill number, e.g. "BILL-4F0A91C2".
func NewBillNo(id uuid.UUID) string {
	return "BILL-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
