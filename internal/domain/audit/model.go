package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Common audit actions.
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionAdmit     = "admit"
	ActionDischarge = "discharge"
	ActionReassign  = "reassign"
	ActionPayment   = "payment"
	ActionDispatch  = "dispatch"
)

// Entry maps to the audit_logs table. OldValues and NewValues hold JSON
// snapshots of the entity around the change.
type Entry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Actor      string          `db:"actor" json:"actor"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	OldValues  json.RawMessage `db:"old_values" json:"old_values,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Snapshot marshals v for an audit entry, returning nil when v is nil or
// cannot be encoded. Audit is best effort; a bad snapshot never fails the
// operation it describes.
func Snapshot(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
