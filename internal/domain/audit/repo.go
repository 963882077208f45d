package audit

import "context"

// ListFilter narrows an audit log listing.
type ListFilter struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
}

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Entry, int, error)
}
