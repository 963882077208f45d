package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Chinmay31-21/Ayusatva/internal/platform/auth"
)

// Recorder writes audit entries after the operation they describe has
// committed. Recording is best effort: a failed insert is logged and
// swallowed, it never fails or rolls back the business operation.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
}

func NewRecorder(repo Repository, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record inserts one audit entry. The actor is taken from the request
// context; "system" when the operation has no authenticated caller.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID string, oldValues, newValues interface{}) {
	if r == nil || r.repo == nil {
		return
	}
	actor := auth.UserIDFromContext(ctx)
	if actor == "" {
		actor = "system"
	}
	e := &Entry{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  Snapshot(oldValues),
		NewValues:  Snapshot(newValues),
	}
	if err := r.repo.Insert(ctx, e); err != nil {
		r.logger.Warn().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Msg("audit record failed")
	}
}
