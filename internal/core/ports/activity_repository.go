package ports

import (
	"context"

	"github.com/miniblog/social-api/internal/core/domain"
)

// ActivityRepository persists the audit trail of user actions.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.Activity) error
	// ListByActor returns the most recent activities of actorID, newest first.
	ListByActor(ctx context.Context, actorID string, limit int) ([]*domain.Activity, error)
}

// ActivityRecorder accepts activities for asynchronous persistence.
// Record must not block the caller beyond a bounded enqueue.
type ActivityRecorder interface {
	Record(activity domain.Activity)
}
