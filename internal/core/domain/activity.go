package domain

import "time"

// ActivityKind identifies what an actor did.
type ActivityKind string

const (
	ActivityFollow      ActivityKind = "follow"
	ActivityUnfollow    ActivityKind = "unfollow"
	ActivityLike        ActivityKind = "like"
	ActivityUnlike      ActivityKind = "unlike"
	ActivityPostCreated ActivityKind = "post_created"
	ActivityPostUpdated ActivityKind = "post_updated"
	ActivityPostDeleted ActivityKind = "post_deleted"
)

// Activity is an audit entry for a state change made by a user.
type Activity struct {
	ID        string       `json:"id"`
	ActorID   string       `json:"actor_id"`
	Kind      ActivityKind `json:"kind"`
	TargetID  string       `json:"target_id"`
	CreatedAt time.Time    `json:"created_at"`
}
