package ports

import "context"

// FollowResult reports the state after a follow toggle.
type FollowResult struct {
	IsFollowing   bool
	FollowerCount int
}

// LikeResult reports the state after a like toggle.
type LikeResult struct {
	Liked     bool
	LikeCount int
}

// RelationshipService flips membership of the actor in follow and like sets.
type RelationshipService interface {
	ToggleFollow(ctx context.Context, actorID, targetID string) (*FollowResult, error)
	ToggleLike(ctx context.Context, actorID, postID string) (*LikeResult, error)
}
