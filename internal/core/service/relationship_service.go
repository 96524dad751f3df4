package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
	"github.com/miniblog/social-api/internal/pkg/metrics"
)

const (
	// lockedWorkTimeout bounds the storage calls made while a pair lock is
	// held; compensateTimeout bounds the undo step that may follow them.
	lockedWorkTimeout = 20 * time.Second
	compensateTimeout = 5 * time.Second
)

// MaxLockHold is the longest any service keeps a pair lock. A PairLocker
// must not let a lock expire sooner.
const MaxLockHold = lockedWorkTimeout + compensateTimeout

func followLockKey(followerID, followeeID string) string {
	return "follow:" + followerID + ":" + followeeID
}

func likeLockKey(actorID, postID string) string {
	return "like:" + actorID + ":" + postID
}

// lockPair acquires key and returns the context for the work done under it,
// bounded by lockedWorkTimeout, and a func that ends both.
func lockPair(ctx context.Context, locker ports.PairLocker, key string) (context.Context, func(), error) {
	release, err := locker.Lock(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	wctx, cancel := context.WithTimeout(ctx, lockedWorkTimeout)
	return wctx, func() {
		cancel()
		release()
	}, nil
}

// RelationshipService toggles follow and like membership.
//
// Every toggle runs under a lock keyed on the (actor, target) pair: membership
// is read, then applied with atomic set-add / set-remove operations, so two
// concurrent toggles of the same pair can neither duplicate an entry nor leave
// the followers/following mirror half written.
type RelationshipService struct {
	users    ports.UserRepository
	posts    ports.PostRepository
	locker   ports.PairLocker
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewRelationshipService(
	users ports.UserRepository,
	posts ports.PostRepository,
	locker ports.PairLocker,
	activity ports.ActivityRecorder,
	log zerolog.Logger,
) *RelationshipService {
	return &RelationshipService{
		users:    users,
		posts:    posts,
		locker:   locker,
		activity: activity,
		log:      log,
	}
}

// ToggleFollow makes actor follow target, or unfollow if already following.
func (s *RelationshipService) ToggleFollow(ctx context.Context, actorID, targetID string) (*ports.FollowResult, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidOperation)
	}

	ctx, unlock, err := lockPair(ctx, s.locker, followLockKey(actorID, targetID))
	if err != nil {
		return nil, fmt.Errorf("toggle follow: lock: %w", err)
	}
	defer unlock()

	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, fmt.Errorf("toggle follow: actor: %w", err)
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("toggle follow: target: %w", err)
	}

	var (
		updated   *domain.User
		following bool
	)
	if target.IsFollowedBy(actorID) {
		updated, err = s.unfollow(ctx, actorID, targetID)
	} else {
		updated, err = s.follow(ctx, actorID, targetID)
		following = true
	}
	if err != nil {
		return nil, err
	}

	kind := domain.ActivityUnfollow
	state := "unfollowed"
	if following {
		kind = domain.ActivityFollow
		state = "followed"
	}
	metrics.FollowTogglesTotal.WithLabelValues(state).Inc()
	recordActivity(s.activity, actorID, kind, targetID)

	s.log.Debug().Str("actor", actorID).Str("target", targetID).Bool("following", following).Msg("follow toggled")

	return &ports.FollowResult{
		IsFollowing:   following,
		FollowerCount: len(updated.Followers),
	}, nil
}

// follow adds actor to target.followers and mirrors target into
// actor.following. A failed mirror write undoes the first write.
func (s *RelationshipService) follow(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	target, err := s.users.AddToSet(ctx, targetID, domain.SetFollowers, actorID)
	if err != nil {
		return nil, fmt.Errorf("toggle follow: add follower: %w", err)
	}
	if _, err := s.users.AddToSet(ctx, actorID, domain.SetFollowing, targetID); err != nil {
		compensate(ctx, s.log, "undo add follower", func(ctx context.Context) error {
			_, err := s.users.RemoveFromSet(ctx, targetID, domain.SetFollowers, actorID)
			return err
		})
		return nil, fmt.Errorf("toggle follow: add following: %w", err)
	}
	return target, nil
}

func (s *RelationshipService) unfollow(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	target, err := s.users.RemoveFromSet(ctx, targetID, domain.SetFollowers, actorID)
	if err != nil {
		return nil, fmt.Errorf("toggle follow: remove follower: %w", err)
	}
	if _, err := s.users.RemoveFromSet(ctx, actorID, domain.SetFollowing, targetID); err != nil {
		compensate(ctx, s.log, "undo remove follower", func(ctx context.Context) error {
			_, err := s.users.AddToSet(ctx, targetID, domain.SetFollowers, actorID)
			return err
		})
		return nil, fmt.Errorf("toggle follow: remove following: %w", err)
	}
	return target, nil
}

// ToggleLike likes the post for actor, or removes the like if present.
func (s *RelationshipService) ToggleLike(ctx context.Context, actorID, postID string) (*ports.LikeResult, error) {
	ctx, unlock, err := lockPair(ctx, s.locker, likeLockKey(actorID, postID))
	if err != nil {
		return nil, fmt.Errorf("toggle like: lock: %w", err)
	}
	defer unlock()

	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, fmt.Errorf("toggle like: actor: %w", err)
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	liked := !post.IsLikedBy(actorID)
	if liked {
		post, err = s.posts.AddLike(ctx, postID, actorID)
	} else {
		post, err = s.posts.RemoveLike(ctx, postID, actorID)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	kind, state := domain.ActivityUnlike, "unliked"
	if liked {
		kind, state = domain.ActivityLike, "liked"
	}
	metrics.LikeTogglesTotal.WithLabelValues(state).Inc()
	recordActivity(s.activity, actorID, kind, postID)

	return &ports.LikeResult{Liked: liked, LikeCount: len(post.Likes)}, nil
}

// compensate runs an undo step detached from the request cancellation, since
// the request context may be the reason the forward step failed.
func compensate(ctx context.Context, log zerolog.Logger, what string, undo func(context.Context) error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := undo(cctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("step", what).Msg("compensation failed")
	}
}

func recordActivity(rec ports.ActivityRecorder, actorID string, kind domain.ActivityKind, targetID string) {
	if rec == nil {
		return
	}
	rec.Record(domain.Activity{
		ActorID:   actorID,
		Kind:      kind,
		TargetID:  targetID,
		CreatedAt: time.Now().UTC(),
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrPostNotFound)
}
