package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
	"github.com/miniblog/social-api/internal/pkg/metrics"
)

// ReconcileReport counts the repairs made by one reconciliation pass.
type ReconcileReport struct {
	UsersScanned     int
	MirrorsAdded     int // missing followers/following counterparts restored
	DanglingRemoved  int // references to users that no longer exist
	SelfRemoved      int // users listed in their own followers/following
	OrphanPostsFixed int // ids of deleted posts removed from authored sets
	EdgesSkipped     int // edges whose pair lock stayed busy; retried next pass
}

// ReconcileService repairs relationship data written before the toggle was
// made symmetric: for every A ∈ B.followers it ensures B ∈ A.following and
// vice versa, and drops authored post ids whose post is gone.
//
// Each edge is repaired under the same pair lock ToggleFollow takes, with both
// users re-read inside it, so a toggle in flight is never mistaken for damage.
type ReconcileService struct {
	users  ports.UserRepository
	posts  ports.PostRepository
	locker ports.PairLocker
	log    zerolog.Logger
}

func NewReconcileService(users ports.UserRepository, posts ports.PostRepository, locker ports.PairLocker, log zerolog.Logger) *ReconcileService {
	return &ReconcileService{users: users, posts: posts, locker: locker, log: log}
}

func (s *ReconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	var ids []string
	if err := s.users.ForEach(ctx, func(u *domain.User) error {
		ids = append(ids, u.ID)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("reconcile: list users: %w", err)
	}

	report := &ReconcileReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// Re-read: earlier repairs may have changed this user.
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		report.UsersScanned++

		if err := s.reconcileEdges(ctx, u, domain.SetFollowing, report); err != nil {
			return report, err
		}
		if err := s.reconcileEdges(ctx, u, domain.SetFollowers, report); err != nil {
			return report, err
		}
		if err := s.reconcilePosts(ctx, u, report); err != nil {
			return report, err
		}
	}

	metrics.ReconcileRepairsTotal.WithLabelValues("mirror_added").Add(float64(report.MirrorsAdded))
	metrics.ReconcileRepairsTotal.WithLabelValues("dangling_removed").Add(float64(report.DanglingRemoved))
	metrics.ReconcileRepairsTotal.WithLabelValues("self_removed").Add(float64(report.SelfRemoved))
	metrics.ReconcileRepairsTotal.WithLabelValues("orphan_post_removed").Add(float64(report.OrphanPostsFixed))
	metrics.ReconcileRepairsTotal.WithLabelValues("edge_skipped").Add(float64(report.EdgesSkipped))

	s.log.Info().
		Int("users", report.UsersScanned).
		Int("mirrors_added", report.MirrorsAdded).
		Int("dangling_removed", report.DanglingRemoved).
		Int("self_removed", report.SelfRemoved).
		Int("orphan_posts", report.OrphanPostsFixed).
		Int("edges_skipped", report.EdgesSkipped).
		Msg("relationship reconciliation finished")

	return report, nil
}

// reconcileEdges walks u's set and repairs each follow edge it names.
func (s *ReconcileService) reconcileEdges(ctx context.Context, u *domain.User, set domain.UserSet, report *ReconcileReport) error {
	members := u.Following
	if set == domain.SetFollowers {
		members = u.Followers
	}

	for _, otherID := range members {
		if otherID == u.ID {
			if _, err := s.users.RemoveFromSet(ctx, u.ID, set, otherID); err != nil {
				return fmt.Errorf("reconcile: drop self reference: %w", err)
			}
			report.SelfRemoved++
			continue
		}

		follower, followee := u.ID, otherID
		if set == domain.SetFollowers {
			follower, followee = otherID, u.ID
		}
		if err := s.repairEdge(ctx, follower, followee, report); err != nil {
			if errors.Is(err, domain.ErrBusy) {
				report.EdgesSkipped++
				s.log.Warn().Str("follower", follower).Str("followee", followee).Msg("edge busy, skipped")
				continue
			}
			return err
		}
	}
	return nil
}

// repairEdge makes follower→followee present on both sides or on neither.
// A side that names a missing user is dropped; otherwise the missing mirror
// is added.
func (s *ReconcileService) repairEdge(ctx context.Context, followerID, followeeID string, report *ReconcileReport) error {
	ctx, unlock, err := lockPair(ctx, s.locker, followLockKey(followerID, followeeID))
	if err != nil {
		return fmt.Errorf("reconcile: lock: %w", err)
	}
	defer unlock()

	follower, err := s.findOptional(ctx, followerID)
	if err != nil {
		return err
	}
	followee, err := s.findOptional(ctx, followeeID)
	if err != nil {
		return err
	}

	switch {
	case follower == nil && followee == nil:
		return nil
	case follower == nil:
		if !followee.IsFollowedBy(followerID) {
			return nil
		}
		if _, err := s.users.RemoveFromSet(ctx, followeeID, domain.SetFollowers, followerID); err != nil {
			return fmt.Errorf("reconcile: drop dangling follower: %w", err)
		}
		report.DanglingRemoved++
		return nil
	case followee == nil:
		if !slices.Contains(follower.Following, followeeID) {
			return nil
		}
		if _, err := s.users.RemoveFromSet(ctx, followerID, domain.SetFollowing, followeeID); err != nil {
			return fmt.Errorf("reconcile: drop dangling following: %w", err)
		}
		report.DanglingRemoved++
		return nil
	}

	inFollowing := slices.Contains(follower.Following, followeeID)
	inFollowers := followee.IsFollowedBy(followerID)
	switch {
	case inFollowing && !inFollowers:
		_, err = s.users.AddToSet(ctx, followeeID, domain.SetFollowers, followerID)
	case inFollowers && !inFollowing:
		_, err = s.users.AddToSet(ctx, followerID, domain.SetFollowing, followeeID)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: restore mirror: %w", err)
	}
	report.MirrorsAdded++
	return nil
}

// findOptional loads a user, reporting a missing one as nil.
func (s *ReconcileService) findOptional(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reconcile: load %s: %w", id, err)
	}
	return u, nil
}

func (s *ReconcileService) reconcilePosts(ctx context.Context, u *domain.User, report *ReconcileReport) error {
	if len(u.Posts) == 0 {
		return nil
	}
	existing, err := s.posts.ExistingIDs(ctx, u.Posts)
	if err != nil {
		return fmt.Errorf("reconcile: check posts: %w", err)
	}
	keep := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}
	for _, id := range u.Posts {
		if _, ok := keep[id]; ok {
			continue
		}
		if _, err := s.users.RemoveFromSet(ctx, u.ID, domain.SetPosts, id); err != nil {
			return fmt.Errorf("reconcile: drop orphan post: %w", err)
		}
		report.OrphanPostsFixed++
	}
	return nil
}
