package handler

import (
	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Age:      req.Age,
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Name:           u.Name,
		Age:            u.Age,
		Posts:          nonNil(u.Posts),
		Followers:      nonNil(u.Followers),
		Following:      nonNil(u.Following),
		FollowerCount:  len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt.UTC(),
	}
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		Likes:     nonNil(p.Likes),
		LikeCount: len(p.Likes),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func toPostsResponse(posts []*domain.Post) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = toPostResponse(p)
	}
	return out
}

func toFeedResponse(r *ports.FeedResult) feedResponse {
	items := make([]postResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = toPostResponse(item.Post)
		items[i].Author = item.Author
	}
	return feedResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}

func toUserPageResponse(v *ports.UserView) userPageResponse {
	return userPageResponse{
		User:           toUserResponse(v.User),
		Posts:          toPostsResponse(v.Posts),
		IsFollowing:    v.IsFollowing,
		FollowerCount:  len(v.User.Followers),
		FollowingCount: len(v.User.Following),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
