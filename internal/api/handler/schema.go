package handler

import (
	"time"

	"github.com/miniblog/social-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=50"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Name     string `json:"name"     form:"name"     validate:"required,max=100"`
	Age      int    `json:"age"      form:"age"      validate:"required,gt=0"`
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type postRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

type feedQuery struct {
	Search string `query:"search"`
	Page   int    `query:"page"  validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}

type activityQuery struct {
	Limit int `query:"limit" validate:"gte=0"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract does not follow domain changes.

type userResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Posts          []string  `json:"posts"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	CreatedAt      time.Time `json:"created_at"`
}

type authResponse struct {
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

type postResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user"`
	Content   string          `json:"content"`
	Likes     []string        `json:"likes"`
	LikeCount int             `json:"likeCount"`
	Author    *domain.Summary `json:"author,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type feedResponse struct {
	Items      []postResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type profileResponse struct {
	User  userResponse   `json:"user"`
	Posts []postResponse `json:"posts"`
}

type userPageResponse struct {
	User           userResponse   `json:"user"`
	Posts          []postResponse `json:"posts"`
	IsFollowing    bool           `json:"isFollowing"`
	FollowerCount  int            `json:"followerCount"`
	FollowingCount int            `json:"followingCount"`
}

type followResponse struct {
	IsFollowing   bool `json:"isFollowing"`
	FollowerCount int  `json:"followerCount"`
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type activityResponse struct {
	Items []*domain.Activity `json:"items"`
}
