package domain

import (
	"slices"
	"time"
)

// UserSet names one of the membership sets held on a user document.
type UserSet string

const (
	SetPosts     UserSet = "posts"
	SetFollowers UserSet = "followers"
	SetFollowing UserSet = "following"
)

// User models a registered member of the blog.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Posts        []string  `json:"posts"`
	Followers    []string  `json:"followers"`
	Following    []string  `json:"following"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is the public view of a user embedded in feeds.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Name: u.Name}
}

// IsFollowedBy reports whether userID is in the followers set.
func (u *User) IsFollowedBy(userID string) bool {
	return slices.Contains(u.Followers, userID)
}
