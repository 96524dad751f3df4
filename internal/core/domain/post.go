package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPostLength bounds the content of a single post, in characters.
const MaxPostLength = 2000

// Post is a short text entry authored by a user.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLikedBy reports whether userID is in the likes set.
func (p *Post) IsLikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// NormalizeContent trims content and checks it against the post rules.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return "", fmt.Errorf("%w: content must be at most %d characters", ErrValidation, MaxPostLength)
	}
	return content, nil
}
