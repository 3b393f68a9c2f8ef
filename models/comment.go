package models

import "time"

// CommentStatus enumerates the comment lifecycle states.
type CommentStatus string

const (
	CommentActive    CommentStatus = "ACTIVE"
	CommentModifying CommentStatus = "MODIFYING"
	CommentHidden    CommentStatus = "HIDDEN"
	CommentDeleted   CommentStatus = "DELETED"
)

// Comment is scoped to exactly one post. It can only be created while the
// parent post is ACTIVE, and it can never be more visible than the post allows.
type Comment struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	PostID        string        `gorm:"size:36;index;not null" json:"post_id"`
	AuthorID      string        `gorm:"size:36;index;not null" json:"author_id"`
	Content       string        `gorm:"type:text;not null" json:"content"`
	Status        CommentStatus `gorm:"size:16;index;not null" json:"status"`
	LikesCount    int           `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int           `gorm:"not null;default:0" json:"dislikes_count"`
	RepliesCount  int           `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
