package models

import "time"

// ReplyStatus enumerates the reply lifecycle states. Replies are leaves:
// there is no MODIFYING state.
type ReplyStatus string

const (
	ReplyActive  ReplyStatus = "ACTIVE"
	ReplyHidden  ReplyStatus = "HIDDEN"
	ReplyDeleted ReplyStatus = "DELETED"
)

// Reply is scoped to exactly one comment and can only be created while the
// parent comment is ACTIVE.
type Reply struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	CommentID     string      `gorm:"size:36;index;not null" json:"comment_id"`
	AuthorID      string      `gorm:"size:36;index;not null" json:"author_id"`
	Content       string      `gorm:"type:text;not null" json:"content"`
	Status        ReplyStatus `gorm:"size:16;index;not null" json:"status"`
	LikesCount    int         `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int         `gorm:"not null;default:0" json:"dislikes_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
