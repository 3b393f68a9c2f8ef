package models

import "time"

// Tag is globally unique by its normalized (lowercased) name. PostsCount is
// derived from PostTag rows and maintained through the counter ledger only.
type Tag struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   string    `gorm:"size:36;not null" json:"creator_id"`
	PostsCount  int       `gorm:"not null;default:0" json:"posts_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostTag joins posts and tags. Its rows are the sole source of truth for
// Tag.PostsCount.
type PostTag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_post_tags_post_tag,priority:1" json:"post_id"`
	TagID     string    `gorm:"size:36;not null;uniqueIndex:idx_post_tags_post_tag,priority:2" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
