package models

import "time"

// PostStatus enumerates the post lifecycle states.
type PostStatus string

const (
	PostDraft     PostStatus = "DRAFT"     // visible to the author only
	PostActive    PostStatus = "ACTIVE"    // public, open for comments
	PostModifying PostStatus = "MODIFYING" // public, comments closed while editing
	PostArchived  PostStatus = "ARCHIVED"  // public, frozen; no further transitions
	PostDeleted   PostStatus = "DELETED"   // terminal, reads as not found
)

// Post is the root of the content hierarchy. Its status is the visibility
// ceiling for every comment and reply beneath it.
type Post struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	AuthorID      string     `gorm:"size:36;index;not null" json:"author_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Status        PostStatus `gorm:"size:16;index;not null" json:"status"`
	LikesCount    int        `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int        `gorm:"not null;default:0" json:"dislikes_count"`
	ViewsCount    int        `gorm:"not null;default:0" json:"views_count"`
	CommentsCount int        `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
