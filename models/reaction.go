package models

import "time"

// ReactionType is the kind of reaction a user can leave on a target.
type ReactionType string

const (
	ReactionLike    ReactionType = "LIKE"
	ReactionDislike ReactionType = "DISLIKE"
)

// TargetType names the entity kind a reaction points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
	TargetReply   TargetType = "reply"
)

// Reaction records at most one like or dislike per (user, target). The unique
// index is the registry backing that invariant; flipping LIKE to DISLIKE
// updates the row in place rather than creating a second one.
type Reaction struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	UserID     string       `gorm:"size:36;not null;uniqueIndex:idx_reactions_user_target,priority:1" json:"user_id"`
	TargetType TargetType   `gorm:"size:16;not null;uniqueIndex:idx_reactions_user_target,priority:2" json:"target_type"`
	TargetID   string       `gorm:"size:36;not null;uniqueIndex:idx_reactions_user_target,priority:3" json:"target_id"`
	Type       ReactionType `gorm:"size:16;not null" json:"type"`
	CreatedAt  time.Time    `json:"created_at"`
}
