package storage

import (
	"context"
	"errors"
	"time"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
)

var (
	// ErrNotFound is returned by Tx getters when no row matches.
	ErrNotFound = errors.New("storage: not found")
	// ErrTxConflict is returned by Atomic when the transaction lost a
	// serialization race and may be retried.
	ErrTxConflict = errors.New("storage: transaction conflict")
)

// CounterField names a denormalized counter column. Counters are mutated
// exclusively through Tx.AddCounter with relative deltas; business logic
// never writes these columns directly.
type CounterField string

const (
	CounterLikes    CounterField = "likes_count"
	CounterDislikes CounterField = "dislikes_count"
	CounterViews    CounterField = "views_count"
	CounterComments CounterField = "comments_count"
	CounterReplies  CounterField = "replies_count"
	CounterPosts    CounterField = "posts_count"
)

// CounterKind names the entity table a counter belongs to. It extends
// models.TargetType with tags, which carry a posts_count but are not
// reaction targets.
type CounterKind string

const (
	KindPost    CounterKind = CounterKind(models.TargetPost)
	KindComment CounterKind = CounterKind(models.TargetComment)
	KindReply   CounterKind = CounterKind(models.TargetReply)
	KindTag     CounterKind = "tag"
)

// Tx is a transactional view over the store. All reads within a mutation and
// every write happen through the same Tx so the engine's transition, its
// cascade, and the counter adjustments land as one atomic unit.
type Tx interface {
	// Users
	GetUser(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(u *models.User) error
	SaveUser(u *models.User) error

	// Posts
	GetPost(id string) (*models.Post, error)
	CreatePost(p *models.Post) error
	SavePost(p *models.Post) error
	Posts(authorID string) ([]*models.Post, error) // authorID == "" means all

	// Comments
	GetComment(id string) (*models.Comment, error)
	CreateComment(c *models.Comment) error
	SaveComment(c *models.Comment) error
	CommentsByPost(postID string) ([]*models.Comment, error)
	// SetCommentStatuses applies one status to a batch of comments. Cascades
	// use it so a post-level transition touches descendants in a single pass.
	SetCommentStatuses(ids []string, status models.CommentStatus, now time.Time) error

	// Replies
	GetReply(id string) (*models.Reply, error)
	CreateReply(r *models.Reply) error
	SaveReply(r *models.Reply) error
	RepliesByComment(commentID string) ([]*models.Reply, error)
	RepliesByComments(commentIDs []string) ([]*models.Reply, error)
	SetReplyStatuses(ids []string, status models.ReplyStatus, now time.Time) error

	// Reactions. The (user, target) pair is an indexed lookup, not a scan.
	GetReaction(userID string, target models.TargetType, targetID string) (*models.Reaction, error)
	CreateReaction(r *models.Reaction) error
	SaveReaction(r *models.Reaction) error
	DeleteReaction(id string) error

	// Tags. Names are stored normalized, so GetTagByName is an index lookup.
	GetTag(id string) (*models.Tag, error)
	GetTagByName(name string) (*models.Tag, error)
	CreateTag(t *models.Tag) error
	SaveTag(t *models.Tag) error
	DeleteTag(id string) error
	Tags() ([]*models.Tag, error)

	// Post-tag membership
	GetPostTag(postID, tagID string) (*models.PostTag, error)
	CreatePostTag(pt *models.PostTag) error
	DeletePostTag(postID, tagID string) error
	// DeletePostTagsByPost removes every membership row of a post and returns
	// the tag ids that lost a member, so the caller can settle posts_count.
	DeletePostTagsByPost(postID string) ([]string, error)
	TagIDsByPost(postID string) ([]string, error)

	// AddCounter applies a relative delta to a counter column. The store must
	// implement it as a transactional increment that cannot lose updates
	// under concurrency.
	AddCounter(kind CounterKind, id string, field CounterField, delta int) error
}

// Store is the persistence contract of the lifecycle engine. Atomic runs fn
// inside one serializable transaction per affected aggregate; when the store
// detects a serialization race it returns ErrTxConflict and the caller may
// retry. View runs fn with read-only guarantees.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
