// Package gormstore implements the storage contract on MySQL through GORM.
//
// Every aggregate mutation locks the post row at the root of the affected
// subtree before any descendant row, so concurrent operations on the same
// subtree serialize top-down and cannot form lock-ordering cycles. Counter
// updates are relative SQL expressions, never read-modify-write in Go.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

// Store implements storage.Store on a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// New wraps an initialized GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn in a database transaction. MySQL deadlocks and lock-wait
// timeouts surface as storage.ErrTxConflict so the engine can retry; the
// same goes for duplicate-key races on the unique registries, where the
// retry re-reads the row the winning writer inserted.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&tx{db: db, locking: true})
	})
	return translateConflict(err)
}

// View runs fn outside a locking transaction; reads see committed state.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	return fn(&tx{db: s.db.WithContext(ctx)})
}

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213, 1205, 1062: // deadlock, lock wait timeout, duplicate key race
			return fmt.Errorf("%w: %v", storage.ErrTxConflict, err)
		}
	}
	return err
}

type tx struct {
	db      *gorm.DB
	locking bool
}

func (t *tx) forUpdate() *gorm.DB {
	if t.locking {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// === Users ===

func (t *tx) GetUser(id string) (*models.User, error) {
	var u models.User
	if err := t.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (t *tx) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	if err := t.db.First(&u, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (t *tx) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := t.db.First(&u, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (t *tx) CreateUser(u *models.User) error {
	return t.db.Create(u).Error
}

func (t *tx) SaveUser(u *models.User) error {
	return t.db.Save(u).Error
}

// === Posts ===

// GetPost takes the root lock of the post's aggregate when called inside a
// writing transaction.
func (t *tx) GetPost(id string) (*models.Post, error) {
	var p models.Post
	if err := t.forUpdate().First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *tx) CreatePost(p *models.Post) error {
	return t.db.Create(p).Error
}

func (t *tx) SavePost(p *models.Post) error {
	return t.db.Save(p).Error
}

func (t *tx) Posts(authorID string) ([]*models.Post, error) {
	var posts []*models.Post
	q := t.db.Order("created_at DESC")
	if authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// === Comments ===

// GetComment locks top-down: it peeks at the comment to learn its post, locks
// the post row first, then locks the comment itself.
func (t *tx) GetComment(id string) (*models.Comment, error) {
	if !t.locking {
		var c models.Comment
		if err := t.db.First(&c, "id = ?", id).Error; err != nil {
			return nil, notFound(err)
		}
		return &c, nil
	}
	var peek models.Comment
	if err := t.db.Select("id", "post_id").First(&peek, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := t.lockPostRow(peek.PostID); err != nil {
		return nil, err
	}
	var c models.Comment
	if err := t.forUpdate().First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (t *tx) lockPostRow(postID string) error {
	var p models.Post
	err := t.forUpdate().Select("id").First(&p, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // orphaned row; nothing to serialize against
	}
	return err
}

func (t *tx) CreateComment(c *models.Comment) error {
	return t.db.Create(c).Error
}

func (t *tx) SaveComment(c *models.Comment) error {
	return t.db.Save(c).Error
}

func (t *tx) CommentsByPost(postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := t.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (t *tx) SetCommentStatuses(ids []string, status models.CommentStatus, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return t.db.Model(&models.Comment{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status, "updated_at": now}).Error
}

// === Replies ===

func (t *tx) GetReply(id string) (*models.Reply, error) {
	if !t.locking {
		var r models.Reply
		if err := t.db.First(&r, "id = ?", id).Error; err != nil {
			return nil, notFound(err)
		}
		return &r, nil
	}
	var peek models.Reply
	if err := t.db.Select("id", "comment_id").First(&peek, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	var comment models.Comment
	if err := t.db.Select("id", "post_id").First(&comment, "id = ?", peek.CommentID).Error; err == nil {
		if err := t.lockPostRow(comment.PostID); err != nil {
			return nil, err
		}
	}
	var r models.Reply
	if err := t.forUpdate().First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (t *tx) CreateReply(r *models.Reply) error {
	return t.db.Create(r).Error
}

func (t *tx) SaveReply(r *models.Reply) error {
	return t.db.Save(r).Error
}

func (t *tx) RepliesByComment(commentID string) ([]*models.Reply, error) {
	return t.RepliesByComments([]string{commentID})
}

func (t *tx) RepliesByComments(commentIDs []string) ([]*models.Reply, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var replies []*models.Reply
	if err := t.db.Where("comment_id IN ?", commentIDs).Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, err
	}
	return replies, nil
}

func (t *tx) SetReplyStatuses(ids []string, status models.ReplyStatus, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return t.db.Model(&models.Reply{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status, "updated_at": now}).Error
}

// === Reactions ===

func (t *tx) GetReaction(userID string, target models.TargetType, targetID string) (*models.Reaction, error) {
	var r models.Reaction
	err := t.forUpdate().
		First(&r, "user_id = ? AND target_type = ? AND target_id = ?", userID, target, targetID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (t *tx) CreateReaction(r *models.Reaction) error {
	return t.db.Create(r).Error
}

func (t *tx) SaveReaction(r *models.Reaction) error {
	return t.db.Save(r).Error
}

func (t *tx) DeleteReaction(id string) error {
	res := t.db.Delete(&models.Reaction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Tags ===

func (t *tx) GetTag(id string) (*models.Tag, error) {
	var tg models.Tag
	if err := t.forUpdate().First(&tg, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tg, nil
}

func (t *tx) GetTagByName(name string) (*models.Tag, error) {
	var tg models.Tag
	if err := t.forUpdate().First(&tg, "name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &tg, nil
}

func (t *tx) CreateTag(tg *models.Tag) error {
	return t.db.Create(tg).Error
}

func (t *tx) SaveTag(tg *models.Tag) error {
	return t.db.Save(tg).Error
}

func (t *tx) DeleteTag(id string) error {
	res := t.db.Delete(&models.Tag{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) Tags() ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := t.db.Order("created_at ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// === Post tags ===

func (t *tx) GetPostTag(postID, tagID string) (*models.PostTag, error) {
	var pt models.PostTag
	err := t.forUpdate().First(&pt, "post_id = ? AND tag_id = ?", postID, tagID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pt, nil
}

func (t *tx) CreatePostTag(pt *models.PostTag) error {
	return t.db.Create(pt).Error
}

func (t *tx) DeletePostTag(postID, tagID string) error {
	res := t.db.Delete(&models.PostTag{}, "post_id = ? AND tag_id = ?", postID, tagID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) DeletePostTagsByPost(postID string) ([]string, error) {
	var ids []string
	if err := t.db.Model(&models.PostTag{}).Where("post_id = ?", postID).Pluck("tag_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := t.db.Delete(&models.PostTag{}, "post_id = ?", postID).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *tx) TagIDsByPost(postID string) ([]string, error) {
	var ids []string
	if err := t.db.Model(&models.PostTag{}).Where("post_id = ?", postID).Order("created_at ASC").Pluck("tag_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// === Counters ===

var counterTables = map[storage.CounterKind]struct {
	model  interface{}
	fields map[storage.CounterField]bool
}{
	storage.KindPost: {&models.Post{}, map[storage.CounterField]bool{
		storage.CounterLikes: true, storage.CounterDislikes: true,
		storage.CounterViews: true, storage.CounterComments: true,
	}},
	storage.KindComment: {&models.Comment{}, map[storage.CounterField]bool{
		storage.CounterLikes: true, storage.CounterDislikes: true, storage.CounterReplies: true,
	}},
	storage.KindReply: {&models.Reply{}, map[storage.CounterField]bool{
		storage.CounterLikes: true, storage.CounterDislikes: true,
	}},
	storage.KindTag: {&models.Tag{}, map[storage.CounterField]bool{
		storage.CounterPosts: true,
	}},
}

// AddCounter issues `SET field = field + ?` so concurrent increments compose
// inside the database instead of racing in Go.
func (t *tx) AddCounter(kind storage.CounterKind, id string, field storage.CounterField, delta int) error {
	table, ok := counterTables[kind]
	if !ok || !table.fields[field] {
		return fmt.Errorf("gormstore: no counter %s.%s", kind, field)
	}
	col := string(field)
	res := t.db.Model(table.model).Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
