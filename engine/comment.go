package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

// CreateComment adds an ACTIVE comment to a post. The parent post must be
// ACTIVE; a draft, modifying, or archived post does not accept comments.
func (e *Engine) CreateComment(ctx context.Context, postID, actorID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}
	var comment *models.Comment
	err := e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if p.Status != models.PostActive {
			return fmt.Errorf("%w: cannot comment on a %s post", ErrInvalidTransition, p.Status)
		}
		now := e.now()
		comment = &models.Comment{
			ID:        uuid.NewString(),
			PostID:    p.ID,
			AuthorID:  actorID,
			Content:   content,
			Status:    models.CommentActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateComment(comment); err != nil {
			return err
		}
		return tx.AddCounter(storage.KindPost, p.ID, storage.CounterComments, 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of a post the actor may see: ACTIVE and
// MODIFYING comments for everyone the post is visible to, plus HIDDEN ones
// for their own author and the post author.
func (e *Engine) ListComments(ctx context.Context, actorID, postID string) ([]*models.Comment, error) {
	var out []*models.Comment
	err := e.view(ctx, func(tx storage.Tx) error {
		p, err := visiblePost(tx, actorID, postID)
		if err != nil {
			return err
		}
		comments, err := tx.CommentsByPost(p.ID)
		if err != nil {
			return err
		}
		for _, c := range comments {
			switch c.Status {
			case models.CommentActive, models.CommentModifying:
				out = append(out, c)
			case models.CommentHidden:
				if actorID == c.AuthorID || actorID == p.AuthorID {
					out = append(out, c)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetCommentStatus applies one edge of the comment state machine. Hiding a
// comment never cascades to its replies.
func (e *Engine) SetCommentStatus(ctx context.Context, commentID, actorID string, to models.CommentStatus) (*models.Comment, error) {
	if !validCommentStatus(to) || to == models.CommentDeleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, to)
	}
	var comment *models.Comment
	err := e.atomic(ctx, func(tx storage.Tx) error {
		c, l, err := liveComment(tx, commentID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if !l.permits(relAuthorOrPostAuthor, actorID) {
			return fmt.Errorf("%w: not related to this comment", ErrForbidden)
		}
		rel, ok := commentEdges[commentEdge{c.Status, to}]
		if !ok {
			return fmt.Errorf("%w: comment %s -> %s", ErrInvalidTransition, c.Status, to)
		}
		if !l.permits(rel, actorID) {
			return fmt.Errorf("%w: transition is restricted to the comment author", ErrForbidden)
		}
		c.Status = to
		c.UpdatedAt = e.now()
		if err := tx.SaveComment(c); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment marks the comment DELETED and deletes its replies in the
// same transaction. Allowed for the comment author and the post author, from
// any non-DELETED status.
func (e *Engine) DeleteComment(ctx context.Context, commentID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		c, l, err := liveComment(tx, commentID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if !l.permits(relAuthorOrPostAuthor, actorID) {
			return fmt.Errorf("%w: not related to this comment", ErrForbidden)
		}
		now := e.now()
		if err := cascadeCommentDelete(tx, c.ID, now); err != nil {
			return err
		}
		c.Status = models.CommentDeleted
		c.UpdatedAt = now
		if err := tx.SaveComment(c); err != nil {
			return err
		}
		if err := tx.AddCounter(storage.KindPost, c.PostID, storage.CounterComments, -1); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		e.log.Infow("comment deleted", "comment_id", c.ID, "actor_id", actorID)
		return nil
	})
}

// EditComment updates the comment content. Author-only, while the comment is
// ACTIVE or MODIFYING.
func (e *Engine) EditComment(ctx context.Context, commentID, actorID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}
	var comment *models.Comment
	err := e.atomic(ctx, func(tx storage.Tx) error {
		c, _, err := liveComment(tx, commentID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != c.AuthorID {
			return fmt.Errorf("%w: only the author can edit a comment", ErrForbidden)
		}
		if !commentEditable[c.Status] {
			return fmt.Errorf("%w: comment is not editable while %s", ErrInvalidTransition, c.Status)
		}
		c.Content = content
		c.UpdatedAt = e.now()
		if err := tx.SaveComment(c); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// liveComment loads a non-deleted comment together with its author lineage.
func liveComment(tx storage.Tx, commentID string) (*models.Comment, lineage, error) {
	c, err := tx.GetComment(commentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, lineage{}, fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
	}
	if err != nil {
		return nil, lineage{}, err
	}
	if c.Status == models.CommentDeleted {
		return nil, lineage{}, fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
	}
	l := lineage{author: c.AuthorID}
	if p, err := tx.GetPost(c.PostID); err == nil {
		l.postAuthor = p.AuthorID
	}
	return c, l, nil
}
