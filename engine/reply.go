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

// CreateReply adds an ACTIVE reply to a comment. The parent comment must be
// ACTIVE; a hidden or modifying comment does not accept replies.
func (e *Engine) CreateReply(ctx context.Context, commentID, actorID, content string) (*models.Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}
	var reply *models.Reply
	err := e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		c, _, err := liveComment(tx, commentID)
		if err != nil {
			return err
		}
		if c.Status != models.CommentActive {
			return fmt.Errorf("%w: cannot reply to a %s comment", ErrInvalidTransition, c.Status)
		}
		now := e.now()
		reply = &models.Reply{
			ID:        uuid.NewString(),
			CommentID: c.ID,
			AuthorID:  actorID,
			Content:   content,
			Status:    models.ReplyActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateReply(reply); err != nil {
			return err
		}
		return tx.AddCounter(storage.KindComment, c.ID, storage.CounterReplies, 1)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// ListReplies returns the replies of a comment the actor may see: ACTIVE
// replies for everyone, HIDDEN ones for their author and the ancestors'
// authors.
func (e *Engine) ListReplies(ctx context.Context, actorID, commentID string) ([]*models.Reply, error) {
	var out []*models.Reply
	err := e.view(ctx, func(tx storage.Tx) error {
		c, l, err := liveComment(tx, commentID)
		if err != nil {
			return err
		}
		replies, err := tx.RepliesByComment(c.ID)
		if err != nil {
			return err
		}
		for _, r := range replies {
			switch r.Status {
			case models.ReplyActive:
				out = append(out, r)
			case models.ReplyHidden:
				if actorID == r.AuthorID || actorID == l.author || actorID == l.postAuthor {
					out = append(out, r)
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

// SetReplyStatus applies one edge of the reply state machine. Replies are
// leaves, so no transition here ever cascades.
func (e *Engine) SetReplyStatus(ctx context.Context, replyID, actorID string, to models.ReplyStatus) (*models.Reply, error) {
	if !validReplyStatus(to) || to == models.ReplyDeleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, to)
	}
	var reply *models.Reply
	err := e.atomic(ctx, func(tx storage.Tx) error {
		r, l, err := liveReply(tx, replyID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if !l.permits(relAuthorOrAncestor, actorID) {
			return fmt.Errorf("%w: not related to this reply", ErrForbidden)
		}
		rel, ok := replyEdges[replyEdge{r.Status, to}]
		if !ok {
			return fmt.Errorf("%w: reply %s -> %s", ErrInvalidTransition, r.Status, to)
		}
		if !l.permits(rel, actorID) {
			return fmt.Errorf("%w: not related to this reply", ErrForbidden)
		}
		r.Status = to
		r.UpdatedAt = e.now()
		if err := tx.SaveReply(r); err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// DeleteReply marks the reply DELETED. Allowed for the reply author, the
// parent comment author, and the post author, from any non-DELETED status.
func (e *Engine) DeleteReply(ctx context.Context, replyID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		r, l, err := liveReply(tx, replyID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if !l.permits(relAuthorOrAncestor, actorID) {
			return fmt.Errorf("%w: not related to this reply", ErrForbidden)
		}
		now := e.now()
		r.Status = models.ReplyDeleted
		r.UpdatedAt = now
		if err := tx.SaveReply(r); err != nil {
			return err
		}
		if err := tx.AddCounter(storage.KindComment, r.CommentID, storage.CounterReplies, -1); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
}

// EditReply updates the reply content. Author-only, while the reply is ACTIVE.
func (e *Engine) EditReply(ctx context.Context, replyID, actorID, content string) (*models.Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}
	var reply *models.Reply
	err := e.atomic(ctx, func(tx storage.Tx) error {
		r, _, err := liveReply(tx, replyID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != r.AuthorID {
			return fmt.Errorf("%w: only the author can edit a reply", ErrForbidden)
		}
		if r.Status != models.ReplyActive {
			return fmt.Errorf("%w: reply is not editable while %s", ErrInvalidTransition, r.Status)
		}
		r.Content = content
		r.UpdatedAt = e.now()
		if err := tx.SaveReply(r); err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// liveReply loads a non-deleted reply together with its full lineage.
func liveReply(tx storage.Tx, replyID string) (*models.Reply, lineage, error) {
	r, err := tx.GetReply(replyID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, lineage{}, fmt.Errorf("%w: reply %s", ErrNotFound, replyID)
	}
	if err != nil {
		return nil, lineage{}, err
	}
	if r.Status == models.ReplyDeleted {
		return nil, lineage{}, fmt.Errorf("%w: reply %s", ErrNotFound, replyID)
	}
	l := lineage{author: r.AuthorID}
	if c, err := tx.GetComment(r.CommentID); err == nil {
		l.commentAuthor = c.AuthorID
		if p, err := tx.GetPost(c.PostID); err == nil {
			l.postAuthor = p.AuthorID
		}
	}
	return r, l, nil
}
