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

// PostInput carries the fields for creating a post.
type PostInput struct {
	Title   string
	Content string
	TagIDs  []string
}

// PostEdit carries a partial content edit. Nil fields are left untouched.
type PostEdit struct {
	Title   *string
	Content *string
}

// CreatePost creates a post in DRAFT status owned by the actor, optionally
// attaching tags in the same transaction.
func (e *Engine) CreatePost(ctx context.Context, actorID string, in PostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}

	var post *models.Post
	err := e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		now := e.now()
		post = &models.Post{
			ID:        uuid.NewString(),
			AuthorID:  actorID,
			Title:     title,
			Content:   in.Content,
			Status:    models.PostDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreatePost(post); err != nil {
			return err
		}
		for _, tagID := range in.TagIDs {
			if err := attachTagTx(tx, post.ID, tagID, now); err != nil {
				return err
			}
		}
		e.log.Infow("post created", "post_id", post.ID, "author_id", actorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post visible to the actor and records the view. DRAFT
// posts are visible to their author only; DELETED posts read as not found.
func (e *Engine) GetPost(ctx context.Context, actorID, postID string) (*models.Post, error) {
	var post *models.Post
	err := e.atomic(ctx, func(tx storage.Tx) error {
		p, err := visiblePost(tx, actorID, postID)
		if err != nil {
			return err
		}
		if err := tx.AddCounter(storage.KindPost, p.ID, storage.CounterViews, 1); err != nil {
			return err
		}
		p.ViewsCount++
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns posts visible to the actor, optionally filtered by author
// and status. Drafts appear only in the actor's own listing, deleted posts
// never appear, and content of deactivated authors is excluded from public
// lookups.
func (e *Engine) ListPosts(ctx context.Context, actorID, authorID string, status models.PostStatus) ([]*models.Post, error) {
	if status != "" && !validPostStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	var out []*models.Post
	err := e.view(ctx, func(tx storage.Tx) error {
		posts, err := tx.Posts(authorID)
		if err != nil {
			return err
		}
		activeAuthors := map[string]bool{}
		for _, p := range posts {
			if p.Status == models.PostDeleted {
				continue
			}
			if status != "" && p.Status != status {
				continue
			}
			if p.AuthorID != actorID {
				if p.Status == models.PostDraft {
					continue
				}
				active, ok := activeAuthors[p.AuthorID]
				if !ok {
					u, err := tx.GetUser(p.AuthorID)
					active = err == nil && u.IsActive
					activeAuthors[p.AuthorID] = active
				}
				if !active {
					continue
				}
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPostStatus applies one edge of the post state machine. A successful
// archive hides the post's live comments in the same transaction.
func (e *Engine) SetPostStatus(ctx context.Context, postID, actorID string, to models.PostStatus) (*models.Post, error) {
	if !validPostStatus(to) || to == models.PostDeleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, to)
	}
	var post *models.Post
	err := e.atomic(ctx, func(tx storage.Tx) error {
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != p.AuthorID {
			return fmt.Errorf("%w: only the author can change post status", ErrForbidden)
		}
		if _, ok := postEdges[postEdge{p.Status, to}]; !ok {
			return fmt.Errorf("%w: post %s -> %s", ErrInvalidTransition, p.Status, to)
		}
		from := p.Status
		now := e.now()
		p.Status = to
		p.UpdatedAt = now
		if err := tx.SavePost(p); err != nil {
			return err
		}
		if to == models.PostArchived {
			if err := cascadePostArchive(tx, p.ID, now); err != nil {
				return err
			}
		}
		e.log.Infow("post status changed", "post_id", p.ID, "from", from, "to", to)
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost marks the post DELETED and cascades: every comment and reply
// beneath it is deleted and every tag membership is released, all in one
// transaction. Author-only, from any non-DELETED status.
func (e *Engine) DeletePost(ctx context.Context, postID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != p.AuthorID {
			return fmt.Errorf("%w: only the author can delete a post", ErrForbidden)
		}
		now := e.now()
		if err := cascadePostDelete(tx, p.ID, now); err != nil {
			return err
		}
		p.Status = models.PostDeleted
		p.UpdatedAt = now
		if err := tx.SavePost(p); err != nil {
			return err
		}
		e.log.Infow("post deleted", "post_id", p.ID, "actor_id", actorID)
		return nil
	})
}

// EditPost updates title and/or content. Allowed for the author while the
// post is DRAFT, ACTIVE, or MODIFYING; rejected once archived. Edits are
// counter-neutral.
func (e *Engine) EditPost(ctx context.Context, postID, actorID string, edit PostEdit) (*models.Post, error) {
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidArgument)
	}
	if edit.Content != nil && strings.TrimSpace(*edit.Content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidArgument)
	}
	var post *models.Post
	err := e.atomic(ctx, func(tx storage.Tx) error {
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != p.AuthorID {
			return fmt.Errorf("%w: only the author can edit a post", ErrForbidden)
		}
		if !postEditable[p.Status] {
			return fmt.Errorf("%w: post is not editable while %s", ErrInvalidTransition, p.Status)
		}
		if edit.Title != nil {
			p.Title = strings.TrimSpace(*edit.Title)
		}
		if edit.Content != nil {
			p.Content = *edit.Content
		}
		p.UpdatedAt = e.now()
		if err := tx.SavePost(p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// livePost loads a post, mapping absence and DELETED to ErrNotFound.
func livePost(tx storage.Tx, postID string) (*models.Post, error) {
	p, err := tx.GetPost(postID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	if err != nil {
		return nil, err
	}
	if p.Status == models.PostDeleted {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	return p, nil
}

// visiblePost loads a post and enforces read visibility for the actor.
func visiblePost(tx storage.Tx, actorID, postID string) (*models.Post, error) {
	p, err := livePost(tx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID == actorID {
		return p, nil
	}
	if p.Status == models.PostDraft {
		return nil, fmt.Errorf("%w: draft is visible to its author only", ErrForbidden)
	}
	author, err := tx.GetUser(p.AuthorID)
	if err == nil && !author.IsActive {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	return p, nil
}
