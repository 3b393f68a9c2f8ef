package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

const maxTagNameLen = 50

// TagUpdate carries a partial tag edit. The name is immutable after
// creation; setting a different one fails.
type TagUpdate struct {
	Name        *string
	Description *string
}

// NormalizeTagName lowercases and trims a tag name. Validation allows ASCII
// letters, digits, hyphens, and Han ideographs; anything else, including
// accented Latin letters, is rejected.
func NormalizeTagName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("%w: tag name cannot be empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > maxTagNameLen {
		return "", fmt.Errorf("%w: tag name exceeds %d characters", ErrInvalidArgument, maxTagNameLen)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		case unicode.Is(unicode.Han, r):
		default:
			return "", fmt.Errorf("%w: tag name contains disallowed character %q", ErrInvalidArgument, r)
		}
	}
	return name, nil
}

// CreateTag creates a tag under its normalized name. The normalized name is
// globally unique; an existing one is a conflict.
func (e *Engine) CreateTag(ctx context.Context, actorID, name, description string) (*models.Tag, error) {
	normalized, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	var tag *models.Tag
	err = e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if _, err := tx.GetTagByName(normalized); err == nil {
			return fmt.Errorf("%w: tag %q already exists", ErrConflict, normalized)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		now := e.now()
		tag = &models.Tag{
			ID:          uuid.NewString(),
			Name:        normalized,
			Description: description,
			CreatorID:   actorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.CreateTag(tag)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// GetTag returns a tag by id.
func (e *Engine) GetTag(ctx context.Context, tagID string) (*models.Tag, error) {
	var tag *models.Tag
	err := e.view(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTag(tagID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
		}
		tag = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns every tag.
func (e *Engine) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := e.view(ctx, func(tx storage.Tx) error {
		t, err := tx.Tags()
		tags = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateTag edits a tag's description. Creator-only. The name cannot change;
// supplying a different one fails with an invalid-argument error.
func (e *Engine) UpdateTag(ctx context.Context, tagID, actorID string, update TagUpdate) (*models.Tag, error) {
	var tag *models.Tag
	err := e.atomic(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTag(tagID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
		}
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != t.CreatorID {
			return fmt.Errorf("%w: only the creator can update a tag", ErrForbidden)
		}
		if update.Name != nil && strings.ToLower(strings.TrimSpace(*update.Name)) != t.Name {
			return fmt.Errorf("%w: tag name is immutable", ErrInvalidArgument)
		}
		if update.Description != nil {
			t.Description = *update.Description
		}
		t.UpdatedAt = e.now()
		if err := tx.SaveTag(t); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes a tag. Creator-only, and only once no post references it.
func (e *Engine) DeleteTag(ctx context.Context, tagID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTag(tagID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
		}
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != t.CreatorID {
			return fmt.Errorf("%w: only the creator can delete a tag", ErrForbidden)
		}
		if t.PostsCount != 0 {
			return fmt.Errorf("%w: tag is attached to %d posts", ErrConflict, t.PostsCount)
		}
		return tx.DeleteTag(tagID)
	})
}

// AttachTag attaches a tag to a post. Post-author-only. Re-attaching an
// already attached tag is an idempotent no-op; posts_count moves only when a
// membership row is actually created.
func (e *Engine) AttachTag(ctx context.Context, postID, tagID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != p.AuthorID {
			return fmt.Errorf("%w: only the post author can attach tags", ErrForbidden)
		}
		return attachTagTx(tx, p.ID, tagID, e.now())
	})
}

// DetachTag removes a tag from a post. Post-author-only; detaching a tag
// that is not attached is a no-op.
func (e *Engine) DetachTag(ctx context.Context, postID, tagID, actorID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		p, err := livePost(tx, postID)
		if err != nil {
			return err
		}
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != p.AuthorID {
			return fmt.Errorf("%w: only the post author can detach tags", ErrForbidden)
		}
		if _, err := tx.GetTag(tagID); errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
		} else if err != nil {
			return err
		}
		err = tx.DeletePostTag(p.ID, tagID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.AddCounter(storage.KindTag, tagID, storage.CounterPosts, -1)
	})
}

// PostTags returns the tags attached to a post the actor may see.
func (e *Engine) PostTags(ctx context.Context, actorID, postID string) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := e.view(ctx, func(tx storage.Tx) error {
		p, err := visiblePost(tx, actorID, postID)
		if err != nil {
			return err
		}
		ids, err := tx.TagIDsByPost(p.ID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			t, err := tx.GetTag(id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			tags = append(tags, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// attachTagTx inserts the membership row if absent and bumps posts_count on
// first attach only.
func attachTagTx(tx storage.Tx, postID, tagID string, now time.Time) error {
	if _, err := tx.GetTag(tagID); errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
	} else if err != nil {
		return err
	}
	if _, err := tx.GetPostTag(postID, tagID); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := tx.CreatePostTag(&models.PostTag{
		ID:        uuid.NewString(),
		PostID:    postID,
		TagID:     tagID,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	return tx.AddCounter(storage.KindTag, tagID, storage.CounterPosts, 1)
}
