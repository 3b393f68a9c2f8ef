package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

// React records a like or dislike on a post, comment, or reply. At most one
// reaction per (user, target) ever exists: a duplicate identical reaction is
// a conflict, and reacting with the opposite type flips the stored row while
// swapping both counters in the same transaction, so no interleaving can
// observe both counters incremented or both at baseline.
func (e *Engine) React(ctx context.Context, actorID string, target models.TargetType, targetID string, typ models.ReactionType) (*models.Reaction, error) {
	if typ != models.ReactionLike && typ != models.ReactionDislike {
		return nil, fmt.Errorf("%w: unknown reaction type %q", ErrInvalidArgument, typ)
	}
	var reaction *models.Reaction
	err := e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if err := reactableTarget(tx, target, targetID); err != nil {
			return err
		}
		existing, err := tx.GetReaction(actorID, target, targetID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			now := e.now()
			reaction = &models.Reaction{
				ID:         uuid.NewString(),
				UserID:     actorID,
				TargetType: target,
				TargetID:   targetID,
				Type:       typ,
				CreatedAt:  now,
			}
			if err := tx.CreateReaction(reaction); err != nil {
				return err
			}
			return tx.AddCounter(storage.CounterKind(target), targetID, counterFor(typ), 1)
		case err != nil:
			return err
		case existing.Type == typ:
			return fmt.Errorf("%w: already reacted with %s", ErrConflict, typ)
		default:
			old := existing.Type
			existing.Type = typ
			if err := tx.SaveReaction(existing); err != nil {
				return err
			}
			if err := tx.AddCounter(storage.CounterKind(target), targetID, counterFor(old), -1); err != nil {
				return err
			}
			if err := tx.AddCounter(storage.CounterKind(target), targetID, counterFor(typ), 1); err != nil {
				return err
			}
			reaction = existing
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return reaction, nil
}

// Unreact removes userID's reaction on the target and decrements the matching
// counter. Only the reaction's owner may remove it.
func (e *Engine) Unreact(ctx context.Context, actorID, userID string, target models.TargetType, targetID string) error {
	return e.atomic(ctx, func(tx storage.Tx) error {
		if err := requireActor(tx, actorID); err != nil {
			return err
		}
		if actorID != userID {
			return fmt.Errorf("%w: cannot remove another user's reaction", ErrForbidden)
		}
		r, err := tx.GetReaction(userID, target, targetID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no reaction on %s %s", ErrNotFound, target, targetID)
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteReaction(r.ID); err != nil {
			return err
		}
		// The target may have been deleted since the reaction was made; the
		// counter of a deleted entity is not observable, so skip it then.
		if err := tx.AddCounter(storage.CounterKind(target), targetID, counterFor(r.Type), -1); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
}

func counterFor(typ models.ReactionType) storage.CounterField {
	if typ == models.ReactionLike {
		return storage.CounterLikes
	}
	return storage.CounterDislikes
}

// reactableTarget checks the target exists and is open for reactions. A
// missing or deleted target reads as not found; any other non-ACTIVE status
// rejects the reaction.
func reactableTarget(tx storage.Tx, target models.TargetType, targetID string) error {
	switch target {
	case models.TargetPost:
		p, err := livePost(tx, targetID)
		if err != nil {
			return err
		}
		if p.Status != models.PostActive {
			return fmt.Errorf("%w: cannot react to a %s post", ErrInvalidArgument, p.Status)
		}
	case models.TargetComment:
		c, _, err := liveComment(tx, targetID)
		if err != nil {
			return err
		}
		if c.Status != models.CommentActive {
			return fmt.Errorf("%w: cannot react to a %s comment", ErrInvalidArgument, c.Status)
		}
	case models.TargetReply:
		r, _, err := liveReply(tx, targetID)
		if err != nil {
			return err
		}
		if r.Status != models.ReplyActive {
			return fmt.Errorf("%w: cannot react to a %s reply", ErrInvalidArgument, r.Status)
		}
	default:
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidArgument, target)
	}
	return nil
}
