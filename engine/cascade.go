package engine

import (
	"time"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

// Cascades compute the full batch of descendant changes before applying any
// of them, and run inside the transaction that carries the triggering status
// write. The hierarchy is exactly two levels deep (Post -> Comment -> Reply),
// so propagation is a bounded pass over the affected subtree, never a
// recursive walk. Re-running a cascade is a no-op for rows already in the
// target status.

// cascadePostArchive hides the post's live comments. Replies keep their own
// status: a hidden comment does not hide what hangs beneath it.
func cascadePostArchive(tx storage.Tx, postID string, now time.Time) error {
	comments, err := tx.CommentsByPost(postID)
	if err != nil {
		return err
	}
	var hide []string
	for _, c := range comments {
		if c.Status == models.CommentActive || c.Status == models.CommentModifying {
			hide = append(hide, c.ID)
		}
	}
	if len(hide) == 0 {
		return nil
	}
	return tx.SetCommentStatuses(hide, models.CommentHidden, now)
}

// cascadePostDelete deletes every non-deleted comment and reply beneath the
// post and releases its tag memberships, settling each tag's posts_count.
// The post's own status write stays with the caller so the whole subtree
// flips in the enclosing transaction.
func cascadePostDelete(tx storage.Tx, postID string, now time.Time) error {
	comments, err := tx.CommentsByPost(postID)
	if err != nil {
		return err
	}
	var commentIDs, doomed []string
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
		if c.Status != models.CommentDeleted {
			doomed = append(doomed, c.ID)
		}
	}

	replies, err := tx.RepliesByComments(commentIDs)
	if err != nil {
		return err
	}
	var doomedReplies []string
	for _, r := range replies {
		if r.Status != models.ReplyDeleted {
			doomedReplies = append(doomedReplies, r.ID)
		}
	}

	if len(doomedReplies) > 0 {
		if err := tx.SetReplyStatuses(doomedReplies, models.ReplyDeleted, now); err != nil {
			return err
		}
	}
	if len(doomed) > 0 {
		if err := tx.SetCommentStatuses(doomed, models.CommentDeleted, now); err != nil {
			return err
		}
	}

	released, err := tx.DeletePostTagsByPost(postID)
	if err != nil {
		return err
	}
	for _, tagID := range released {
		if err := tx.AddCounter(storage.KindTag, tagID, storage.CounterPosts, -1); err != nil {
			return err
		}
	}
	return nil
}

// cascadeCommentDelete deletes the comment's non-deleted replies. Hiding a
// comment has no cascade at all.
func cascadeCommentDelete(tx storage.Tx, commentID string, now time.Time) error {
	replies, err := tx.RepliesByComment(commentID)
	if err != nil {
		return err
	}
	var doomed []string
	for _, r := range replies {
		if r.Status != models.ReplyDeleted {
			doomed = append(doomed, r.ID)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return tx.SetReplyStatuses(doomed, models.ReplyDeleted, now)
}
