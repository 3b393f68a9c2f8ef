package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

func TestGettersReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreatePost(&models.Post{ID: "p1", AuthorID: "u1", Title: "t", Status: models.PostActive})
	}))

	// Mutating a fetched copy must not leak into the store without SavePost.
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPost("p1")
		require.NoError(t, err)
		p.Title = "mutated"
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPost("p1")
		require.NoError(t, err)
		assert.Equal(t, "t", p.Title)
		return nil
	}))
}

func TestSaveRequiresExistingRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SavePost(&models.Post{ID: "nope"})
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveUser(&models.User{ID: "nope"})
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserIndexes(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &models.User{ID: "u1", Username: "alice", Email: "alice@example.com", IsActive: true}
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateUser(u)
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		byName, err := tx.GetUserByUsername("alice")
		require.NoError(t, err)
		assert.Equal(t, "u1", byName.ID)

		byEmail, err := tx.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", byEmail.ID)

		_, err = tx.GetUserByUsername("bob")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	}))
}

func TestReactionKeyLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := &models.Reaction{ID: "r1", UserID: "u1", TargetType: models.TargetPost, TargetID: "p1", Type: models.ReactionLike}
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreateReaction(r)
	}))

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		got, err := tx.GetReaction("u1", models.TargetPost, "p1")
		require.NoError(t, err)
		assert.Equal(t, "r1", got.ID)

		// Same user, different target kind: distinct key.
		_, err = tx.GetReaction("u1", models.TargetComment, "p1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, tx.DeleteReaction("r1"))
		_, err = tx.GetReaction("u1", models.TargetPost, "p1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	}))
}

func TestBatchStatusUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.CreateComment(&models.Comment{ID: "c1", PostID: "p1", Status: models.CommentActive}))
		require.NoError(t, tx.CreateComment(&models.Comment{ID: "c2", PostID: "p1", Status: models.CommentModifying}))
		require.NoError(t, tx.CreateReply(&models.Reply{ID: "r1", CommentID: "c1", Status: models.ReplyActive}))
		return nil
	}))

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.SetCommentStatuses([]string{"c1", "c2"}, models.CommentHidden, now); err != nil {
			return err
		}
		return tx.SetReplyStatuses([]string{"r1"}, models.ReplyDeleted, now)
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		for _, id := range []string{"c1", "c2"} {
			c, err := tx.GetComment(id)
			require.NoError(t, err)
			assert.Equal(t, models.CommentHidden, c.Status)
			assert.Equal(t, now, c.UpdatedAt)
		}
		r, err := tx.GetReply("r1")
		require.NoError(t, err)
		assert.Equal(t, models.ReplyDeleted, r.Status)
		return nil
	}))
}

func TestAddCounter(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.CreatePost(&models.Post{ID: "p1"}))
		require.NoError(t, tx.CreateTag(&models.Tag{ID: "t1", Name: "golang"}))
		return nil
	}))

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.AddCounter(storage.KindPost, "p1", storage.CounterLikes, 2))
		require.NoError(t, tx.AddCounter(storage.KindPost, "p1", storage.CounterLikes, -1))
		require.NoError(t, tx.AddCounter(storage.KindTag, "t1", storage.CounterPosts, 1))

		// Wrong field for the kind and unknown rows are errors.
		assert.Error(t, tx.AddCounter(storage.KindTag, "t1", storage.CounterLikes, 1))
		assert.ErrorIs(t, tx.AddCounter(storage.KindPost, "missing", storage.CounterLikes, 1), storage.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPost("p1")
		require.NoError(t, err)
		assert.Equal(t, 1, p.LikesCount)

		tg, err := tx.GetTag("t1")
		require.NoError(t, err)
		assert.Equal(t, 1, tg.PostsCount)
		return nil
	}))
}

func TestPostTagMembership(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.CreatePostTag(&models.PostTag{ID: "pt1", PostID: "p1", TagID: "t1"}))
		require.NoError(t, tx.CreatePostTag(&models.PostTag{ID: "pt2", PostID: "p1", TagID: "t2"}))
		require.NoError(t, tx.CreatePostTag(&models.PostTag{ID: "pt3", PostID: "p2", TagID: "t1"}))
		return nil
	}))

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		ids, err := tx.TagIDsByPost("p1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"t1", "t2"}, ids)

		released, err := tx.DeletePostTagsByPost("p1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"t1", "t2"}, released)

		ids, err = tx.TagIDsByPost("p1")
		require.NoError(t, err)
		assert.Empty(t, ids)

		// The other post's membership is untouched.
		ids, err = tx.TagIDsByPost("p2")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, ids)

		assert.ErrorIs(t, tx.DeletePostTag("p1", "t1"), storage.ErrNotFound)
		return nil
	}))
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.CreatePost(&models.Post{ID: "kept", Title: "before"})
	}))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.CreatePost(&models.Post{ID: "doomed"}))
		require.NoError(t, tx.CreateUser(&models.User{ID: "u1", Username: "alice", Email: "a@example.com"}))
		require.NoError(t, tx.AddCounter(storage.KindPost, "kept", storage.CounterLikes, 5))
		p, err := tx.GetPost("kept")
		require.NoError(t, err)
		p.Title = "after"
		require.NoError(t, tx.SavePost(p))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Nothing from the failed transaction is visible: no new rows, no counter
	// movement, no overwritten fields, no index entries.
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		_, err := tx.GetPost("doomed")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = tx.GetUserByUsername("alice")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		p, err := tx.GetPost("kept")
		require.NoError(t, err)
		assert.Equal(t, "before", p.Title)
		assert.Equal(t, 0, p.LikesCount)
		return nil
	}))
}
