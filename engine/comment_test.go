package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
)

func TestCreateCommentRequiresActivePost(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	commenter := env.user()

	active := env.post(author.ID, models.PostActive)
	comment, err := env.eng.CreateComment(env.ctx, active.ID, commenter.ID, "nice post")
	require.NoError(t, err)
	assert.Equal(t, models.CommentActive, comment.Status)
	assert.Equal(t, 1, env.getPost(active.ID).CommentsCount)

	for _, status := range []models.PostStatus{models.PostDraft, models.PostModifying, models.PostArchived} {
		p := env.post(author.ID, status)
		_, err := env.eng.CreateComment(env.ctx, p.ID, commenter.ID, "hello")
		assert.ErrorIs(t, err, ErrInvalidTransition, "commenting on a %s post", status)
	}

	deleted := env.post(author.ID, models.PostDeleted)
	_, err = env.eng.CreateComment(env.ctx, deleted.ID, commenter.ID, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.eng.CreateComment(env.ctx, active.ID, commenter.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCommentStatusTransitions(t *testing.T) {
	cases := []struct {
		from models.CommentStatus
		to   models.CommentStatus
		ok   bool
	}{
		{models.CommentActive, models.CommentModifying, true},
		{models.CommentModifying, models.CommentActive, true},
		{models.CommentActive, models.CommentHidden, true},
		{models.CommentModifying, models.CommentHidden, false},
		{models.CommentHidden, models.CommentActive, false},
		{models.CommentHidden, models.CommentModifying, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			env := newTestEnv(t)
			postAuthor := env.user()
			commenter := env.user()
			post := env.post(postAuthor.ID, models.PostActive)
			comment := env.comment(post.ID, commenter.ID, tc.from)

			got, err := env.eng.SetCommentStatus(env.ctx, comment.ID, commenter.ID, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestHideCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	stranger := env.user()
	post := env.post(postAuthor.ID, models.PostActive)

	// The post author may hide someone else's comment.
	c1 := env.comment(post.ID, commenter.ID, models.CommentActive)
	got, err := env.eng.SetCommentStatus(env.ctx, c1.ID, postAuthor.ID, models.CommentHidden)
	require.NoError(t, err)
	assert.Equal(t, models.CommentHidden, got.Status)

	// A stranger may not touch it at all.
	c2 := env.comment(post.ID, commenter.ID, models.CommentActive)
	_, err = env.eng.SetCommentStatus(env.ctx, c2.ID, stranger.ID, models.CommentHidden)
	assert.ErrorIs(t, err, ErrForbidden)

	// MODIFYING is an author-only lane: the post author is related, but the
	// edge itself is restricted to the comment author.
	c3 := env.comment(post.ID, commenter.ID, models.CommentActive)
	_, err = env.eng.SetCommentStatus(env.ctx, c3.ID, postAuthor.ID, models.CommentModifying)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListCommentsVisibility(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	reader := env.user()
	post := env.post(postAuthor.ID, models.PostActive)

	active := env.comment(post.ID, commenter.ID, models.CommentActive)
	modifying := env.comment(post.ID, commenter.ID, models.CommentModifying)
	hidden := env.comment(post.ID, commenter.ID, models.CommentHidden)
	env.comment(post.ID, commenter.ID, models.CommentDeleted)

	ids := func(cs []*models.Comment) map[string]bool {
		out := map[string]bool{}
		for _, c := range cs {
			out[c.ID] = true
		}
		return out
	}

	// A third party sees active and modifying comments only.
	cs, err := env.eng.ListComments(env.ctx, reader.ID, post.ID)
	require.NoError(t, err)
	got := ids(cs)
	assert.True(t, got[active.ID])
	assert.True(t, got[modifying.ID])
	assert.False(t, got[hidden.ID])
	assert.Len(t, cs, 2)

	// The comment author and the post author also see the hidden one.
	cs, err = env.eng.ListComments(env.ctx, commenter.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, ids(cs)[hidden.ID])
	cs, err = env.eng.ListComments(env.ctx, postAuthor.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, ids(cs)[hidden.ID])
}

func TestEditComment(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	post := env.post(postAuthor.ID, models.PostActive)

	editable := env.comment(post.ID, commenter.ID, models.CommentModifying)
	got, err := env.eng.EditComment(env.ctx, editable.ID, commenter.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	hidden := env.comment(post.ID, commenter.ID, models.CommentHidden)
	_, err = env.eng.EditComment(env.ctx, hidden.ID, commenter.ID, "edited")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Even the post author cannot edit someone else's comment.
	_, err = env.eng.EditComment(env.ctx, editable.ID, postAuthor.ID, "edited")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteCommentCascadesToReplies(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	replier := env.user()
	post := env.post(postAuthor.ID, models.PostActive)
	comment := env.comment(post.ID, commenter.ID, models.CommentActive)

	r1 := env.reply(comment.ID, replier.ID, models.ReplyActive)
	r2 := env.reply(comment.ID, replier.ID, models.ReplyHidden)

	require.NoError(t, env.eng.DeleteComment(env.ctx, comment.ID, commenter.ID))

	assert.Equal(t, models.CommentDeleted, env.getComment(comment.ID).Status)
	assert.Equal(t, models.ReplyDeleted, env.getReply(r1.ID).Status)
	assert.Equal(t, models.ReplyDeleted, env.getReply(r2.ID).Status)
}

func TestDeleteCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	stranger := env.user()
	post := env.post(postAuthor.ID, models.PostActive)

	// The post author can moderate away any comment under their post.
	c1 := env.comment(post.ID, commenter.ID, models.CommentHidden)
	require.NoError(t, env.eng.DeleteComment(env.ctx, c1.ID, postAuthor.ID))

	c2 := env.comment(post.ID, commenter.ID, models.CommentActive)
	err := env.eng.DeleteComment(env.ctx, c2.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
