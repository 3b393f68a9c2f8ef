package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
)

func TestReactOnPost(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	fan := env.user()
	post := env.post(author.ID, models.PostActive)

	r, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, r.Type)

	got := env.getPost(post.ID)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, 0, got.DislikesCount)
}

func TestReactDuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	fan := env.user()
	post := env.post(author.ID, models.PostActive)

	_, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	require.NoError(t, err)

	_, err = env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrConflict)

	// The counter did not move on the failed attempt.
	assert.Equal(t, 1, env.getPost(post.ID).LikesCount)
}

func TestReactFlipSwapsCounters(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	fan := env.user()
	post := env.post(author.ID, models.PostActive)

	_, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	require.NoError(t, err)

	r, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDislike, r.Type)

	got := env.getPost(post.ID)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)
}

func TestReactTargetsCommentsAndReplies(t *testing.T) {
	env := newTestEnv(t)
	postAuthor := env.user()
	commenter := env.user()
	replier := env.user()
	fan := env.user()
	post := env.post(postAuthor.ID, models.PostActive)
	comment := env.comment(post.ID, commenter.ID, models.CommentActive)
	reply := env.reply(comment.ID, replier.ID, models.ReplyActive)

	_, err := env.eng.React(env.ctx, fan.ID, models.TargetComment, comment.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, env.getComment(comment.ID).LikesCount)

	_, err = env.eng.React(env.ctx, fan.ID, models.TargetReply, reply.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, 1, env.getReply(reply.ID).DislikesCount)

	// Reactions on different targets are independent rows.
	_, err = env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	require.NoError(t, err)
}

func TestReactRequiresActiveTarget(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	fan := env.user()

	draft := env.post(author.ID, models.PostDraft)
	_, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, draft.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	deleted := env.post(author.ID, models.PostDeleted)
	_, err = env.eng.React(env.ctx, fan.ID, models.TargetPost, deleted.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrNotFound)

	active := env.post(author.ID, models.PostActive)
	hidden := env.comment(active.ID, author.ID, models.CommentHidden)
	_, err = env.eng.React(env.ctx, fan.ID, models.TargetComment, hidden.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.eng.React(env.ctx, fan.ID, models.TargetType("page"), active.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.eng.React(env.ctx, fan.ID, models.TargetPost, active.ID, models.ReactionType("LOVE"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnreact(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	fan := env.user()
	other := env.user()
	post := env.post(author.ID, models.PostActive)

	_, err := env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionLike)
	require.NoError(t, err)

	// Only the owner can remove a reaction.
	err = env.eng.Unreact(env.ctx, other.ID, fan.ID, models.TargetPost, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.eng.Unreact(env.ctx, fan.ID, fan.ID, models.TargetPost, post.ID))
	assert.Equal(t, 0, env.getPost(post.ID).LikesCount)

	// Removing a reaction that no longer exists is not found.
	err = env.eng.Unreact(env.ctx, fan.ID, fan.ID, models.TargetPost, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// After removal the user may react again.
	_, err = env.eng.React(env.ctx, fan.ID, models.TargetPost, post.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, 1, env.getPost(post.ID).DislikesCount)
}

func TestConcurrentReactionsKeepCountersExact(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	post := env.post(author.ID, models.PostActive)

	const n = 50
	fans := make([]string, n)
	for i := range fans {
		fans[i] = env.user().ID
	}

	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.eng.React(env.ctx, id, models.TargetPost, post.ID, models.ReactionLike)
			assert.NoError(t, err)
		}(fan)
	}
	wg.Wait()

	got := env.getPost(post.ID)
	assert.Equal(t, n, got.LikesCount)
	assert.Equal(t, 0, got.DislikesCount)
}

func TestConcurrentFlipsKeepCountersExact(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	post := env.post(author.ID, models.PostActive)

	const n = 20
	fans := make([]string, n)
	for i := range fans {
		id := env.user().ID
		fans[i] = id
		_, err := env.eng.React(env.ctx, id, models.TargetPost, post.ID, models.ReactionLike)
		require.NoError(t, err)
	}

	// Everyone flips to DISLIKE at once; each flip swaps both counters in one
	// transaction, so no interleaving can lose or double a unit.
	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.eng.React(env.ctx, id, models.TargetPost, post.ID, models.ReactionDislike)
			assert.NoError(t, err)
		}(fan)
	}
	wg.Wait()

	got := env.getPost(post.ID)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, n, got.DislikesCount)
}
