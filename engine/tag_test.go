package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
)

func TestNormalizeTagName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"golang", "golang", false},
		{"  GoLang  ", "golang", false},
		{"CAFE", "cafe", false},
		{"web-dev", "web-dev", false},
		{"go2", "go2", false},
		{"数据库", "数据库", false},
		{"go-数据库", "go-数据库", false},
		{"café-post", "", true},
		{"with space", "", true},
		{"under_score", "", true},
		{"emoji🙂", "", true},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeTagName(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidArgument, "input %q", tc.in)
		} else {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestNormalizeTagNameLength(t *testing.T) {
	long := make([]byte, maxTagNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NormalizeTagName(string(long))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NormalizeTagName(string(long[:maxTagNameLen]))
	assert.NoError(t, err)
}

func TestCreateTagNormalizesAndDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	u := env.user()

	tag, err := env.eng.CreateTag(env.ctx, u.ID, "  GoLang ", "the language")
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Name)
	assert.Equal(t, u.ID, tag.CreatorID)

	// Same name after normalization collides, whoever sends it.
	_, err = env.eng.CreateTag(env.ctx, env.user().ID, "GOLANG", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateTagNameIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user()
	other := env.user()

	tag, err := env.eng.CreateTag(env.ctx, creator.ID, "golang", "old")
	require.NoError(t, err)

	desc := "new description"
	got, err := env.eng.UpdateTag(env.ctx, tag.ID, creator.ID, TagUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)

	// Re-sending the current name (any casing) is tolerated.
	same := "GoLang"
	_, err = env.eng.UpdateTag(env.ctx, tag.ID, creator.ID, TagUpdate{Name: &same})
	require.NoError(t, err)

	renamed := "rust"
	_, err = env.eng.UpdateTag(env.ctx, tag.ID, creator.ID, TagUpdate{Name: &renamed})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.eng.UpdateTag(env.ctx, tag.ID, other.ID, TagUpdate{Description: &desc})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAttachDetachTag(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()
	other := env.user()
	post := env.post(author.ID, models.PostActive)

	tag, err := env.eng.CreateTag(env.ctx, author.ID, "golang", "")
	require.NoError(t, err)

	require.NoError(t, env.eng.AttachTag(env.ctx, post.ID, tag.ID, author.ID))
	assert.Equal(t, 1, env.getTag(tag.ID).PostsCount)

	// Re-attaching is an idempotent no-op.
	require.NoError(t, env.eng.AttachTag(env.ctx, post.ID, tag.ID, author.ID))
	assert.Equal(t, 1, env.getTag(tag.ID).PostsCount)

	// Only the post author manages the post's tags.
	err = env.eng.AttachTag(env.ctx, post.ID, tag.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = env.eng.DetachTag(env.ctx, post.ID, tag.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.eng.DetachTag(env.ctx, post.ID, tag.ID, author.ID))
	assert.Equal(t, 0, env.getTag(tag.ID).PostsCount)

	// Detaching an unattached tag is a no-op, not an error.
	require.NoError(t, env.eng.DetachTag(env.ctx, post.ID, tag.ID, author.ID))
	assert.Equal(t, 0, env.getTag(tag.ID).PostsCount)

	err = env.eng.AttachTag(env.ctx, post.ID, "missing-tag", author.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTagOnlyWhenUnused(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user()
	other := env.user()
	post := env.post(creator.ID, models.PostActive)

	tag, err := env.eng.CreateTag(env.ctx, creator.ID, "golang", "")
	require.NoError(t, err)
	require.NoError(t, env.eng.AttachTag(env.ctx, post.ID, tag.ID, creator.ID))

	err = env.eng.DeleteTag(env.ctx, tag.ID, creator.ID)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, env.eng.DetachTag(env.ctx, post.ID, tag.ID, creator.ID))

	err = env.eng.DeleteTag(env.ctx, tag.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.eng.DeleteTag(env.ctx, tag.ID, creator.ID))
	_, err = env.eng.GetTag(env.ctx, tag.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The name is free again.
	_, err = env.eng.CreateTag(env.ctx, creator.ID, "golang", "")
	require.NoError(t, err)
}

func TestCreatePostWithTags(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()

	t1, err := env.eng.CreateTag(env.ctx, author.ID, "golang", "")
	require.NoError(t, err)
	t2, err := env.eng.CreateTag(env.ctx, author.ID, "web-dev", "")
	require.NoError(t, err)

	post, err := env.eng.CreatePost(env.ctx, author.ID, PostInput{
		Title:   "hello",
		Content: "world",
		TagIDs:  []string{t1.ID, t2.ID},
	})
	require.NoError(t, err)

	tags, err := env.eng.PostTags(env.ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, 1, env.getTag(t1.ID).PostsCount)
	assert.Equal(t, 1, env.getTag(t2.ID).PostsCount)

	// A dangling tag id fails the whole creation and nothing of it persists.
	_, err = env.eng.CreatePost(env.ctx, author.ID, PostInput{
		Title:   "x",
		Content: "y",
		TagIDs:  []string{t1.ID, "missing"},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	posts, err := env.eng.ListPosts(env.ctx, author.ID, author.ID, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
	assert.Equal(t, 1, env.getTag(t1.ID).PostsCount)
}

func TestConcurrentAttachDetachKeepsPostsCountExact(t *testing.T) {
	env := newTestEnv(t)
	author := env.user()

	tag, err := env.eng.CreateTag(env.ctx, author.ID, "golang", "")
	require.NoError(t, err)

	const n = 30
	posts := make([]*models.Post, n)
	for i := range posts {
		posts[i] = env.post(author.ID, models.PostActive)
	}

	// Attach the tag to every post at once, with a duplicate attach racing in
	// for each post: only the first attach per post may move the counter.
	var wg sync.WaitGroup
	for _, p := range posts {
		for range [2]struct{}{} {
			wg.Add(1)
			go func(postID string) {
				defer wg.Done()
				assert.NoError(t, env.eng.AttachTag(env.ctx, postID, tag.ID, author.ID))
			}(p.ID)
		}
	}
	wg.Wait()
	assert.Equal(t, n, env.getTag(tag.ID).PostsCount)

	// Detach half concurrently, again with a duplicate detach per post.
	for _, p := range posts[:n/2] {
		for range [2]struct{}{} {
			wg.Add(1)
			go func(postID string) {
				defer wg.Done()
				assert.NoError(t, env.eng.DetachTag(env.ctx, postID, tag.ID, author.ID))
			}(p.ID)
		}
	}
	wg.Wait()

	// posts_count must equal the exact number of surviving membership rows.
	rows := 0
	for _, p := range posts {
		tags, err := env.eng.PostTags(env.ctx, author.ID, p.ID)
		require.NoError(t, err)
		rows += len(tags)
	}
	assert.Equal(t, n-n/2, rows)
	assert.Equal(t, rows, env.getTag(tag.ID).PostsCount)
}
