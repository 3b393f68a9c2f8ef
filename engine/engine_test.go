package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage/memstore"
)

// testEnv bundles an engine over a fresh in-memory store with seeding helpers.
type testEnv struct {
	t     *testing.T
	ctx   context.Context
	eng   *Engine
	store *memstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	return &testEnv{
		t:     t,
		ctx:   context.Background(),
		eng:   New(store),
		store: store,
	}
}

func (env *testEnv) user() *models.User {
	env.t.Helper()
	u := &models.User{
		ID:       uuid.NewString(),
		Username: "user-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		IsActive: true,
	}
	err := env.store.Atomic(env.ctx, func(tx storage.Tx) error {
		return tx.CreateUser(u)
	})
	require.NoError(env.t, err)
	return u
}

func (env *testEnv) deactivate(userID string) {
	env.t.Helper()
	err := env.store.Atomic(env.ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		u.IsActive = false
		return tx.SaveUser(u)
	})
	require.NoError(env.t, err)
}

// post seeds a post directly in the requested status.
func (env *testEnv) post(authorID string, status models.PostStatus) *models.Post {
	env.t.Helper()
	now := time.Now().UTC()
	p := &models.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     "title",
		Content:   "content",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := env.store.Atomic(env.ctx, func(tx storage.Tx) error {
		return tx.CreatePost(p)
	})
	require.NoError(env.t, err)
	return p
}

func (env *testEnv) comment(postID, authorID string, status models.CommentStatus) *models.Comment {
	env.t.Helper()
	now := time.Now().UTC()
	c := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   "a comment",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := env.store.Atomic(env.ctx, func(tx storage.Tx) error {
		return tx.CreateComment(c)
	})
	require.NoError(env.t, err)
	return c
}

func (env *testEnv) reply(commentID, authorID string, status models.ReplyStatus) *models.Reply {
	env.t.Helper()
	now := time.Now().UTC()
	r := &models.Reply{
		ID:        uuid.NewString(),
		CommentID: commentID,
		AuthorID:  authorID,
		Content:   "a reply",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := env.store.Atomic(env.ctx, func(tx storage.Tx) error {
		return tx.CreateReply(r)
	})
	require.NoError(env.t, err)
	return r
}

func (env *testEnv) getPost(id string) *models.Post {
	env.t.Helper()
	var p *models.Post
	err := env.store.View(env.ctx, func(tx storage.Tx) error {
		got, err := tx.GetPost(id)
		p = got
		return err
	})
	require.NoError(env.t, err)
	return p
}

func (env *testEnv) getComment(id string) *models.Comment {
	env.t.Helper()
	var c *models.Comment
	err := env.store.View(env.ctx, func(tx storage.Tx) error {
		got, err := tx.GetComment(id)
		c = got
		return err
	})
	require.NoError(env.t, err)
	return c
}

func (env *testEnv) getReply(id string) *models.Reply {
	env.t.Helper()
	var r *models.Reply
	err := env.store.View(env.ctx, func(tx storage.Tx) error {
		got, err := tx.GetReply(id)
		r = got
		return err
	})
	require.NoError(env.t, err)
	return r
}

func (env *testEnv) getTag(id string) *models.Tag {
	env.t.Helper()
	var tg *models.Tag
	err := env.store.View(env.ctx, func(tx storage.Tx) error {
		got, err := tx.GetTag(id)
		tg = got
		return err
	})
	require.NoError(env.t, err)
	return tg
}

// conflictingStore fails Atomic with a serialization conflict a fixed number
// of times before delegating to the real store.
type conflictingStore struct {
	inner    storage.Store
	failures int
}

func (s *conflictingStore) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.failures > 0 {
		s.failures--
		return fmt.Errorf("%w: simulated deadlock", storage.ErrTxConflict)
	}
	return s.inner.Atomic(ctx, fn)
}

func (s *conflictingStore) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.inner.View(ctx, fn)
}

func TestAtomicRetriesConflicts(t *testing.T) {
	mem := memstore.New()
	flaky := &conflictingStore{inner: mem, failures: 2}
	eng := New(flaky, WithMaxRetries(3))

	u := &models.User{ID: uuid.NewString(), Username: "u", Email: "u@example.com", IsActive: true}
	require.NoError(t, mem.Atomic(context.Background(), func(tx storage.Tx) error {
		return tx.CreateUser(u)
	}))

	post, err := eng.CreatePost(context.Background(), u.ID, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, models.PostDraft, post.Status)
}

func TestAtomicGivesUpAfterBoundedRetries(t *testing.T) {
	flaky := &conflictingStore{inner: memstore.New(), failures: 100}
	eng := New(flaky, WithMaxRetries(2))

	_, err := eng.CreatePost(context.Background(), "someone", PostInput{Title: "t", Content: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 100-3, flaky.failures, "one initial attempt plus two retries")
}

func TestRequireActor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.CreatePost(env.ctx, "", PostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.eng.CreatePost(env.ctx, "no-such-user", PostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrForbidden)

	u := env.user()
	env.deactivate(u.ID)
	_, err = env.eng.CreatePost(env.ctx, u.ID, PostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrForbidden)
}
