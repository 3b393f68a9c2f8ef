package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

// Store implements storage.Store in memory. A single RWMutex serializes
// mutations, which trivially satisfies the per-aggregate serialization the
// engine requires. Getters hand out copies: entities read inside a
// transaction only become visible to other readers once saved back.
type Store struct {
	mu sync.RWMutex

	users            map[string]*models.User
	userByName       map[string]string
	userByEmail      map[string]string
	posts            map[string]*models.Post
	comments         map[string]*models.Comment
	commentsByPost   map[string][]string
	replies          map[string]*models.Reply
	repliesByComment map[string][]string
	reactions        map[string]*models.Reaction
	reactionByKey    map[reactionKey]string
	tags             map[string]*models.Tag
	tagByName        map[string]string
	postTags         map[postTagKey]*models.PostTag
	tagsByPost       map[string][]string
}

type reactionKey struct {
	userID   string
	target   models.TargetType
	targetID string
}

type postTagKey struct {
	postID string
	tagID  string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:            make(map[string]*models.User),
		userByName:       make(map[string]string),
		userByEmail:      make(map[string]string),
		posts:            make(map[string]*models.Post),
		comments:         make(map[string]*models.Comment),
		commentsByPost:   make(map[string][]string),
		replies:          make(map[string]*models.Reply),
		repliesByComment: make(map[string][]string),
		reactions:        make(map[string]*models.Reaction),
		reactionByKey:    make(map[reactionKey]string),
		tags:             make(map[string]*models.Tag),
		tagByName:        make(map[string]string),
		postTags:         make(map[postTagKey]*models.PostTag),
		tagsByPost:       make(map[string][]string),
	}
}

// Atomic runs fn under the write lock. The in-memory store never loses a
// serialization race, so it never returns storage.ErrTxConflict. A snapshot
// taken before fn runs is restored when fn fails, so a mid-transaction error
// never leaves partial writes behind.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&tx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// View runs fn under the read lock.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{s: s})
}

type tx struct {
	s *Store
}

// === Users ===

func (t *tx) GetUser(id string) (*models.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *tx) GetUserByUsername(username string) (*models.User, error) {
	id, ok := t.s.userByName[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.GetUser(id)
}

func (t *tx) GetUserByEmail(email string) (*models.User, error) {
	id, ok := t.s.userByEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.GetUser(id)
}

func (t *tx) CreateUser(u *models.User) error {
	cp := *u
	t.s.users[u.ID] = &cp
	t.s.userByName[u.Username] = u.ID
	t.s.userByEmail[u.Email] = u.ID
	return nil
}

func (t *tx) SaveUser(u *models.User) error {
	if _, ok := t.s.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *u
	t.s.users[u.ID] = &cp
	return nil
}

// === Posts ===

func (t *tx) GetPost(id string) (*models.Post, error) {
	p, ok := t.s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *tx) CreatePost(p *models.Post) error {
	cp := *p
	t.s.posts[p.ID] = &cp
	return nil
}

func (t *tx) SavePost(p *models.Post) error {
	if _, ok := t.s.posts[p.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *p
	t.s.posts[p.ID] = &cp
	return nil
}

func (t *tx) Posts(authorID string) ([]*models.Post, error) {
	out := make([]*models.Post, 0, len(t.s.posts))
	for _, p := range t.s.posts {
		if authorID != "" && p.AuthorID != authorID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// === Comments ===

func (t *tx) GetComment(id string) (*models.Comment, error) {
	c, ok := t.s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *tx) CreateComment(c *models.Comment) error {
	cp := *c
	t.s.comments[c.ID] = &cp
	t.s.commentsByPost[c.PostID] = append(t.s.commentsByPost[c.PostID], c.ID)
	return nil
}

func (t *tx) SaveComment(c *models.Comment) error {
	if _, ok := t.s.comments[c.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *c
	t.s.comments[c.ID] = &cp
	return nil
}

func (t *tx) CommentsByPost(postID string) ([]*models.Comment, error) {
	ids := t.s.commentsByPost[postID]
	out := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := t.s.comments[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *tx) SetCommentStatuses(ids []string, status models.CommentStatus, now time.Time) error {
	for _, id := range ids {
		c, ok := t.s.comments[id]
		if !ok {
			return storage.ErrNotFound
		}
		c.Status = status
		c.UpdatedAt = now
	}
	return nil
}

// === Replies ===

func (t *tx) GetReply(id string) (*models.Reply, error) {
	r, ok := t.s.replies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *tx) CreateReply(r *models.Reply) error {
	cp := *r
	t.s.replies[r.ID] = &cp
	t.s.repliesByComment[r.CommentID] = append(t.s.repliesByComment[r.CommentID], r.ID)
	return nil
}

func (t *tx) SaveReply(r *models.Reply) error {
	if _, ok := t.s.replies[r.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *r
	t.s.replies[r.ID] = &cp
	return nil
}

func (t *tx) RepliesByComment(commentID string) ([]*models.Reply, error) {
	return t.RepliesByComments([]string{commentID})
}

func (t *tx) RepliesByComments(commentIDs []string) ([]*models.Reply, error) {
	var out []*models.Reply
	for _, cid := range commentIDs {
		for _, rid := range t.s.repliesByComment[cid] {
			if r, ok := t.s.replies[rid]; ok {
				cp := *r
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *tx) SetReplyStatuses(ids []string, status models.ReplyStatus, now time.Time) error {
	for _, id := range ids {
		r, ok := t.s.replies[id]
		if !ok {
			return storage.ErrNotFound
		}
		r.Status = status
		r.UpdatedAt = now
	}
	return nil
}

// === Reactions ===

func (t *tx) GetReaction(userID string, target models.TargetType, targetID string) (*models.Reaction, error) {
	id, ok := t.s.reactionByKey[reactionKey{userID, target, targetID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t.s.reactions[id]
	return &cp, nil
}

func (t *tx) CreateReaction(r *models.Reaction) error {
	cp := *r
	t.s.reactions[r.ID] = &cp
	t.s.reactionByKey[reactionKey{r.UserID, r.TargetType, r.TargetID}] = r.ID
	return nil
}

func (t *tx) SaveReaction(r *models.Reaction) error {
	if _, ok := t.s.reactions[r.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *r
	t.s.reactions[r.ID] = &cp
	return nil
}

func (t *tx) DeleteReaction(id string) error {
	r, ok := t.s.reactions[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(t.s.reactionByKey, reactionKey{r.UserID, r.TargetType, r.TargetID})
	delete(t.s.reactions, id)
	return nil
}

// === Tags ===

func (t *tx) GetTag(id string) (*models.Tag, error) {
	tg, ok := t.s.tags[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *tg
	return &cp, nil
}

func (t *tx) GetTagByName(name string) (*models.Tag, error) {
	id, ok := t.s.tagByName[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.GetTag(id)
}

func (t *tx) CreateTag(tg *models.Tag) error {
	cp := *tg
	t.s.tags[tg.ID] = &cp
	t.s.tagByName[tg.Name] = tg.ID
	return nil
}

func (t *tx) SaveTag(tg *models.Tag) error {
	if _, ok := t.s.tags[tg.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *tg
	t.s.tags[tg.ID] = &cp
	return nil
}

func (t *tx) DeleteTag(id string) error {
	tg, ok := t.s.tags[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(t.s.tagByName, tg.Name)
	delete(t.s.tags, id)
	return nil
}

func (t *tx) Tags() ([]*models.Tag, error) {
	out := make([]*models.Tag, 0, len(t.s.tags))
	for _, tg := range t.s.tags {
		cp := *tg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// === Post tags ===

func (t *tx) GetPostTag(postID, tagID string) (*models.PostTag, error) {
	pt, ok := t.s.postTags[postTagKey{postID, tagID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *pt
	return &cp, nil
}

func (t *tx) CreatePostTag(pt *models.PostTag) error {
	cp := *pt
	t.s.postTags[postTagKey{pt.PostID, pt.TagID}] = &cp
	t.s.tagsByPost[pt.PostID] = append(t.s.tagsByPost[pt.PostID], pt.TagID)
	return nil
}

func (t *tx) DeletePostTag(postID, tagID string) error {
	if _, ok := t.s.postTags[postTagKey{postID, tagID}]; !ok {
		return storage.ErrNotFound
	}
	delete(t.s.postTags, postTagKey{postID, tagID})
	ids := t.s.tagsByPost[postID]
	for i, id := range ids {
		if id == tagID {
			t.s.tagsByPost[postID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (t *tx) DeletePostTagsByPost(postID string) ([]string, error) {
	ids := t.s.tagsByPost[postID]
	removed := make([]string, 0, len(ids))
	for _, tagID := range ids {
		delete(t.s.postTags, postTagKey{postID, tagID})
		removed = append(removed, tagID)
	}
	delete(t.s.tagsByPost, postID)
	return removed, nil
}

func (t *tx) TagIDsByPost(postID string) ([]string, error) {
	ids := t.s.tagsByPost[postID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// === Counters ===

func (t *tx) AddCounter(kind storage.CounterKind, id string, field storage.CounterField, delta int) error {
	switch kind {
	case storage.KindPost:
		p, ok := t.s.posts[id]
		if !ok {
			return storage.ErrNotFound
		}
		switch field {
		case storage.CounterLikes:
			p.LikesCount += delta
		case storage.CounterDislikes:
			p.DislikesCount += delta
		case storage.CounterViews:
			p.ViewsCount += delta
		case storage.CounterComments:
			p.CommentsCount += delta
		default:
			return fmt.Errorf("memstore: post has no counter %q", field)
		}
	case storage.KindComment:
		c, ok := t.s.comments[id]
		if !ok {
			return storage.ErrNotFound
		}
		switch field {
		case storage.CounterLikes:
			c.LikesCount += delta
		case storage.CounterDislikes:
			c.DislikesCount += delta
		case storage.CounterReplies:
			c.RepliesCount += delta
		default:
			return fmt.Errorf("memstore: comment has no counter %q", field)
		}
	case storage.KindReply:
		r, ok := t.s.replies[id]
		if !ok {
			return storage.ErrNotFound
		}
		switch field {
		case storage.CounterLikes:
			r.LikesCount += delta
		case storage.CounterDislikes:
			r.DislikesCount += delta
		default:
			return fmt.Errorf("memstore: reply has no counter %q", field)
		}
	case storage.KindTag:
		tg, ok := t.s.tags[id]
		if !ok {
			return storage.ErrNotFound
		}
		if field != storage.CounterPosts {
			return fmt.Errorf("memstore: tag has no counter %q", field)
		}
		tg.PostsCount += delta
	default:
		return fmt.Errorf("memstore: unknown counter kind %q", kind)
	}
	return nil
}

// === Snapshot ===

// snapshot deep-copies every table and index. Entities are stored as struct
// copies already, so cloning each map one level deep is a full rollback image.
type snapshot struct {
	users            map[string]*models.User
	userByName       map[string]string
	userByEmail      map[string]string
	posts            map[string]*models.Post
	comments         map[string]*models.Comment
	commentsByPost   map[string][]string
	replies          map[string]*models.Reply
	repliesByComment map[string][]string
	reactions        map[string]*models.Reaction
	reactionByKey    map[reactionKey]string
	tags             map[string]*models.Tag
	tagByName        map[string]string
	postTags         map[postTagKey]*models.PostTag
	tagsByPost       map[string][]string
}

func cloneEntities[K comparable, V any](src map[K]*V) map[K]*V {
	dst := make(map[K]*V, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

func cloneIndex[K comparable, V comparable](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneLists(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		cp := make([]string, len(v))
		copy(cp, v)
		dst[k] = cp
	}
	return dst
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:            cloneEntities(s.users),
		userByName:       cloneIndex(s.userByName),
		userByEmail:      cloneIndex(s.userByEmail),
		posts:            cloneEntities(s.posts),
		comments:         cloneEntities(s.comments),
		commentsByPost:   cloneLists(s.commentsByPost),
		replies:          cloneEntities(s.replies),
		repliesByComment: cloneLists(s.repliesByComment),
		reactions:        cloneEntities(s.reactions),
		reactionByKey:    cloneIndex(s.reactionByKey),
		tags:             cloneEntities(s.tags),
		tagByName:        cloneIndex(s.tagByName),
		postTags:         cloneEntities(s.postTags),
		tagsByPost:       cloneLists(s.tagsByPost),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.userByName = snap.userByName
	s.userByEmail = snap.userByEmail
	s.posts = snap.posts
	s.comments = snap.comments
	s.commentsByPost = snap.commentsByPost
	s.replies = snap.replies
	s.repliesByComment = snap.repliesByComment
	s.reactions = snap.reactions
	s.reactionByKey = snap.reactionByKey
	s.tags = snap.tags
	s.tagByName = snap.tagByName
	s.postTags = snap.postTags
	s.tagsByPost = snap.tagsByPost
}
