package engine

import "github.com/freedeaths/SUT-OpenAPI-Blog/models"

// relationship is the authorship an actor must hold for a transition or
// mutation to be permitted. Guards are declarative table entries rather than
// ad hoc conditionals so every edge can be tested exhaustively.
type relationship int

const (
	// relAuthor: the entity's own author.
	relAuthor relationship = iota
	// relAuthorOrPostAuthor: the entity's author or the parent post's author.
	relAuthorOrPostAuthor
	// relAuthorOrAncestor: the entity's author, the parent comment's author,
	// or the parent post's author.
	relAuthorOrAncestor
)

type postEdge struct {
	from, to models.PostStatus
}

type commentEdge struct {
	from, to models.CommentStatus
}

type replyEdge struct {
	from, to models.ReplyStatus
}

// Transition tables. An absent edge is an invalid transition; DELETED rows
// never appear as a source because deleted entities read as not found, and
// deletion itself is handled separately (allowed from any non-DELETED status).
var (
	postEdges = map[postEdge]relationship{
		{models.PostDraft, models.PostActive}:     relAuthor,
		{models.PostActive, models.PostArchived}:  relAuthor,
		{models.PostActive, models.PostModifying}: relAuthor,
		{models.PostModifying, models.PostActive}: relAuthor,
	}

	commentEdges = map[commentEdge]relationship{
		{models.CommentActive, models.CommentModifying}: relAuthor,
		{models.CommentModifying, models.CommentActive}: relAuthor,
		{models.CommentActive, models.CommentHidden}:    relAuthorOrPostAuthor,
	}

	replyEdges = map[replyEdge]relationship{
		{models.ReplyActive, models.ReplyHidden}: relAuthorOrAncestor,
	}
)

// Content edits share an allowed-status set per kind: a post or comment is
// editable while drafted, active, or being modified, never once archived,
// hidden, or deleted.
var (
	postEditable = map[models.PostStatus]bool{
		models.PostDraft:     true,
		models.PostActive:    true,
		models.PostModifying: true,
	}

	commentEditable = map[models.CommentStatus]bool{
		models.CommentActive:    true,
		models.CommentModifying: true,
	}
)

func validPostStatus(s models.PostStatus) bool {
	switch s {
	case models.PostDraft, models.PostActive, models.PostModifying, models.PostArchived, models.PostDeleted:
		return true
	}
	return false
}

func validCommentStatus(s models.CommentStatus) bool {
	switch s {
	case models.CommentActive, models.CommentModifying, models.CommentHidden, models.CommentDeleted:
		return true
	}
	return false
}

func validReplyStatus(s models.ReplyStatus) bool {
	switch s {
	case models.ReplyActive, models.ReplyHidden, models.ReplyDeleted:
		return true
	}
	return false
}
