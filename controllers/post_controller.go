package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freedeaths/SUT-OpenAPI-Blog/engine"
	"github.com/freedeaths/SUT-OpenAPI-Blog/middleware"
	"github.com/freedeaths/SUT-OpenAPI-Blog/models"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

// PostController exposes the post lifecycle over HTTP.
type PostController struct {
	eng *engine.Engine
}

// NewPostController creates a new PostController instance.
func NewPostController(eng *engine.Engine) *PostController {
	return &PostController{eng: eng}
}

// CreatePost creates a new draft for the authenticated user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string   `json:"title" binding:"required,min=1,max=255"`
		Content string   `json:"content" binding:"required"`
		TagIDs  []string `json:"tag_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	post, err := p.eng.CreatePost(ctx, actorID, engine.PostInput{
		Title:   utils.Sanitize(strings.TrimSpace(req.Title)),
		Content: utils.Sanitize(req.Content),
		TagIDs:  req.TagIDs,
	})
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"post": post})
}

// GetPost returns a single post. Every successful read counts a view,
// whatever the post's status.
func (p *PostController) GetPost(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	post, err := p.eng.GetPost(ctx, actorID, ctx.Param("id"))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns posts visible to the caller, optionally filtered by
// author and status. Anonymous unfiltered listings are served from cache.
func (p *PostController) ListPosts(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	authorID := strings.TrimSpace(ctx.Query("author_id"))
	status := models.PostStatus(strings.ToUpper(strings.TrimSpace(ctx.Query("status"))))

	// Cache only the anonymous views to keep keys viewer-independent.
	cacheKey := ""
	if actorID == "" {
		cacheKey = "cache:posts:list:author=" + authorID + ":status=" + string(status)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	posts, err := p.eng.ListPosts(ctx, actorID, authorID, status)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	body := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"posts": posts}}
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, body, 0)
	}
	ctx.JSON(http.StatusOK, body)
}

// UpdatePostStatus drives the post through its lifecycle.
func (p *PostController) UpdatePostStatus(ctx *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	post, err := p.eng.SetPostStatus(ctx, ctx.Param("id"), actorID, models.PostStatus(strings.ToUpper(req.Status)))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost applies a content edit to an editable post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
		Content *string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	edit := engine.PostEdit{}
	if req.Title != nil {
		t := utils.Sanitize(strings.TrimSpace(*req.Title))
		edit.Title = &t
	}
	if req.Content != nil {
		c := utils.Sanitize(*req.Content)
		edit.Content = &c
	}

	actorID := middleware.CurrentUserID(ctx)
	post, err := p.eng.EditPost(ctx, ctx.Param("id"), actorID, edit)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost marks the post DELETED and cascades to its comment tree,
// reactions visibility and tag usage counts.
func (p *PostController) DeletePost(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := p.eng.DeletePost(ctx, ctx.Param("id"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:tags:")
	utils.Success(ctx, gin.H{"deleted": true})
}
