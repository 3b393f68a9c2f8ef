package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freedeaths/SUT-OpenAPI-Blog/engine"
	"github.com/freedeaths/SUT-OpenAPI-Blog/middleware"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

// TagController manages the tag catalog and post-tag attachments.
type TagController struct {
	eng *engine.Engine
}

// NewTagController creates a new TagController instance.
func NewTagController(eng *engine.Engine) *TagController {
	return &TagController{eng: eng}
}

// CreateTag registers a new tag under its normalized name.
func (t *TagController) CreateTag(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=50"`
		Description string `json:"description" binding:"max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	tag, err := t.eng.CreateTag(ctx, actorID, req.Name, utils.Sanitize(req.Description))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:tags:")
	utils.Success(ctx, gin.H{"tag": tag})
}

// GetTag returns one tag by ID.
func (t *TagController) GetTag(ctx *gin.Context) {
	tag, err := t.eng.GetTag(ctx, ctx.Param("id"))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"tag": tag})
}

// ListTags returns the whole catalog, served from cache when possible.
func (t *TagController) ListTags(ctx *gin.Context) {
	const cacheKey = "cache:tags:list"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	tags, err := t.eng.ListTags(ctx)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	body := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"tags": tags}}
	utils.CacheSetJSON(cacheKey, body, 0)
	ctx.JSON(http.StatusOK, body)
}

// UpdateTag edits a tag description. The name is immutable.
func (t *TagController) UpdateTag(ctx *gin.Context) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description" binding:"omitempty,max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	update := engine.TagUpdate{Name: req.Name}
	if req.Description != nil {
		d := utils.Sanitize(*req.Description)
		update.Description = &d
	}

	actorID := middleware.CurrentUserID(ctx)
	tag, err := t.eng.UpdateTag(ctx, ctx.Param("id"), actorID, update)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:tags:")
	utils.Success(ctx, gin.H{"tag": tag})
}

// DeleteTag removes an unused tag.
func (t *TagController) DeleteTag(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := t.eng.DeleteTag(ctx, ctx.Param("id"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:tags:")
	utils.Success(ctx, gin.H{"deleted": true})
}

// AttachTag links a tag to a post. Attaching an already linked tag is a no-op.
func (t *TagController) AttachTag(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := t.eng.AttachTag(ctx, ctx.Param("id"), ctx.Param("tagID"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:tags:")
	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"attached": true})
}

// DetachTag unlinks a tag from a post.
func (t *TagController) DetachTag(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := t.eng.DetachTag(ctx, ctx.Param("id"), ctx.Param("tagID"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:tags:")
	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"detached": true})
}

// PostTags lists the tags attached to a post.
func (t *TagController) PostTags(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	tags, err := t.eng.PostTags(ctx, actorID, ctx.Param("id"))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"tags": tags})
}
