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

// CommentController exposes comment operations under a post.
type CommentController struct {
	eng *engine.Engine
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(eng *engine.Engine) *CommentController {
	return &CommentController{eng: eng}
}

// CreateComment adds a comment to an ACTIVE post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	comment, err := c.eng.CreateComment(ctx, ctx.Param("id"), actorID, utils.Sanitize(req.Content))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// ListComments returns the comments visible to the caller for a post.
func (c *CommentController) ListComments(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	comments, err := c.eng.ListComments(ctx, actorID, ctx.Param("id"))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comments": comments})
}

// UpdateCommentStatus moves a comment along its lifecycle.
func (c *CommentController) UpdateCommentStatus(ctx *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	comment, err := c.eng.SetCommentStatus(ctx, ctx.Param("id"), actorID, models.CommentStatus(strings.ToUpper(req.Status)))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment edits the content of an editable comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	comment, err := c.eng.EditComment(ctx, ctx.Param("id"), actorID, utils.Sanitize(req.Content))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment and its replies.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := c.eng.DeleteComment(ctx, ctx.Param("id"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}
