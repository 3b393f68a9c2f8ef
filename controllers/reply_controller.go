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

// ReplyController exposes reply operations under a comment.
type ReplyController struct {
	eng *engine.Engine
}

// NewReplyController creates a new ReplyController instance.
func NewReplyController(eng *engine.Engine) *ReplyController {
	return &ReplyController{eng: eng}
}

// CreateReply adds a reply to an ACTIVE comment.
func (r *ReplyController) CreateReply(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	reply, err := r.eng.CreateReply(ctx, ctx.Param("id"), actorID, utils.Sanitize(req.Content))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reply": reply})
}

// ListReplies returns the replies visible to the caller for a comment.
func (r *ReplyController) ListReplies(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	replies, err := r.eng.ListReplies(ctx, actorID, ctx.Param("id"))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"replies": replies})
}

// UpdateReplyStatus moves a reply along its lifecycle.
func (r *ReplyController) UpdateReplyStatus(ctx *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	reply, err := r.eng.SetReplyStatus(ctx, ctx.Param("id"), actorID, models.ReplyStatus(strings.ToUpper(req.Status)))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reply": reply})
}

// UpdateReply edits the content of an ACTIVE reply.
func (r *ReplyController) UpdateReply(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	reply, err := r.eng.EditReply(ctx, ctx.Param("id"), actorID, utils.Sanitize(req.Content))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reply": reply})
}

// DeleteReply removes a reply.
func (r *ReplyController) DeleteReply(ctx *gin.Context) {
	actorID := middleware.CurrentUserID(ctx)
	if err := r.eng.DeleteReply(ctx, ctx.Param("id"), actorID); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}
