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

// ReactionController manages likes and dislikes on posts, comments and replies.
type ReactionController struct {
	eng *engine.Engine
}

// NewReactionController creates a new ReactionController instance.
func NewReactionController(eng *engine.Engine) *ReactionController {
	return &ReactionController{eng: eng}
}

func parseTarget(raw string) (models.TargetType, bool) {
	switch models.TargetType(strings.ToLower(strings.TrimSpace(raw))) {
	case models.TargetPost:
		return models.TargetPost, true
	case models.TargetComment:
		return models.TargetComment, true
	case models.TargetReply:
		return models.TargetReply, true
	}
	return "", false
}

// React records or flips the caller's reaction on a target. Repeating the
// identical reaction is rejected rather than silently accepted.
func (r *ReactionController) React(ctx *gin.Context) {
	var req struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   string `json:"target_id" binding:"required"`
		Type       string `json:"type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	target, ok := parseTarget(req.TargetType)
	if !ok {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42201, "unknown target type")
		return
	}

	typ := models.ReactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ != models.ReactionLike && typ != models.ReactionDislike {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42202, "unknown reaction type")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	reaction, err := r.eng.React(ctx, actorID, target, req.TargetID, typ)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reaction": reaction})
}

// Unreact removes the caller's own reaction from a target.
func (r *ReactionController) Unreact(ctx *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		TargetType string `json:"target_type" binding:"required"`
		TargetID   string `json:"target_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	target, ok := parseTarget(req.TargetType)
	if !ok {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42201, "unknown target type")
		return
	}

	actorID := middleware.CurrentUserID(ctx)
	if err := r.eng.Unreact(ctx, actorID, req.UserID, target, req.TargetID); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"removed": true})
}
