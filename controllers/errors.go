package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freedeaths/SUT-OpenAPI-Blog/engine"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

// respondEngineError translates engine sentinels into the uniform error envelope.
// Unknown errors are logged and reported as 500 without leaking internals.
func respondEngineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "resource not found")
	case errors.Is(err, engine.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40300, "operation not permitted")
	case errors.Is(err, engine.ErrInvalidTransition):
		utils.Error(ctx, http.StatusConflict, 40901, "invalid status transition")
	case errors.Is(err, engine.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40902, "conflicting state")
	case errors.Is(err, engine.ErrInvalidArgument):
		utils.Error(ctx, http.StatusUnprocessableEntity, 42200, "invalid argument")
	case errors.Is(err, engine.ErrTransient):
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "temporary contention, please retry")
	default:
		utils.Sugar.Errorf("unhandled engine error: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}
