package controller

import (
	"errors"

	"stride_backend/internal/goalstate"
	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把 service 层错误映射成 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrGoalNotFound),
		errors.Is(err, util.ErrEventNotFound),
		errors.Is(err, util.ErrCommitmentNotFound),
		errors.Is(err, util.ErrProfileMissing):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, goalstate.ErrInvalidTransition):
		util.UnprocessableEntity(ctx, err.Error())
	case errors.Is(err, util.ErrStateConflict):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 解析路径中的 :id，非法时直接返回 400
func pathID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "Invalid ID")
		return 0, false
	}
	return id, true
}
