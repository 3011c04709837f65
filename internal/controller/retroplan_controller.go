package controller

import (
	"stride_backend/internal/service"
	"stride_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RetroplanController struct {
	RetroplanService *service.RetroplanService
}

func NewRetroplanController(retroplanService *service.RetroplanService) *RetroplanController {
	return &RetroplanController{RetroplanService: retroplanService}
}

// @Summary 生成逆向计划
// @Description 按每周容量把目标金额分配到截止日期前的每一周，并结合能量债务与回归检测调整
// @Tags 计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Param options body service.RetroplanRequest false "计划参数"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /goals/{id}/retroplan [post]
func (c *RetroplanController) Generate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.RetroplanRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	plan, err := c.RetroplanService.Generate(ctx.Request.Context(), user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, plan)
}
