package controller

import (
	"stride_backend/internal/service"
	"stride_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// GoalController 处理储蓄目标的API请求
type GoalController struct {
	GoalService *service.GoalService
}

func NewGoalController(goalService *service.GoalService) *GoalController {
	return &GoalController{GoalService: goalService}
}

// @Summary 创建储蓄目标
// @Description 开始日期未到时为 waiting，否则成为唯一的进行中目标（原进行中目标被暂停）
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param goal body service.CreateGoalRequest true "目标信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /goals [post]
func (c *GoalController) CreateGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateGoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.GoalService.CreateGoal(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 获取储蓄目标列表
// @Tags 储蓄目标
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "状态" enums(waiting,active,paused,completed)
// @Success 200 {object} util.Response
// @Router /goals [get]
func (c *GoalController) ListGoals(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	goals, err := c.GoalService.ListGoals(user.UserID, ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, goals)
}

// @Summary 获取目标详情
// @Tags 储蓄目标
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /goals/{id} [get]
func (c *GoalController) GetGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	detail, err := c.GoalService.GetGoal(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// @Summary 激活目标
// @Description 同一用户其他进行中的目标会在同一事务内被暂停
// @Tags 储蓄目标
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /goals/{id}/activate [post]
func (c *GoalController) ActivateGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	result, err := c.GoalService.ActivateGoal(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 暂停目标
// @Tags 储蓄目标
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /goals/{id}/pause [post]
func (c *GoalController) PauseGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	result, err := c.GoalService.PauseGoal(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 完成目标
// @Tags 储蓄目标
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /goals/{id}/complete [post]
func (c *GoalController) CompleteGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	result, err := c.GoalService.CompleteGoal(user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 记录储蓄进度
// @Description 金额可为负表示取出；进行中目标达到金额后自动完成
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "目标ID"
// @Param progress body service.LogProgressRequest true "进度"
// @Success 201 {object} util.Response
// @Router /goals/{id}/progress [post]
func (c *GoalController) LogProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.LogProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	goal, err := c.GoalService.LogProgress(user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, goal)
}
