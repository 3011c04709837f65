package controller

import (
	"stride_backend/internal/service"
	"stride_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CalendarController 学业事件与固定事务
type CalendarController struct {
	CalendarService *service.CalendarService
}

func NewCalendarController(calendarService *service.CalendarService) *CalendarController {
	return &CalendarController{CalendarService: calendarService}
}

// @Summary 添加学业事件
// @Description 考试周、假期、实习等；未给出 capacityImpact 时按类型取默认值
// @Tags 日历
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param event body service.CreateEventRequest true "事件"
// @Success 201 {object} util.Response
// @Router /academic-events [post]
func (c *CalendarController) CreateEvent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	event, err := c.CalendarService.CreateEvent(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, event)
}

// @Summary 学业事件列表
// @Tags 日历
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /academic-events [get]
func (c *CalendarController) ListEvents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	events, err := c.CalendarService.ListEvents(user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, events)
}

// @Summary 删除学业事件
// @Tags 日历
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事件ID"
// @Success 200 {object} util.Response
// @Router /academic-events/{id} [delete]
func (c *CalendarController) DeleteEvent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := c.CalendarService.DeleteEvent(user.UserID, id); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 添加固定事务
// @Tags 日历
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param commitment body service.CreateCommitmentRequest true "固定事务"
// @Success 201 {object} util.Response
// @Router /commitments [post]
func (c *CalendarController) CreateCommitment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateCommitmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	commitment, err := c.CalendarService.CreateCommitment(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, commitment)
}

// @Summary 固定事务列表
// @Tags 日历
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /commitments [get]
func (c *CalendarController) ListCommitments(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.CalendarService.ListCommitments(user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// @Summary 修改固定事务时长
// @Tags 日历
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事务ID"
// @Param commitment body service.UpdateCommitmentRequest true "每周时长"
// @Success 200 {object} util.Response
// @Router /commitments/{id} [put]
func (c *CalendarController) UpdateCommitment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.UpdateCommitmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	commitment, err := c.CalendarService.UpdateCommitment(user.UserID, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, commitment)
}

// @Summary 删除固定事务
// @Tags 日历
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "事务ID"
// @Success 200 {object} util.Response
// @Router /commitments/{id} [delete]
func (c *CalendarController) DeleteCommitment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := c.CalendarService.DeleteCommitment(user.UserID, id); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
