package controller

import (
	"strconv"

	"stride_backend/internal/service"
	"stride_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnergyController struct {
	EnergyService *service.EnergyService
}

func NewEnergyController(energyService *service.EnergyService) *EnergyController {
	return &EnergyController{EnergyService: energyService}
}

// @Summary 记录能量
// @Tags 能量
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param entry body service.LogEnergyRequest true "能量 0-100"
// @Success 201 {object} util.Response
// @Router /energy [post]
func (c *EnergyController) LogEnergy(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.LogEnergyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, err := c.EnergyService.LogEnergy(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, entry)
}

// @Summary 能量历史
// @Tags 能量
// @Produce json
// @Security ApiKeyAuth
// @Param weeks query int false "最近几周，默认 12"
// @Success 200 {object} util.Response
// @Router /energy [get]
func (c *EnergyController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	weeks, _ := strconv.Atoi(ctx.DefaultQuery("weeks", "12"))
	history, err := c.EnergyService.History(user.UserID, weeks)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, history)
}

// @Summary 能量债务与回归检测
// @Description 不传 goalId 时针对当前进行中的目标
// @Tags 能量
// @Produce json
// @Security ApiKeyAuth
// @Param goalId query int false "目标ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /energy/assessment [get]
func (c *EnergyController) Assess(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	goalID := util.MustParseUint(ctx.Query("goalId"))
	assess, err := c.EnergyService.Assess(ctx.Request.Context(), user.UserID, goalID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, assess)
}
