package service

import (
	"context"
	"fmt"
	"time"

	"stride_backend/internal/goalstate"
	"stride_backend/internal/model"
	"stride_backend/internal/repository"
	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"
	"stride_backend/pkg/logger"
	"stride_backend/pkg/monitoring"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GoalService 处理储蓄目标的业务逻辑
type GoalService struct {
	GoalRepo     *repository.GoalRepository
	ProgressRepo *repository.ProgressRepository
	Planner      *RetroplanService
	now          func() time.Time
}

func NewGoalService(goalRepo *repository.GoalRepository, progressRepo *repository.ProgressRepository, planner *RetroplanService) *GoalService {
	return &GoalService{
		GoalRepo:     goalRepo,
		ProgressRepo: progressRepo,
		Planner:      planner,
		now:          time.Now,
	}
}

// CreateGoalRequest 创建储蓄目标的请求结构
type CreateGoalRequest struct {
	Title        string          `json:"title" binding:"required,max=255"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	StartDate    string          `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	Deadline     string          `json:"deadline" binding:"required,datetime=2006-01-02"`
	FrontLoading bool            `json:"frontLoading"`
}

// LogProgressRequest 记录一笔储蓄，Amount 可为负（取出）
type LogProgressRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note" binding:"max=255"`
	LoggedAt string          `json:"loggedAt" binding:"omitempty,datetime=2006-01-02"`
}

// GoalDetail 目标详情附带最近的储蓄流水
type GoalDetail struct {
	*model.Goal
	Remaining      decimal.Decimal      `json:"remaining"`
	RecentProgress []model.GoalProgress `json:"recentProgress"`
}

// TransitionResult 状态变更结果，Paused 为因此被暂停的其他目标
type TransitionResult struct {
	Goal   *model.Goal `json:"goal"`
	Paused []uint      `json:"paused,omitempty"`
}

// CreateGoal 开始日期未到的目标进入 waiting，否则直接成为唯一的进行中目标
func (s *GoalService) CreateGoal(ctx context.Context, userID uint, req CreateGoalRequest) (*TransitionResult, error) {
	today := model.DateOnly(s.now().UTC())

	target := req.TargetAmount.Round(2)
	if !target.IsPositive() {
		return nil, fmt.Errorf("%w: targetAmount must be at least 0.01", scheduler.ErrInvalidInput)
	}
	if target.GreaterThan(model.MaxAmount) {
		return nil, fmt.Errorf("%w: targetAmount cannot exceed %s", scheduler.ErrInvalidInput, model.MaxAmount.StringFixed(2))
	}
	start := today
	if req.StartDate != "" {
		t, err := util.ParseDate(req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: startDate must be yyyy-mm-dd", scheduler.ErrInvalidInput)
		}
		start = t
	}
	deadline, err := util.ParseDate(req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline must be yyyy-mm-dd", scheduler.ErrInvalidInput)
	}
	if deadline.Before(start) {
		return nil, fmt.Errorf("%w: deadline is before start date", scheduler.ErrInvalidInput)
	}

	goal := &model.Goal{
		UserID:           userID,
		Title:            req.Title,
		TargetAmount:     target,
		CurrentAmount:    decimal.Zero,
		StartDate:        start,
		Deadline:         deadline,
		FrontLoading:     req.FrontLoading,
		FeasibilityScore: 1,
	}

	result := &TransitionResult{Goal: goal}
	if start.After(today) {
		goal.Status = goalstate.Waiting
		if err := s.GoalRepo.Create(goal); err != nil {
			return nil, err
		}
	} else {
		paused, err := s.GoalRepo.CreateActive(goal)
		if err != nil {
			return nil, err
		}
		result.Paused = paused
	}
	monitoring.GoalTransitions.WithLabelValues(string(goal.Status)).Inc()

	logger.Log.Info("Goal created",
		zap.Uint("userID", userID),
		zap.Uint("goalID", goal.ID),
		zap.String("status", string(goal.Status)),
		zap.Uints("paused", result.Paused),
	)

	if s.Planner != nil {
		if err := s.Planner.Summarize(ctx, goal); err != nil {
			logger.Log.Warn("Initial plan failed", zap.Uint("goalID", goal.ID), zap.Error(err))
		}
	}
	return result, nil
}

// ListGoals status 为空时返回全部
func (s *GoalService) ListGoals(userID uint, status string) ([]model.Goal, error) {
	st := goalstate.Status(status)
	if st != "" && !st.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", scheduler.ErrInvalidInput, status)
	}
	return s.GoalRepo.FindByUserID(userID, st)
}

func (s *GoalService) GetGoal(userID, goalID uint) (*GoalDetail, error) {
	goal, err := s.GoalRepo.FindByIDAndUserID(goalID, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.ProgressRepo.FindByGoalID(userID, goalID, 20)
	if err != nil {
		return nil, err
	}
	return &GoalDetail{Goal: goal, Remaining: goal.Remaining(), RecentProgress: logs}, nil
}

// ActivateGoal 激活目标，原有进行中目标在同一事务内被暂停
func (s *GoalService) ActivateGoal(userID, goalID uint) (*TransitionResult, error) {
	goal, paused, err := s.GoalRepo.Activate(userID, goalID)
	if err != nil {
		return nil, err
	}
	monitoring.GoalTransitions.WithLabelValues(string(goalstate.Active)).Inc()
	logger.Log.Info("Goal activated", zap.Uint("userID", userID), zap.Uint("goalID", goalID), zap.Uints("paused", paused))
	return &TransitionResult{Goal: goal, Paused: paused}, nil
}

// StartWaitingGoal 用户没有进行中目标时开始等待中的目标，返回是否真的开始了
func (s *GoalService) StartWaitingGoal(userID, goalID uint) (bool, error) {
	_, started, err := s.GoalRepo.StartIfIdle(userID, goalID)
	if err != nil || !started {
		return false, err
	}
	monitoring.GoalTransitions.WithLabelValues(string(goalstate.Active)).Inc()
	logger.Log.Info("Waiting goal started", zap.Uint("userID", userID), zap.Uint("goalID", goalID))
	return true, nil
}

func (s *GoalService) PauseGoal(userID, goalID uint) (*TransitionResult, error) {
	return s.transition(userID, goalID, goalstate.Paused)
}

func (s *GoalService) CompleteGoal(userID, goalID uint) (*TransitionResult, error) {
	return s.transition(userID, goalID, goalstate.Completed)
}

func (s *GoalService) transition(userID, goalID uint, to goalstate.Status) (*TransitionResult, error) {
	goal, err := s.GoalRepo.Transition(userID, goalID, to)
	if err != nil {
		return nil, err
	}
	monitoring.GoalTransitions.WithLabelValues(string(to)).Inc()
	logger.Log.Info("Goal status changed", zap.Uint("userID", userID), zap.Uint("goalID", goalID), zap.String("to", string(to)))
	return &TransitionResult{Goal: goal}, nil
}

// LogProgress 追加储蓄记录；达到目标金额的进行中目标自动完成
func (s *GoalService) LogProgress(userID, goalID uint, req LogProgressRequest) (*model.Goal, error) {
	amount := req.Amount.Round(2)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not round to zero", scheduler.ErrInvalidInput)
	}
	if amount.Abs().GreaterThan(model.MaxAmount) {
		return nil, fmt.Errorf("%w: amount cannot exceed %s", scheduler.ErrInvalidInput, model.MaxAmount.StringFixed(2))
	}
	loggedAt := s.now().UTC()
	if req.LoggedAt != "" {
		t, err := util.ParseDate(req.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: loggedAt must be yyyy-mm-dd", scheduler.ErrInvalidInput)
		}
		loggedAt = t
	}

	goal, err := s.GoalRepo.AddProgress(userID, goalID, &model.GoalProgress{
		Amount:   amount,
		Note:     req.Note,
		LoggedAt: loggedAt,
	})
	if err != nil {
		return nil, err
	}
	// 已完成的目标不接受记录，所以这里的 completed 一定是刚刚达成
	if goal.Status == goalstate.Completed {
		monitoring.GoalTransitions.WithLabelValues(string(goalstate.Completed)).Inc()
		logger.Log.Info("Goal reached its target", zap.Uint("userID", userID), zap.Uint("goalID", goalID))
	}
	return goal, nil
}
