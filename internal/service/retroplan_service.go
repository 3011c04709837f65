package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"stride_backend/internal/config"
	"stride_backend/internal/model"
	"stride_backend/internal/repository"
	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"
	"stride_backend/pkg/logger"
	"stride_backend/pkg/monitoring"
	"stride_backend/pkg/tracing"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// RetroplanService 从数据库装配计划输入，调用 scheduler 计算，并按输入指纹缓存到 Redis。
// Redis 未启用时 Redis 为 nil，每次都重新计算
type RetroplanService struct {
	GoalRepo       *repository.GoalRepository
	EventRepo      *repository.AcademicEventRepository
	CommitmentRepo *repository.CommitmentRepository
	EnergyRepo     *repository.EnergyRepository
	ProfileRepo    *repository.ProfileRepository
	Redis          *redis.Client

	mu       sync.RWMutex
	settings scheduler.Settings
	cacheTTL time.Duration
	now      func() time.Time
}

func NewRetroplanService(
	goalRepo *repository.GoalRepository,
	eventRepo *repository.AcademicEventRepository,
	commitmentRepo *repository.CommitmentRepository,
	energyRepo *repository.EnergyRepository,
	profileRepo *repository.ProfileRepository,
	rdb *redis.Client,
	cfg config.SchedulerConfig,
) *RetroplanService {
	return &RetroplanService{
		GoalRepo:       goalRepo,
		EventRepo:      eventRepo,
		CommitmentRepo: commitmentRepo,
		EnergyRepo:     energyRepo,
		ProfileRepo:    profileRepo,
		Redis:          rdb,
		settings:       cfg.Settings(),
		cacheTTL:       cfg.CacheTTL(),
		now:            time.Now,
	}
}

// RetroplanRequest 生成计划的可选参数。
// ProjectedSavingsBasis 参与分配；ActualTotalSavings 只用来计算落后金额，不传时取目标的已存金额
type RetroplanRequest struct {
	ProjectedSavingsBasis decimal.Decimal  `json:"projectedSavingsBasis"`
	ActualTotalSavings    *decimal.Decimal `json:"actualTotalSavings"`
	FrontLoading          *bool            `json:"frontLoading"`
	AsOf                  string           `json:"asOf" binding:"omitempty,datetime=2006-01-02"`
}

// RetroplanResponse 计划结果附带目标信息和是否命中缓存
type RetroplanResponse struct {
	GoalID uint `json:"goalId"`
	Cached bool `json:"cached"`
	*scheduler.PlanResult
}

// UpdateSettings 配置热更新时替换算法参数
func (s *RetroplanService) UpdateSettings(cfg config.SchedulerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg.Settings()
	s.cacheTTL = cfg.CacheTTL()
	logger.Log.Info("Scheduler settings reloaded",
		zap.Float64("frontLoadPercent", s.settings.FrontLoadPercent),
		zap.Int("debtReliefWeeks", s.settings.DebtReliefWeeks),
	)
}

func (s *RetroplanService) currentSettings() (scheduler.Settings, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.cacheTTL
}

// Generate 生成目标的完整计划
func (s *RetroplanService) Generate(ctx context.Context, userID, goalID uint, req RetroplanRequest) (*RetroplanResponse, error) {
	ctx, span := tracing.Tracer.Start(ctx, "RetroplanService.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int64("goal.id", int64(goalID)))

	goal, err := s.GoalRepo.FindByIDAndUserID(goalID, userID)
	if err != nil {
		return nil, err
	}

	planReq, err := s.buildRequest(ctx, goal, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	settings, ttl := s.currentSettings()
	key, err := cacheKey(goal.ID, planReq, settings)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.loadCached(ctx, key); ok {
		monitoring.RetroplansTotal.WithLabelValues("cache").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &RetroplanResponse{GoalID: goal.ID, Cached: true, PlanResult: cached}, nil
	}

	result, err := s.compute(ctx, planReq, settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	monitoring.RetroplansTotal.WithLabelValues("computed").Inc()
	s.storeCached(ctx, key, result, ttl)

	weekly := weeklyTargetAt(result.Plan, planReq.AsOf)
	if err := s.GoalRepo.UpdatePlanSummary(goal.ID, weekly, result.Plan.FeasibilityScore); err != nil {
		logger.Log.Warn("Failed to store plan summary", zap.Uint("goalID", goal.ID), zap.Error(err))
	}

	return &RetroplanResponse{GoalID: goal.ID, PlanResult: result}, nil
}

// Assess 只做能量债务和回归检测；goalID 为 0 时取用户当前进行中的目标
func (s *RetroplanService) Assess(ctx context.Context, userID, goalID uint) (*scheduler.Assessments, error) {
	ctx, span := tracing.Tracer.Start(ctx, "RetroplanService.Assess")
	defer span.End()

	var (
		goal *model.Goal
		err  error
	)
	if goalID == 0 {
		goal, err = s.GoalRepo.FindActiveByUserID(userID)
	} else {
		goal, err = s.GoalRepo.FindByIDAndUserID(goalID, userID)
	}
	if err != nil {
		return nil, err
	}

	planReq, err := s.buildRequest(ctx, goal, RetroplanRequest{})
	if err != nil {
		return nil, err
	}
	settings, _ := s.currentSettings()
	assess, err := scheduler.Assess(*planReq, settings)
	if err != nil {
		return nil, err
	}
	recordDetections(assess.Debt, assess.Comeback)
	return assess, nil
}

// Summarize 用默认参数计算一次计划，回写目标的周目标和可行性
func (s *RetroplanService) Summarize(ctx context.Context, goal *model.Goal) error {
	planReq, err := s.buildRequest(ctx, goal, RetroplanRequest{})
	if err != nil {
		return err
	}
	settings, _ := s.currentSettings()
	result, err := s.compute(ctx, planReq, settings)
	if err != nil {
		return err
	}

	goal.WeeklyTarget = weeklyTargetAt(result.Plan, planReq.AsOf)
	goal.FeasibilityScore = result.Plan.FeasibilityScore
	return s.GoalRepo.UpdatePlanSummary(goal.ID, goal.WeeklyTarget, goal.FeasibilityScore)
}

func (s *RetroplanService) compute(ctx context.Context, req *scheduler.PlanRequest, settings scheduler.Settings) (*scheduler.PlanResult, error) {
	_, span := tracing.Tracer.Start(ctx, "scheduler.Plan")
	defer span.End()

	start := time.Now()
	result, err := scheduler.Plan(*req, settings)
	monitoring.RetroplanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	monitoring.FeasibilityScore.Observe(result.Plan.FeasibilityScore)
	recordDetections(result.Debt, result.Comeback)
	span.SetAttributes(
		attribute.Int("plan.weeks", len(result.Plan.Milestones)),
		attribute.Float64("plan.feasibility", result.Plan.FeasibilityScore),
		attribute.Bool("plan.debt", result.Debt.Detected),
		attribute.Bool("plan.comeback", result.Comeback.Detected),
	)
	return result, nil
}

// buildRequest 加载计划需要的日历、固定事务、能量记录和个人上限
func (s *RetroplanService) buildRequest(ctx context.Context, goal *model.Goal, req RetroplanRequest) (*scheduler.PlanRequest, error) {
	_, span := tracing.Tracer.Start(ctx, "RetroplanService.loadInputs")
	defer span.End()

	asOf := model.DateOnly(s.now().UTC())
	if req.AsOf != "" {
		t, err := util.ParseDate(req.AsOf)
		if err != nil {
			return nil, fmt.Errorf("%w: asOf must be yyyy-mm-dd", scheduler.ErrInvalidInput)
		}
		asOf = t
	}

	settings, _ := s.currentSettings()

	events, err := s.EventRepo.FindOverlapping(goal.UserID, goal.StartDate, goal.Deadline)
	if err != nil {
		return nil, err
	}
	commitments, err := s.CommitmentRepo.FindByUserID(goal.UserID)
	if err != nil {
		return nil, err
	}

	// 检测器最多看 MaxHistory 周，再多取一周防止周边界截断
	weeks := settings.Debt.MaxHistory
	if settings.Comeback.MaxHistory > weeks {
		weeks = settings.Comeback.MaxHistory
	}
	if weeks <= 0 {
		weeks = scheduler.DefaultDebtConfig().MaxHistory
	}
	since := scheduler.WeekStartOf(asOf).AddDate(0, 0, -7*weeks)
	energy, err := s.EnergyRepo.FindSince(goal.UserID, since)
	if err != nil {
		return nil, err
	}
	// asOf 之后的记录不能影响历史重算
	energy = energyUntil(energy, asOf)

	maxSafe := decimal.Zero
	profile, err := s.ProfileRepo.FindByUserID(goal.UserID)
	switch {
	case err == nil:
		maxSafe = profile.MaxSafeWeeklyAmount()
	case !errors.Is(err, util.ErrProfileMissing):
		return nil, err
	}

	actual := goal.CurrentAmount
	if req.ActualTotalSavings != nil {
		actual = *req.ActualTotalSavings
	}
	frontLoading := goal.FrontLoading
	if req.FrontLoading != nil {
		frontLoading = *req.FrontLoading
	}

	return &scheduler.PlanRequest{
		GoalAmount: goal.TargetAmount,
		StartDate:  goal.StartDate,
		Deadline:   goal.Deadline,
		AsOf:       asOf,
		Inputs: scheduler.CapacityInputs{
			Commitments: toSchedulerCommitments(commitments),
			Events:      toSchedulerEvents(events),
			Energy:      toSchedulerEnergy(energy),
		},
		ProjectedSavingsBasis: req.ProjectedSavingsBasis,
		ActualTotalSavings:    actual,
		FrontLoading:          frontLoading,
		MaxSafeWeeklyAmount:   maxSafe,
	}, nil
}

func (s *RetroplanService) loadCached(ctx context.Context, key string) (*scheduler.PlanResult, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Retroplan cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var result scheduler.PlanResult
	if err := json.Unmarshal(raw, &result); err != nil {
		logger.Log.Warn("Retroplan cache entry corrupted", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (s *RetroplanService) storeCached(ctx context.Context, key string, result *scheduler.PlanResult, ttl time.Duration) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		logger.Log.Warn("Retroplan cache encode failed", zap.Error(err))
		return
	}
	if err := s.Redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Log.Warn("Retroplan cache write failed", zap.Error(err))
	}
}

// cacheKey 计划是输入的纯函数，输入和参数的指纹就是缓存键
func cacheKey(goalID uint, req *scheduler.PlanRequest, settings scheduler.Settings) (string, error) {
	payload, err := json.Marshal(struct {
		Req      *scheduler.PlanRequest
		Settings scheduler.Settings
	}{req, settings})
	if err != nil {
		return "", err
	}
	sum := xxhash.Sum64(payload)
	return util.RetroplanCachePrefix + strconv.FormatUint(uint64(goalID), 10) + ":" + strconv.FormatUint(sum, 16), nil
}

// weeklyTargetAt asOf 所在周的调整后目标，计划已结束时取最后一周
func weeklyTargetAt(plan *scheduler.Retroplan, asOf time.Time) decimal.Decimal {
	if plan == nil || len(plan.Milestones) == 0 {
		return decimal.Zero
	}
	spans := make([]scheduler.WeekSpan, len(plan.Milestones))
	for i, m := range plan.Milestones {
		spans[i] = m.WeekSpan
	}
	i := scheduler.WeekIndexAt(spans, asOf)
	if i >= len(plan.Milestones) {
		i = len(plan.Milestones) - 1
	}
	return plan.Milestones[i].AdjustedTarget
}

func recordDetections(debt scheduler.DebtAssessment, comeback scheduler.ComebackAssessment) {
	if debt.Detected {
		monitoring.EnergyDebtDetected.WithLabelValues(string(debt.Severity)).Inc()
	}
	if comeback.Detected {
		monitoring.ComebackDetected.Inc()
	}
}

func energyUntil(entries []model.EnergyEntry, asOf time.Time) []model.EnergyEntry {
	cutoff := asOf.AddDate(0, 0, 1)
	out := entries[:0:0]
	for _, e := range entries {
		if e.LoggedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func toSchedulerEvents(events []model.AcademicEvent) []scheduler.AcademicEvent {
	out := make([]scheduler.AcademicEvent, len(events))
	for i, e := range events {
		out[i] = scheduler.AcademicEvent{
			Name:           e.Name,
			Type:           string(e.Type),
			Start:          e.StartDate,
			End:            e.EndDate,
			CapacityImpact: e.CapacityImpact,
		}
	}
	return out
}

func toSchedulerCommitments(list []model.Commitment) []scheduler.Commitment {
	out := make([]scheduler.Commitment, len(list))
	for i, c := range list {
		out[i] = scheduler.Commitment{Name: c.Name, HoursPerWeek: c.HoursPerWeek}
	}
	return out
}

func toSchedulerEnergy(entries []model.EnergyEntry) []scheduler.EnergyEntry {
	out := make([]scheduler.EnergyEntry, len(entries))
	for i, e := range entries {
		out[i] = scheduler.EnergyEntry{Level: float64(e.EnergyLevel), LoggedAt: e.LoggedAt}
	}
	return out
}
