package service

import (
	"context"
	"time"

	"stride_backend/internal/config"
	"stride_backend/internal/repository"
	"stride_backend/pkg/logger"
	"stride_backend/pkg/monitoring"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobService 基于 cron 的后台任务：每周能量巡检、每日启动到期的等待目标
type JobService struct {
	GoalRepo *repository.GoalRepository
	Goals    *GoalService
	Planner  *RetroplanService

	cron *cron.Cron
	cfg  config.JobsConfig
	now  func() time.Time
}

func NewJobService(goalRepo *repository.GoalRepository, goals *GoalService, planner *RetroplanService, cfg config.JobsConfig) *JobService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	return &JobService{
		GoalRepo: goalRepo,
		Goals:    goals,
		Planner:  planner,
		cron:     cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start 注册任务并启动调度器
func (s *JobService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.EnergySweep, func() { s.run("energy_sweep", s.SweepEnergy) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.GoalStarter, func() { s.run("goal_starter", s.StartDueGoals) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Log.Info("Background jobs started",
		zap.String("energySweep", s.cfg.EnergySweep),
		zap.String("goalStarter", s.cfg.GoalStarter),
	)
	return nil
}

func (s *JobService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *JobService) run(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := job(ctx)
	if err != nil {
		monitoring.JobRuns.WithLabelValues(name, "error").Inc()
		logger.Log.Error("Background job failed", zap.String("job", name), zap.Error(err))
		return
	}
	monitoring.JobRuns.WithLabelValues(name, "ok").Inc()
	logger.Log.Info("Background job finished", zap.String("job", name), zap.Int("affected", n))
}

// SweepEnergy 检查每个进行中目标的能量状况，返回触发提醒的目标数
func (s *JobService) SweepEnergy(ctx context.Context) (int, error) {
	goals, err := s.GoalRepo.FindAllActive()
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, g := range goals {
		if ctx.Err() != nil {
			return flagged, ctx.Err()
		}
		assess, err := s.Planner.Assess(ctx, g.UserID, g.ID)
		if err != nil {
			logger.Log.Warn("Energy sweep skipped goal", zap.Uint("goalID", g.ID), zap.Error(err))
			continue
		}
		if assess.Debt.Detected {
			flagged++
			logger.Log.Info("Energy debt detected",
				zap.Uint("userID", g.UserID),
				zap.Uint("goalID", g.ID),
				zap.String("severity", string(assess.Debt.Severity)),
				zap.Int("consecutiveLowWeeks", assess.Debt.ConsecutiveLow),
			)
		}
		if assess.Comeback.Detected {
			flagged++
			logger.Log.Info("Comeback detected",
				zap.Uint("userID", g.UserID),
				zap.Uint("goalID", g.ID),
				zap.Float64("confidence", assess.Comeback.Confidence),
				zap.String("deficit", assess.Deficit.StringFixed(2)),
			)
		}
	}
	return flagged, nil
}

// StartDueGoals 开始日期已到的等待目标：用户没有进行中目标时激活最早的一个
func (s *JobService) StartDueGoals(ctx context.Context) (int, error) {
	due, err := s.GoalRepo.FindStartable(s.now().UTC())
	if err != nil {
		return 0, err
	}

	started := 0
	handled := make(map[uint]bool)
	for _, g := range due {
		if ctx.Err() != nil {
			return started, ctx.Err()
		}
		if handled[g.UserID] {
			continue
		}
		handled[g.UserID] = true

		ok, err := s.Goals.StartWaitingGoal(g.UserID, g.ID)
		if err != nil {
			logger.Log.Warn("Failed to start waiting goal", zap.Uint("goalID", g.ID), zap.Error(err))
			continue
		}
		if ok {
			started++
		}
	}
	return started, nil
}
