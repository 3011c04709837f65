package service

import (
	"context"
	"time"

	"stride_backend/internal/model"
	"stride_backend/internal/repository"
	"stride_backend/internal/scheduler"
)

// EnergyService 能量记录与基于周聚合历史的检测
type EnergyService struct {
	EnergyRepo *repository.EnergyRepository
	Planner    *RetroplanService
	now        func() time.Time
}

func NewEnergyService(energyRepo *repository.EnergyRepository, planner *RetroplanService) *EnergyService {
	return &EnergyService{EnergyRepo: energyRepo, Planner: planner, now: time.Now}
}

type LogEnergyRequest struct {
	EnergyLevel *int   `json:"energyLevel" binding:"required,gte=0,lte=100"`
	Mood        *int   `json:"mood" binding:"omitempty,gte=1,lte=5"`
	Stress      *int   `json:"stress" binding:"omitempty,gte=1,lte=5"`
	Note        string `json:"note" binding:"max=255"`
}

// EnergyHistory 原始记录和按周平均后的序列（检测器只看后者）
type EnergyHistory struct {
	Entries []model.EnergyEntry     `json:"entries"`
	Weekly  []scheduler.EnergyEntry `json:"weekly"`
}

func (s *EnergyService) LogEnergy(userID uint, req LogEnergyRequest) (*model.EnergyEntry, error) {
	entry := &model.EnergyEntry{
		UserID:      userID,
		EnergyLevel: *req.EnergyLevel,
		Mood:        req.Mood,
		Stress:      req.Stress,
		Note:        req.Note,
		LoggedAt:    s.now().UTC(),
	}
	return entry, s.EnergyRepo.Create(entry)
}

// History 最近 weeks 周的记录
func (s *EnergyService) History(userID uint, weeks int) (*EnergyHistory, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 12
	}
	since := scheduler.WeekStartOf(s.now().UTC()).AddDate(0, 0, -7*(weeks-1))
	entries, err := s.EnergyRepo.FindSince(userID, since)
	if err != nil {
		return nil, err
	}
	return &EnergyHistory{
		Entries: entries,
		Weekly:  scheduler.AggregateWeekly(toSchedulerEnergy(entries)),
	}, nil
}

// Assess goalID 为 0 时针对当前进行中的目标
func (s *EnergyService) Assess(ctx context.Context, userID, goalID uint) (*scheduler.Assessments, error) {
	return s.Planner.Assess(ctx, userID, goalID)
}
