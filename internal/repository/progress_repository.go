package repository

import (
	"stride_backend/internal/model"

	"gorm.io/gorm"
)

// ProgressRepository 目标进度流水（写入在 GoalRepository.AddProgress 的事务里完成）
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// FindByGoalID 按时间倒序
func (r *ProgressRepository) FindByGoalID(userID, goalID uint, limit int) ([]model.GoalProgress, error) {
	var logs []model.GoalProgress
	q := r.DB.Where("goal_id = ? AND user_id = ?", goalID, userID).Order("logged_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}
