package repository

import (
	"time"

	"stride_backend/internal/model"

	"gorm.io/gorm"
)

// EnergyRepository 能量记录只追加
type EnergyRepository struct {
	DB *gorm.DB
}

func NewEnergyRepository(db *gorm.DB) *EnergyRepository {
	return &EnergyRepository{DB: db}
}

func (r *EnergyRepository) Create(entry *model.EnergyEntry) error {
	return r.DB.Create(entry).Error
}

// FindSince since 之后（含）的记录，按时间正序
func (r *EnergyRepository) FindSince(userID uint, since time.Time) ([]model.EnergyEntry, error) {
	var entries []model.EnergyEntry
	err := r.DB.Where("user_id = ? AND logged_at >= ?", userID, since).
		Order("logged_at, id").
		Find(&entries).Error
	return entries, err
}

// FindRecent 最近 limit 条，按时间正序返回
func (r *EnergyRepository) FindRecent(userID uint, limit int) ([]model.EnergyEntry, error) {
	var entries []model.EnergyEntry
	err := r.DB.Where("user_id = ?", userID).
		Order("logged_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
