package repository

import (
	"errors"

	"stride_backend/internal/model"
	"stride_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByUserID(userID uint) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProfileMissing
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert 以 user_id 为键插入或覆盖
func (r *ProfileRepository) Upsert(p *model.Profile) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "max_work_hours_weekly", "min_hourly_rate", "timezone", "updated_at"}),
	}).Create(p).Error
}
