package repository

import (
	"time"

	"stride_backend/internal/model"
	"stride_backend/internal/util"

	"gorm.io/gorm"
)

type AcademicEventRepository struct {
	DB *gorm.DB
}

func NewAcademicEventRepository(db *gorm.DB) *AcademicEventRepository {
	return &AcademicEventRepository{DB: db}
}

func (r *AcademicEventRepository) Create(event *model.AcademicEvent) error {
	return r.DB.Create(event).Error
}

func (r *AcademicEventRepository) FindByUserID(userID uint) ([]model.AcademicEvent, error) {
	var events []model.AcademicEvent
	err := r.DB.Where("user_id = ?", userID).Order("start_date, id").Find(&events).Error
	return events, err
}

// FindOverlapping 与 [from, to] 有交集的事件
func (r *AcademicEventRepository) FindOverlapping(userID uint, from, to time.Time) ([]model.AcademicEvent, error) {
	var events []model.AcademicEvent
	err := r.DB.Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, model.DateOnly(to), model.DateOnly(from)).
		Order("start_date, id").
		Find(&events).Error
	return events, err
}

func (r *AcademicEventRepository) Delete(userID, id uint) error {
	res := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.AcademicEvent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrEventNotFound
	}
	return nil
}
