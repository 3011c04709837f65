package repository

import (
	"stride_backend/internal/model"
	"stride_backend/internal/util"

	"gorm.io/gorm"
)

type CommitmentRepository struct {
	DB *gorm.DB
}

func NewCommitmentRepository(db *gorm.DB) *CommitmentRepository {
	return &CommitmentRepository{DB: db}
}

func (r *CommitmentRepository) Create(c *model.Commitment) error {
	return r.DB.Create(c).Error
}

func (r *CommitmentRepository) FindByUserID(userID uint) ([]model.Commitment, error) {
	var list []model.Commitment
	err := r.DB.Where("user_id = ?", userID).Order("id").Find(&list).Error
	return list, err
}

// UpdateHours 只允许修改每周时长
func (r *CommitmentRepository) UpdateHours(userID, id uint, hours float64) (*model.Commitment, error) {
	res := r.DB.Model(&model.Commitment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("hours_per_week", hours)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrCommitmentNotFound
	}

	var c model.Commitment
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommitmentRepository) Delete(userID, id uint) error {
	res := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Commitment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCommitmentNotFound
	}
	return nil
}
