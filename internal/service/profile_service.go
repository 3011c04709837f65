package service

import (
	"fmt"
	"time"

	"stride_backend/internal/model"
	"stride_backend/internal/repository"
	"stride_backend/internal/scheduler"

	"github.com/shopspring/decimal"
)

type ProfileService struct {
	ProfileRepo *repository.ProfileRepository
}

func NewProfileService(profileRepo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{ProfileRepo: profileRepo}
}

type UpdateProfileRequest struct {
	DisplayName        string          `json:"displayName" binding:"max=100"`
	MaxWorkHoursWeekly float64         `json:"maxWorkHoursWeekly" binding:"gte=0,lte=168"`
	MinHourlyRate      decimal.Decimal `json:"minHourlyRate"`
	Timezone           string          `json:"timezone" binding:"max=64"`
}

// ProfileView 附带计算出的每周安全上限
type ProfileView struct {
	*model.Profile
	MaxSafeWeeklyAmount decimal.Decimal `json:"maxSafeWeeklyAmount"`
}

func (s *ProfileService) GetProfile(userID uint) (*ProfileView, error) {
	p, err := s.ProfileRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, MaxSafeWeeklyAmount: p.MaxSafeWeeklyAmount()}, nil
}

func (s *ProfileService) UpdateProfile(userID uint, req UpdateProfileRequest) (*ProfileView, error) {
	if req.MinHourlyRate.IsNegative() {
		return nil, fmt.Errorf("%w: minHourlyRate cannot be negative", scheduler.ErrInvalidInput)
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", scheduler.ErrInvalidInput, tz)
	}

	p := &model.Profile{
		UserID:             userID,
		DisplayName:        req.DisplayName,
		MaxWorkHoursWeekly: req.MaxWorkHoursWeekly,
		MinHourlyRate:      req.MinHourlyRate.Round(2),
		Timezone:           tz,
	}
	if err := s.ProfileRepo.Upsert(p); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}
