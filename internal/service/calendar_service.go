package service

import (
	"fmt"

	"stride_backend/internal/model"
	"stride_backend/internal/repository"
	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"
)

// CalendarService 学业日历事件和每周固定事务
type CalendarService struct {
	EventRepo      *repository.AcademicEventRepository
	CommitmentRepo *repository.CommitmentRepository
}

func NewCalendarService(eventRepo *repository.AcademicEventRepository, commitmentRepo *repository.CommitmentRepository) *CalendarService {
	return &CalendarService{EventRepo: eventRepo, CommitmentRepo: commitmentRepo}
}

type CreateEventRequest struct {
	Name           string   `json:"name" binding:"required,max=255"`
	Type           string   `json:"type" binding:"required,oneof=exam_period vacation internship project_deadline other"`
	StartDate      string   `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate        string   `json:"endDate" binding:"required,datetime=2006-01-02"`
	CapacityImpact *float64 `json:"capacityImpact" binding:"omitempty,gte=0,lte=1.5"`
}

type CreateCommitmentRequest struct {
	Name         string  `json:"name" binding:"required,max=255"`
	Type         string  `json:"type" binding:"max=32"`
	HoursPerWeek float64 `json:"hoursPerWeek" binding:"gte=0,lte=168"`
}

type UpdateCommitmentRequest struct {
	HoursPerWeek *float64 `json:"hoursPerWeek" binding:"required,gte=0,lte=168"`
}

// CreateEvent 未给出 capacityImpact 时按事件类型取默认值
func (s *CalendarService) CreateEvent(userID uint, req CreateEventRequest) (*model.AcademicEvent, error) {
	start, err := util.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate must be yyyy-mm-dd", scheduler.ErrInvalidInput)
	}
	end, err := util.ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: endDate must be yyyy-mm-dd", scheduler.ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate is before startDate", scheduler.ErrInvalidInput)
	}

	eventType := model.AcademicEventType(req.Type)
	impact := model.DefaultCapacityImpact(eventType)
	if req.CapacityImpact != nil {
		impact = *req.CapacityImpact
	}

	event := &model.AcademicEvent{
		UserID:         userID,
		Name:           req.Name,
		Type:           eventType,
		StartDate:      start,
		EndDate:        end,
		CapacityImpact: impact,
	}
	return event, s.EventRepo.Create(event)
}

func (s *CalendarService) ListEvents(userID uint) ([]model.AcademicEvent, error) {
	return s.EventRepo.FindByUserID(userID)
}

func (s *CalendarService) DeleteEvent(userID, id uint) error {
	return s.EventRepo.Delete(userID, id)
}

func (s *CalendarService) CreateCommitment(userID uint, req CreateCommitmentRequest) (*model.Commitment, error) {
	c := &model.Commitment{
		UserID:       userID,
		Name:         req.Name,
		Type:         req.Type,
		HoursPerWeek: req.HoursPerWeek,
	}
	return c, s.CommitmentRepo.Create(c)
}

func (s *CalendarService) ListCommitments(userID uint) ([]model.Commitment, error) {
	return s.CommitmentRepo.FindByUserID(userID)
}

func (s *CalendarService) UpdateCommitment(userID, id uint, req UpdateCommitmentRequest) (*model.Commitment, error) {
	return s.CommitmentRepo.UpdateHours(userID, id, *req.HoursPerWeek)
}

func (s *CalendarService) DeleteCommitment(userID, id uint) error {
	return s.CommitmentRepo.Delete(userID, id)
}
