package model

import "time"

type AcademicEventType string

const (
	EventExamPeriod      AcademicEventType = "exam_period"
	EventVacation        AcademicEventType = "vacation"
	EventInternship      AcademicEventType = "internship"
	EventProjectDeadline AcademicEventType = "project_deadline"
	EventOther           AcademicEventType = "other"
)

// AcademicEvent 学业日历事件，创建后只允许删除
// swagger:model AcademicEvent
type AcademicEvent struct {
	BaseModel
	UserID         uint              `gorm:"index;not null" json:"userId"`
	Name           string            `gorm:"size:255;not null" json:"name"`
	Type           AcademicEventType `gorm:"size:32;not null" json:"type"`
	StartDate      time.Time         `gorm:"type:date;not null" json:"startDate"`
	EndDate        time.Time         `gorm:"type:date;not null" json:"endDate"`
	CapacityImpact float64           `gorm:"not null;default:1" json:"capacityImpact"`
}

func (AcademicEvent) TableName() string {
	return "academic_events"
}

// DefaultCapacityImpact 未指定倍率时按事件类型给出的默认值
func DefaultCapacityImpact(t AcademicEventType) float64 {
	switch t {
	case EventExamPeriod:
		return 0.2
	case EventProjectDeadline:
		return 0.5
	case EventInternship:
		return 0.6
	case EventVacation:
		return 1.3
	default:
		return 1.0
	}
}
