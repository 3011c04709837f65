package model

// Commitment 每周固定的事务（兼职、社团、运动等）
// swagger:model Commitment
type Commitment struct {
	BaseModel
	UserID       uint    `gorm:"index;not null" json:"userId"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Type         string  `gorm:"size:32" json:"type"`
	HoursPerWeek float64 `gorm:"not null" json:"hoursPerWeek"`
}

func (Commitment) TableName() string {
	return "commitments"
}
