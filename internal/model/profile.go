package model

import "github.com/shopspring/decimal"

// Profile 计划相关的个人设置
// swagger:model Profile
type Profile struct {
	BaseModel
	UserID             uint            `gorm:"uniqueIndex;not null" json:"userId"`
	DisplayName        string          `gorm:"size:100" json:"displayName"`
	MaxWorkHoursWeekly float64         `gorm:"default:0" json:"maxWorkHoursWeekly"`
	MinHourlyRate      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"minHourlyRate"`
	Timezone           string          `gorm:"size:64;default:'UTC'" json:"timezone"`
}

func (Profile) TableName() string {
	return "profiles"
}

// MaxSafeWeeklyAmount 每周最多能安全挣到的金额 = 最大工作时长 × 最低时薪
func (p *Profile) MaxSafeWeeklyAmount() decimal.Decimal {
	if p == nil || p.MaxWorkHoursWeekly <= 0 {
		return decimal.Zero
	}
	return p.MinHourlyRate.Mul(decimal.NewFromFloat(p.MaxWorkHoursWeekly)).Round(2)
}
