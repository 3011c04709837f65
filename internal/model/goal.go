package model

import (
	"time"

	"stride_backend/internal/goalstate"

	"github.com/shopspring/decimal"
)

// Goal 储蓄目标。
// ActiveOwnerID 只在 active 状态下等于 UserID，其余状态为 NULL；
// 唯一索引保证同一用户在数据库层面最多只有一个进行中目标
// swagger:model Goal
type Goal struct {
	BaseModel
	UserID           uint             `gorm:"index;not null" json:"userId"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	TargetAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"targetAmount"`
	CurrentAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"currentAmount"`
	StartDate        time.Time        `gorm:"type:date;not null" json:"startDate"`
	Deadline         time.Time        `gorm:"type:date;not null" json:"deadline"`
	Status           goalstate.Status `gorm:"size:16;index;not null;default:'waiting'" json:"status"`
	FrontLoading     bool             `gorm:"default:false" json:"frontLoading"`
	WeeklyTarget     decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"weeklyTarget"`
	FeasibilityScore float64          `gorm:"default:1" json:"feasibilityScore"`
	ActiveOwnerID    *uint            `gorm:"uniqueIndex:idx_goals_active_owner" json:"-"`
	Version          uint             `gorm:"not null;default:1" json:"version"`
}

func (Goal) TableName() string {
	return "goals"
}

// Remaining 距离目标还差的金额
func (g *Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// MaxAmount decimal(12,2) 金额列能存下的最大值
var MaxAmount = decimal.New(1, 10).Sub(decimal.New(1, -2))

// Reached 已存金额达到目标
func (g *Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// GoalProgress 储蓄进度流水，只追加
// swagger:model GoalProgress
type GoalProgress struct {
	BaseModel
	GoalID   uint            `gorm:"index;not null" json:"goalId"`
	UserID   uint            `gorm:"index;not null" json:"userId"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Note     string          `gorm:"size:255" json:"note"`
	LoggedAt time.Time       `gorm:"index;not null" json:"loggedAt"`
}

func (GoalProgress) TableName() string {
	return "goal_progress"
}
