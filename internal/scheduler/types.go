package scheduler

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput 输入不合法，计算之前直接拒绝，不返回任何部分结果
var ErrInvalidInput = errors.New("invalid scheduler input")

// WeekSpan 计划中的一周，起止日期均为闭区间
type WeekSpan struct {
	Index int       `json:"weekIndex"`
	Start time.Time `json:"weekStart"`
	End   time.Time `json:"weekEnd"`
}

// Commitment 每周固定占用的时间
type Commitment struct {
	Name         string
	HoursPerWeek float64
}

// AcademicEvent 学业日历区间，CapacityImpact 取值 [0, 1.5]
type AcademicEvent struct {
	Name           string
	Type           string
	Start          time.Time
	End            time.Time
	CapacityImpact float64
}

// EnergyEntry 一次能量观测（0-100）
type EnergyEntry struct {
	Level    float64   `json:"energyLevel"`
	LoggedAt time.Time `json:"loggedAt"`
}

// WeekCapacity 派生值，不落库
type WeekCapacity struct {
	WeekSpan
	CapacityScore      float64 `json:"capacityScore"`
	BaseHours          float64 `json:"baseHours"`
	AcademicMultiplier float64 `json:"academicMultiplier"`
	EnergyMultiplier   float64 `json:"energyMultiplier"`
}

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type DebtAssessment struct {
	Detected        bool     `json:"detected"`
	Severity        Severity `json:"severity"`
	ConsecutiveLow  int      `json:"consecutiveLowWeeks"`
	ReductionFactor float64  `json:"reductionFactor"`
}

// CatchUpWeek 追赶计划中某周额外的金额
type CatchUpWeek struct {
	WeekIndex int             `json:"weekIndex"`
	Extra     decimal.Decimal `json:"extra"`
}

type ComebackAssessment struct {
	Detected      bool            `json:"detected"`
	Confidence    float64         `json:"confidence"`
	DeficitAmount decimal.Decimal `json:"deficitAmount"`
	CatchUpPlan   []CatchUpWeek   `json:"catchUpPlan"`
	Shortfall     decimal.Decimal `json:"shortfall"`
}

// Milestone 计划中的一行
type Milestone struct {
	WeekSpan
	BaseTarget       decimal.Decimal `json:"baseTarget"`
	AdjustedTarget   decimal.Decimal `json:"adjustedTarget"`
	CumulativeTarget decimal.Decimal `json:"cumulativeTarget"`
	CapacityScore    float64         `json:"capacityScore"`
	Overloaded       bool            `json:"overloaded"`
}

type Retroplan struct {
	Milestones            []Milestone     `json:"milestones"`
	FeasibilityScore      float64         `json:"feasibilityScore"`
	FrontLoadedPercentage float64         `json:"frontLoadedPercentage"`
	OverloadedWeeks       []int           `json:"overloadedWeeks"`
	EffectiveGoalForWork  decimal.Decimal `json:"effectiveGoalForWork"`
	UncoveredDebtAmount   decimal.Decimal `json:"uncoveredDebtAmount"`
	UnabsorbedCatchUp     decimal.Decimal `json:"unabsorbedCatchUp"`
}

// PlanOptions 生成计划时的可选调整。
//
// ProjectedSavingsBasis 必须是当前的预测值（一次性收入、现有结余预测），
// 不能传入带手工调整的历史实际储蓄总额，后者请使用调用方的 ActualTotalSavings。
type PlanOptions struct {
	ProjectedSavingsBasis decimal.Decimal
	FrontLoading          bool
	FrontLoadPercent      float64
	Debt                  *DebtAssessment
	Comeback              *ComebackAssessment
	MaxSafeWeeklyAmount   decimal.Decimal
	AsOf                  time.Time
	DebtReliefWeeks       int
}
