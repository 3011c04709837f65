package scheduler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Settings 一次计算用到的全部可调参数
type Settings struct {
	Capacity         CapacityConfig
	Debt             DebtConfig
	Comeback         ComebackConfig
	FrontLoadPercent float64
	DebtReliefWeeks  int
}

func DefaultSettings() Settings {
	return Settings{
		Capacity:         DefaultCapacityConfig(),
		Debt:             DefaultDebtConfig(),
		Comeback:         DefaultComebackConfig(),
		FrontLoadPercent: DefaultFrontLoadPercent,
		DebtReliefWeeks:  DefaultDebtReliefWeeks,
	}
}

// PlanRequest 完整计划的输入。
//
// ProjectedSavingsBasis：当前预测中已由其他渠道落实的金额，会先从目标中扣除再分配。
// ActualTotalSavings：已经实际存下的金额（可能含手工调整），只用于计算落后多少，不参与分配。
type PlanRequest struct {
	GoalAmount            decimal.Decimal
	StartDate             time.Time
	Deadline              time.Time
	AsOf                  time.Time
	Inputs                CapacityInputs
	ProjectedSavingsBasis decimal.Decimal
	ActualTotalSavings    decimal.Decimal
	FrontLoading          bool
	MaxSafeWeeklyAmount   decimal.Decimal
}

type PlanResult struct {
	Plan       *Retroplan         `json:"plan"`
	Debt       DebtAssessment     `json:"debt"`
	Comeback   ComebackAssessment `json:"comeback"`
	Capacities []WeekCapacity     `json:"capacities"`
	Deficit    decimal.Decimal    `json:"deficit"`
}

// Assessments 只做债务和回归检测，不生成计划
type Assessments struct {
	Debt     DebtAssessment     `json:"debt"`
	Comeback ComebackAssessment `json:"comeback"`
	Deficit  decimal.Decimal    `json:"deficit"`
}

// Plan 依次执行：近期能量按周归并 -> 容量 -> 基线计划算欠额 -> 债务/回归检测 -> 最终计划
func Plan(req PlanRequest, s Settings) (*PlanResult, error) {
	p, err := prepare(req, s)
	if err != nil {
		return nil, err
	}

	opts := p.opts
	if p.assess.Comeback.Detected {
		opts.Comeback = &p.assess.Comeback
	}
	plan, err := GenerateRetroplan(req.GoalAmount, req.StartDate, req.Deadline, p.caps, opts)
	if err != nil {
		return nil, err
	}
	return &PlanResult{
		Plan:       plan,
		Debt:       p.assess.Debt,
		Comeback:   p.assess.Comeback,
		Capacities: p.caps,
		Deficit:    p.assess.Deficit,
	}, nil
}

// Assess 只返回检测结果，供界面在不重新生成计划时展示提醒
func Assess(req PlanRequest, s Settings) (*Assessments, error) {
	p, err := prepare(req, s)
	if err != nil {
		return nil, err
	}
	return p.assess, nil
}

type prepared struct {
	caps   []WeekCapacity
	opts   PlanOptions
	assess *Assessments
}

func prepare(req PlanRequest, s Settings) (*prepared, error) {
	if !req.GoalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: goal amount must be positive, got %s", ErrInvalidInput, req.GoalAmount)
	}
	if req.ActualTotalSavings.IsNegative() {
		return nil, fmt.Errorf("%w: actual total savings cannot be negative", ErrInvalidInput)
	}

	weekly := RecentWeekly(req.Inputs.Energy, req.AsOf)
	inputs := req.Inputs
	inputs.Energy = weekly

	caps, err := BuildWeekCapacities(req.StartDate, req.Deadline, req.AsOf, inputs, s.Capacity)
	if err != nil {
		return nil, err
	}

	opts := PlanOptions{
		ProjectedSavingsBasis: req.ProjectedSavingsBasis,
		FrontLoading:          req.FrontLoading,
		FrontLoadPercent:      s.FrontLoadPercent,
		MaxSafeWeeklyAmount:   req.MaxSafeWeeklyAmount,
		AsOf:                  req.AsOf,
		DebtReliefWeeks:       s.DebtReliefWeeks,
	}
	baseline, err := GenerateRetroplan(req.GoalAmount, req.StartDate, req.Deadline, caps, PlanOptions{
		ProjectedSavingsBasis: req.ProjectedSavingsBasis,
		MaxSafeWeeklyAmount:   req.MaxSafeWeeklyAmount,
	})
	if err != nil {
		return nil, err
	}
	deficit := Deficit(baseline, req.AsOf, req.ActualTotalSavings)

	debt := DetectEnergyDebt(weekly, s.Debt)
	if debt.Detected {
		opts.Debt = &debt
	}

	// 追赶只能用前置和减负之后各周剩下的余量
	committed, err := GenerateRetroplan(req.GoalAmount, req.StartDate, req.Deadline, caps, opts)
	if err != nil {
		return nil, err
	}

	current := 0
	if !req.AsOf.IsZero() {
		spans := make([]WeekSpan, len(caps))
		for i, c := range caps {
			spans[i] = c.WeekSpan
		}
		current = WeekIndexAt(spans, req.AsOf)
	}
	var remaining []WeekCapacity
	var headroom []decimal.Decimal
	if current < len(caps) {
		remaining = caps[current:]
		headroom = Headroom(committed, caps, req.MaxSafeWeeklyAmount)
		if headroom != nil {
			headroom = headroom[current:]
		}
	}

	cb := s.Comeback
	cb.MaxSafeWeeklyAmount = req.MaxSafeWeeklyAmount

	return &prepared{
		caps: caps,
		opts: opts,
		assess: &Assessments{
			Debt:     debt,
			Comeback: DetectComeback(weekly, deficit, remaining, headroom, cb),
			Deficit:  deficit,
		},
	}, nil
}

// Headroom 每周在 plan 现有目标之上距离上限 capacityScore * maxSafe 的余量，不为负；
// maxSafe 不为正时返回 nil 表示不设上限
func Headroom(plan *Retroplan, weeks []WeekCapacity, maxSafe decimal.Decimal) []decimal.Decimal {
	weights := make([]float64, len(weeks))
	for i, w := range weeks {
		weights[i] = w.CapacityScore
	}
	ceilings := weekCeilings(maxSafe, weights)
	if ceilings == nil || plan == nil {
		return ceilings
	}
	for i := range ceilings {
		if i < len(plan.Milestones) {
			ceilings[i] = nonNegative(ceilings[i].Sub(plan.Milestones[i].AdjustedTarget))
		}
	}
	return ceilings
}

// Deficit 截至 asOf 已结束各周的基线累计目标减去实际储蓄，不为负
func Deficit(baseline *Retroplan, asOf time.Time, actual decimal.Decimal) decimal.Decimal {
	if baseline == nil || asOf.IsZero() {
		return decimal.Zero
	}
	day := dateOnly(asOf)
	expected := decimal.Zero
	for _, m := range baseline.Milestones {
		if !m.End.Before(day) {
			break
		}
		expected = expected.Add(m.BaseTarget)
	}
	return nonNegative(expected.Sub(actual))
}
