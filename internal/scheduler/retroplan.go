package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GenerateRetroplan 把目标金额按周容量分配到 start..deadline 的每一周。
//
// 调整顺序固定：按比例分配 -> 前置 -> 能量债务减负 -> 取整到分 -> 回归追赶。
// 金额最多两位小数。计划总是会返回，超负荷只体现在 FeasibilityScore 和 OverloadedWeeks 上。
// 相同输入总是得到完全相同的输出。
func GenerateRetroplan(goalAmount decimal.Decimal, start, deadline time.Time, weeks []WeekCapacity, opts PlanOptions) (*Retroplan, error) {
	if !goalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: goal amount must be positive, got %s", ErrInvalidInput, goalAmount)
	}
	if !isCents(goalAmount) || !isCents(opts.ProjectedSavingsBasis) {
		return nil, fmt.Errorf("%w: amounts are limited to two decimal places", ErrInvalidInput)
	}
	spans, err := EnumerateWeeks(start, deadline)
	if err != nil {
		return nil, err
	}
	if len(weeks) != len(spans) {
		return nil, fmt.Errorf("%w: expected %d week capacities, got %d", ErrInvalidInput, len(spans), len(weeks))
	}
	if opts.ProjectedSavingsBasis.IsNegative() {
		return nil, fmt.Errorf("%w: projected savings basis cannot be negative", ErrInvalidInput)
	}
	if opts.MaxSafeWeeklyAmount.IsNegative() {
		return nil, fmt.Errorf("%w: max safe weekly amount cannot be negative", ErrInvalidInput)
	}
	frontLoad := opts.FrontLoadPercent
	if opts.FrontLoading && frontLoad == 0 {
		frontLoad = DefaultFrontLoadPercent
	}
	if frontLoad < 0 || frontLoad > MaxFrontLoadPercent {
		return nil, fmt.Errorf("%w: front-load percent must be within [0, %.0f]", ErrInvalidInput, MaxFrontLoadPercent)
	}

	n := len(weeks)
	weights := make([]float64, n)
	for i, w := range weeks {
		weights[i] = w.CapacityScore
		if weights[i] <= 0 || math.IsNaN(weights[i]) {
			return nil, fmt.Errorf("%w: week %d has non-positive capacity score", ErrInvalidInput, i)
		}
	}

	effective := goalAmount.Sub(opts.ProjectedSavingsBasis)
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	base := allocateCents(effective, weights)
	adjusted := make([]decimal.Decimal, n)
	copy(adjusted, base)

	if opts.FrontLoading {
		applyFrontLoading(adjusted, weights, frontLoad)
	}

	ceilings := weekCeilings(opts.MaxSafeWeeklyAmount, weights)
	current := WeekIndexAt(spans, opts.AsOf)

	if opts.Debt != nil && opts.Debt.Detected {
		relief := opts.DebtReliefWeeks
		if relief <= 0 {
			relief = DefaultDebtReliefWeeks
		}
		applyDebtRelief(adjusted, weights, ceilings, current, relief, opts.Debt.ReductionFactor)
	}

	// 追赶金额本身是整分，先取整再叠加，叠加后不会再挪动零头
	adjusted = settleCents(adjusted, ceilings)
	uncovered := nonNegative(effective.Sub(sumDecimals(adjusted)))

	unabsorbed := decimal.Zero
	if opts.Comeback != nil && opts.Comeback.Detected {
		// 检测阶段已经放不下的 Shortfall 同样算作未吸收
		unabsorbed = applyCatchUp(adjusted, ceilings, current, opts.Comeback.CatchUpPlan).Add(nonNegative(opts.Comeback.Shortfall))
	}

	plan := &Retroplan{
		Milestones:           make([]Milestone, n),
		EffectiveGoalForWork: effective,
		UncoveredDebtAmount:  uncovered,
		UnabsorbedCatchUp:    unabsorbed,
		OverloadedWeeks:      []int{},
	}

	cumulative := decimal.Zero
	for i, w := range weeks {
		cumulative = cumulative.Add(adjusted[i])
		plan.Milestones[i] = Milestone{
			WeekSpan:         spans[i],
			BaseTarget:       base[i],
			AdjustedTarget:   adjusted[i],
			CumulativeTarget: cumulative,
			CapacityScore:    round(w.CapacityScore, 4),
		}
	}

	plan.FeasibilityScore = scoreFeasibility(plan, opts.MaxSafeWeeklyAmount)
	plan.FrontLoadedPercentage = frontLoadedShare(adjusted)
	return plan, nil
}

// applyFrontLoading 从后半段每周取 pct% 挪到前半段，前半段按各自容量占比分摊，奇数周时中间那周不动
func applyFrontLoading(adjusted []decimal.Decimal, weights []float64, pct float64) {
	half := len(adjusted) / 2
	if half == 0 || pct <= 0 {
		return
	}
	ratio := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))

	moved := decimal.Zero
	for i := len(adjusted) - half; i < len(adjusted); i++ {
		take := adjusted[i].Mul(ratio)
		adjusted[i] = adjusted[i].Sub(take)
		moved = moved.Add(take)
	}

	shares := splitProportional(moved, weights[:half])
	for i := 0; i < half; i++ {
		adjusted[i] = adjusted[i].Add(shares[i])
	}
}

// applyDebtRelief 当前周起 relief 周内的目标只保留 (1 - factor)，
// 减下来的金额按容量分给之后的未来周，每周不超过自己的上限；放不下的部分直接从计划中移除
func applyDebtRelief(adjusted []decimal.Decimal, weights []float64, ceilings []decimal.Decimal, current, relief int, factor float64) {
	n := len(adjusted)
	if current < 0 || current >= n {
		return
	}
	factor = clamp(factor, 0, 1)
	if factor == 0 {
		return
	}
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(factor))

	end := current + relief
	if end > n {
		end = n
	}
	removed := decimal.Zero
	for i := current; i < end; i++ {
		reduced := adjusted[i].Mul(keep)
		removed = removed.Add(adjusted[i].Sub(reduced))
		adjusted[i] = reduced
	}
	if end >= n {
		return
	}

	recipients := weights[end:]
	var rooms []decimal.Decimal
	if ceilings != nil {
		rooms = make([]decimal.Decimal, len(recipients))
		for j := range recipients {
			rooms[j] = nonNegative(ceilings[end+j].Sub(adjusted[end+j]))
		}
	}
	alloc, _ := waterFill(removed, recipients, rooms)
	for j, a := range alloc {
		adjusted[end+j] = adjusted[end+j].Add(a)
	}
}

// applyCatchUp 把追赶计划的额外金额加到对应的未来周，受每周上限约束；放不下的部分返回
func applyCatchUp(adjusted []decimal.Decimal, ceilings []decimal.Decimal, current int, plan []CatchUpWeek) decimal.Decimal {
	unabsorbed := decimal.Zero
	for _, cw := range plan {
		if !cw.Extra.IsPositive() {
			continue
		}
		i := cw.WeekIndex
		if i < current || i < 0 || i >= len(adjusted) {
			unabsorbed = unabsorbed.Add(cw.Extra)
			continue
		}
		extra := cw.Extra
		if ceilings != nil {
			room := nonNegative(ceilings[i].Sub(adjusted[i]))
			if extra.GreaterThan(room) {
				unabsorbed = unabsorbed.Add(extra.Sub(room))
				extra = room
			}
		}
		adjusted[i] = adjusted[i].Add(extra)
	}
	return unabsorbed
}

// weekCeilings 每周上限 = maxSafe * 容量分，截断到分；maxSafe 不为正时返回 nil 表示不设上限
func weekCeilings(maxSafe decimal.Decimal, weights []float64) []decimal.Decimal {
	if !maxSafe.IsPositive() {
		return nil
	}
	ceilings := make([]decimal.Decimal, len(weights))
	for i, w := range weights {
		ceilings[i] = maxSafe.Mul(decimal.NewFromFloat(w)).Truncate(2)
	}
	return ceilings
}

// scoreFeasibility 每个超负荷周扣 0.5~1.0 / n，超出越多扣得越多；没有上限信息时为 1
func scoreFeasibility(plan *Retroplan, maxSafe decimal.Decimal) float64 {
	n := len(plan.Milestones)
	if n == 0 || !maxSafe.IsPositive() {
		return 1
	}
	penalty := 0.0
	for i := range plan.Milestones {
		m := &plan.Milestones[i]
		if !m.AdjustedTarget.GreaterThan(maxSafe) {
			continue
		}
		m.Overloaded = true
		plan.OverloadedWeeks = append(plan.OverloadedWeeks, m.Index)
		excess, _ := m.AdjustedTarget.Sub(maxSafe).Div(maxSafe).Float64()
		penalty += 0.5 + 0.5*math.Min(1, excess)
	}
	return round(clamp(1-penalty/float64(n), 0, 1), 4)
}

// frontLoadedShare 前半段占调整后总额的百分比
func frontLoadedShare(adjusted []decimal.Decimal) float64 {
	total := sumDecimals(adjusted)
	half := len(adjusted) / 2
	if half == 0 || !total.IsPositive() {
		return 0
	}
	front := sumDecimals(adjusted[:half])
	pct, _ := front.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return round(pct, 2)
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
