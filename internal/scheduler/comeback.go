package scheduler

import (
	"math"

	"github.com/shopspring/decimal"
)

// DetectComeback 判断是否在低谷后急剧恢复，并生成追赶计划。
//
// 触发条件：当前记录之前存在 >= 2 条连续低于 LowThreshold 的记录，
// 当前记录高于 RecoveredThreshold，且前一条仍低于 RecentLowThreshold。
// weeks 是截止日前剩余的周，headroom 是这些周在现有目标之上还能再加的金额；
// headroom 为 nil 时以 capacityScore * MaxSafeWeeklyAmount 为上限。放不下的部分记入 Shortfall。
func DetectComeback(history []EnergyEntry, deficit decimal.Decimal, weeks []WeekCapacity, headroom []decimal.Decimal, cfg ComebackConfig) ComebackAssessment {
	cfg = cfg.withDefaults()
	if deficit.IsNegative() {
		deficit = decimal.Zero
	}
	out := ComebackAssessment{
		DeficitAmount: deficit,
		CatchUpPlan:   []CatchUpWeek{},
		Shortfall:     decimal.Zero,
	}

	recent := tail(history, cfg.MaxHistory)
	if len(recent) < 3 {
		return out
	}
	current := recent[len(recent)-1].Level
	previous := recent[len(recent)-2].Level
	if current <= cfg.RecoveredThreshold || previous >= cfg.RecentLowThreshold {
		return out
	}

	lowRun := longestLowRun(recent[:len(recent)-1], cfg.LowThreshold)
	if lowRun < 2 {
		return out
	}

	out.Detected = true
	jump := (current - cfg.RecoveredThreshold) / math.Max(1, 100-cfg.RecoveredThreshold)
	out.Confidence = round(clamp(0.6+0.1*math.Min(2, float64(lowRun-2))+0.2*clamp(jump, 0, 1), 0, 1), 4)
	caps := headroom
	if caps == nil {
		weights := make([]float64, len(weeks))
		for i, w := range weeks {
			weights[i] = w.CapacityScore
		}
		caps = weekCeilings(cfg.MaxSafeWeeklyAmount, weights)
	}
	out.CatchUpPlan, out.Shortfall = buildCatchUpPlan(deficit, weeks, caps)
	return out
}

func longestLowRun(entries []EnergyEntry, threshold float64) int {
	best, run := 0, 0
	for _, e := range entries {
		if e.Level < threshold {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}

// buildCatchUpPlan 按容量把欠额分到剩余各周，caps 为各周上限（nil 表示不限）；
// 截断到分后把零头放到最后一个还有余量的周
func buildCatchUpPlan(deficit decimal.Decimal, weeks []WeekCapacity, caps []decimal.Decimal) ([]CatchUpWeek, decimal.Decimal) {
	plan := []CatchUpWeek{}
	if !deficit.IsPositive() || len(weeks) == 0 {
		return plan, decimal.Zero
	}

	weights := make([]float64, len(weeks))
	for i, w := range weeks {
		weights[i] = w.CapacityScore
	}
	if caps != nil {
		truncated := make([]decimal.Decimal, len(caps))
		for i, c := range caps {
			truncated[i] = nonNegative(c).Truncate(2)
		}
		caps = truncated
	}

	alloc, _ := waterFill(deficit, weights, caps)
	placed := decimal.Zero
	for i := range alloc {
		alloc[i] = alloc[i].Truncate(2)
		placed = placed.Add(alloc[i])
	}

	dust := deficit.Round(2).Sub(placed)
	for i := len(alloc) - 1; i >= 0 && dust.IsPositive(); i-- {
		if caps != nil && caps[i].Sub(alloc[i]).LessThan(dust) {
			continue
		}
		alloc[i] = alloc[i].Add(dust)
		placed = placed.Add(dust)
		dust = decimal.Zero
	}

	for i, a := range alloc {
		if a.IsPositive() {
			plan = append(plan, CatchUpWeek{WeekIndex: weeks[i].Index, Extra: a})
		}
	}
	return plan, nonNegative(deficit.Sub(placed))
}
