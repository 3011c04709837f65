package scheduler

import (
	"fmt"
	"math"
	"time"
)

const (
	minAcademicImpact = 0.0
	maxAcademicImpact = 1.5
	neutralEnergy     = 50.0
)

// BaseWeeklyHours 一周总时长减去睡眠和上课/自习后剩余的小时数
func BaseWeeklyHours(cfg CapacityConfig) float64 {
	cfg = cfg.withDefaults()
	return math.Max(0, cfg.TotalWeeklyHours-cfg.SleepHoursWeekly-cfg.StudyHoursWeekly)
}

// ComputeWeekCapacity 计算单周的容量分数。
//
// 多个学业事件与同一周重叠时取最小的倍率：考试周落在假期里时，不能被假期的宽松倍率掩盖。
// 结果总是 >= MinCapacityScore，分配时总和不会为零。
func ComputeWeekCapacity(week WeekSpan, baseWeeklyHours float64, commitments []Commitment, events []AcademicEvent, energyMultiplier float64, cfg CapacityConfig) WeekCapacity {
	cfg = cfg.withDefaults()

	committed := 0.0
	for _, c := range commitments {
		if c.HoursPerWeek > 0 {
			committed += c.HoursPerWeek
		}
	}
	baseHours := math.Max(0, baseWeeklyHours-committed)

	academic := AcademicMultiplier(week, events)
	if energyMultiplier < 0 {
		energyMultiplier = 0
	}

	score := (baseHours / cfg.ReferenceWeeklyHours) * academic * energyMultiplier
	if math.IsNaN(score) || score < cfg.MinCapacityScore {
		score = cfg.MinCapacityScore
	}

	return WeekCapacity{
		WeekSpan:           week,
		CapacityScore:      score,
		BaseHours:          baseHours,
		AcademicMultiplier: academic,
		EnergyMultiplier:   energyMultiplier,
	}
}

// AcademicMultiplier 与该周相交的事件中最严格的倍率，无事件时为 1.0
func AcademicMultiplier(week WeekSpan, events []AcademicEvent) float64 {
	found := false
	multiplier := 1.0
	for _, e := range events {
		if !intersects(week, e) {
			continue
		}
		impact := clamp(e.CapacityImpact, minAcademicImpact, maxAcademicImpact)
		if !found || impact < multiplier {
			multiplier = impact
			found = true
		}
	}
	return multiplier
}

func intersects(week WeekSpan, e AcademicEvent) bool {
	start, end := dateOnly(e.Start), dateOnly(e.End)
	return !start.After(dateOnly(week.End)) && !end.Before(dateOnly(week.Start))
}

// EnergyMultiplier 最近几条能量记录的加权平均，映射到 [floor, ceiling]，50 对应 1.0。
// history 需按时间升序排列，没有记录时返回 1.0
func EnergyMultiplier(history []EnergyEntry, cfg CapacityConfig) float64 {
	cfg = cfg.withDefaults()
	if len(history) == 0 {
		return 1.0
	}

	recent := tail(history, cfg.EnergyWindow)
	var weighted, weights float64
	w := 1.0
	for i := len(recent) - 1; i >= 0; i-- {
		weighted += clamp(recent[i].Level, 0, 100) * w
		weights += w
		w *= cfg.EnergyDecay
	}
	avg := weighted / weights

	if avg <= neutralEnergy {
		return cfg.EnergyFloor + (1-cfg.EnergyFloor)*avg/neutralEnergy
	}
	return 1 + (cfg.EnergyCeiling-1)*(avg-neutralEnergy)/neutralEnergy
}

// EnumerateWeeks 从 start 到 deadline（含）按 7 天切分，最后一周截止到 deadline
func EnumerateWeeks(start, deadline time.Time) ([]WeekSpan, error) {
	start, deadline = dateOnly(start), dateOnly(deadline)
	if start.IsZero() || deadline.IsZero() {
		return nil, fmt.Errorf("%w: start date and deadline are required", ErrInvalidInput)
	}
	if deadline.Before(start) {
		return nil, fmt.Errorf("%w: deadline %s is before start date %s", ErrInvalidInput, deadline.Format(dateLayout), start.Format(dateLayout))
	}

	var weeks []WeekSpan
	for i, ws := 0, start; !ws.After(deadline); i, ws = i+1, ws.AddDate(0, 0, 7) {
		we := ws.AddDate(0, 0, 6)
		if we.After(deadline) {
			we = deadline
		}
		weeks = append(weeks, WeekSpan{Index: i, Start: ws, End: we})
	}
	return weeks, nil
}

// CapacityInputs 构建整段计划容量所需的原始信号
type CapacityInputs struct {
	Commitments []Commitment
	Events      []AcademicEvent
	Energy      []EnergyEntry
}

// BuildWeekCapacities 计算 start..deadline 每一周的容量。
// 能量倍率只作用于 asOf 所在周起的 EnergyHorizonWeeks 周，其余周按 1.0 计算
func BuildWeekCapacities(start, deadline, asOf time.Time, in CapacityInputs, cfg CapacityConfig) ([]WeekCapacity, error) {
	cfg = cfg.withDefaults()
	weeks, err := EnumerateWeeks(start, deadline)
	if err != nil {
		return nil, err
	}

	base := BaseWeeklyHours(cfg)
	energy := EnergyMultiplier(in.Energy, cfg)
	current := WeekIndexAt(weeks, asOf)

	out := make([]WeekCapacity, len(weeks))
	for i, w := range weeks {
		m := 1.0
		if current >= 0 && i >= current && i < current+cfg.EnergyHorizonWeeks {
			m = energy
		}
		out[i] = ComputeWeekCapacity(w, base, in.Commitments, in.Events, m, cfg)
	}
	return out, nil
}

// WeekIndexAt 返回 t 所在周的下标；t 早于计划开始时返回 0，晚于截止日返回 len(weeks)
func WeekIndexAt(weeks []WeekSpan, t time.Time) int {
	if len(weeks) == 0 {
		return -1
	}
	t = dateOnly(t)
	if t.IsZero() || t.Before(weeks[0].Start) {
		return 0
	}
	for i, w := range weeks {
		if !t.After(w.End) {
			return i
		}
	}
	return len(weeks)
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
