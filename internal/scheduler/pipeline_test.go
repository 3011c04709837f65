package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func recoveringStudent() PlanRequest {
	start := day(2025, 1, 6)
	return PlanRequest{
		GoalAmount: dec("800"),
		StartDate:  start,
		Deadline:   start.AddDate(0, 0, 55),
		AsOf:       day(2025, 2, 3),
		Inputs: CapacityInputs{
			Energy: []EnergyEntry{
				{Level: 60, LoggedAt: day(2025, 1, 7)},
				{Level: 30, LoggedAt: day(2025, 1, 14)},
				{Level: 35, LoggedAt: day(2025, 1, 21)},
				{Level: 80, LoggedAt: day(2025, 1, 27)},
				{Level: 90, LoggedAt: day(2025, 1, 29)},
			},
		},
		ActualTotalSavings: dec("100"),
	}
}

func TestPlan_ComebackAddsCatchUpToRemainingWeeks(t *testing.T) {
	req := recoveringStudent()

	res, err := Plan(req, DefaultSettings())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !res.Comeback.Detected {
		t.Fatal("expected comeback from weekly-aggregated history [60 30 35 85]")
	}
	if res.Debt.Detected {
		t.Errorf("unexpected debt: %+v", res.Debt)
	}
	if !res.Deficit.IsPositive() {
		t.Fatalf("Deficit = %s, want > 0", res.Deficit)
	}
	for _, cw := range res.Comeback.CatchUpPlan {
		if cw.WeekIndex < 4 {
			t.Errorf("catch-up scheduled in past week %d", cw.WeekIndex)
		}
	}

	// 没有上限时欠额全部被吸收
	want := req.GoalAmount.Add(res.Deficit)
	if got := sumAdjusted(res.Plan); !got.Equal(want) {
		t.Errorf("sum(adjusted) = %s, want %s", got, want)
	}
	if got := sumBase(res.Plan); !got.Equal(req.GoalAmount) {
		t.Errorf("sum(base) = %s, want %s", got, req.GoalAmount)
	}
}

func TestPlan_DebtReducesCurrentWeeks(t *testing.T) {
	req := recoveringStudent()
	req.Inputs.Energy = []EnergyEntry{
		{Level: 30, LoggedAt: day(2025, 1, 13)},
		{Level: 25, LoggedAt: day(2025, 1, 20)},
		{Level: 20, LoggedAt: day(2025, 1, 27)},
		{Level: 35, LoggedAt: day(2025, 2, 3)},
	}

	res, err := Plan(req, DefaultSettings())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !res.Debt.Detected || res.Debt.Severity != SeverityMedium {
		t.Fatalf("Debt = %+v, want medium", res.Debt)
	}
	for _, i := range []int{4, 5} {
		m := res.Plan.Milestones[i]
		if !m.AdjustedTarget.LessThan(m.BaseTarget) {
			t.Errorf("week %d adjusted %s should be below base %s", i, m.AdjustedTarget, m.BaseTarget)
		}
	}
}

func TestPlan_BasisAndActualSavingsAreSeparate(t *testing.T) {
	req := recoveringStudent()
	s := DefaultSettings()

	withBasis := req
	withBasis.ProjectedSavingsBasis = dec("300")
	a, err := Plan(withBasis, s)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !a.Plan.EffectiveGoalForWork.Equal(dec("500")) {
		t.Errorf("EffectiveGoalForWork = %s, want 500", a.Plan.EffectiveGoalForWork)
	}

	richer := req
	richer.ActualTotalSavings = dec("10000")
	b, err := Plan(richer, s)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !b.Plan.EffectiveGoalForWork.Equal(req.GoalAmount) {
		t.Errorf("actual savings must not change the distributed amount, got %s", b.Plan.EffectiveGoalForWork)
	}
	if !b.Deficit.IsZero() {
		t.Errorf("Deficit = %s, want 0 when ahead of plan", b.Deficit)
	}
}

func TestAssess_MatchesPlan(t *testing.T) {
	req := recoveringStudent()
	s := DefaultSettings()

	assess, err := Assess(req, s)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	res, err := Plan(req, s)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if assess.Comeback.Detected != res.Comeback.Detected || !assess.Deficit.Equal(res.Deficit) {
		t.Errorf("Assess() = %+v, Plan() comeback = %+v", assess, res.Comeback)
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	req := recoveringStudent()
	req.ActualTotalSavings = dec("-1")
	if _, err := Plan(req, DefaultSettings()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative actual savings: err = %v, want ErrInvalidInput", err)
	}

	req = recoveringStudent()
	req.Deadline = req.StartDate.Add(-24 * time.Hour)
	if _, err := Plan(req, DefaultSettings()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("deadline before start: err = %v, want ErrInvalidInput", err)
	}
}

func TestDeficit(t *testing.T) {
	start := day(2025, 9, 1)
	weeks, deadline := uniformWeeks(start, 4, 1)
	baseline, _ := GenerateRetroplan(dec("400"), start, deadline, weeks, PlanOptions{})

	tests := []struct {
		name   string
		asOf   time.Time
		actual string
		want   string
	}{
		{name: "no as-of date", asOf: time.Time{}, actual: "0", want: "0"},
		{name: "first week still running", asOf: day(2025, 9, 3), actual: "0", want: "0"},
		{name: "two weeks elapsed", asOf: day(2025, 9, 15), actual: "120", want: "80"},
		{name: "ahead of plan", asOf: day(2025, 9, 15), actual: "250", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deficit(baseline, tt.asOf, dec(tt.actual))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Deficit() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPlan_StaleOrGappedStreakIsNotCurrent(t *testing.T) {
	base := recoveringStudent()

	tests := []struct {
		name   string
		asOf   time.Time
		energy []EnergyEntry
		debt   bool
	}{
		{
			name: "streak ended weeks before as-of",
			asOf: day(2025, 3, 10),
			energy: []EnergyEntry{
				{Level: 30, LoggedAt: day(2025, 1, 6)},
				{Level: 30, LoggedAt: day(2025, 1, 13)},
				{Level: 30, LoggedAt: day(2025, 1, 20)},
			},
		},
		{
			name: "empty week breaks the streak",
			asOf: day(2025, 2, 3),
			energy: []EnergyEntry{
				{Level: 30, LoggedAt: day(2025, 1, 6)},
				{Level: 30, LoggedAt: day(2025, 1, 13)},
				{Level: 30, LoggedAt: day(2025, 1, 27)},
				{Level: 30, LoggedAt: day(2025, 2, 3)},
			},
		},
		{
			name: "as-of week not logged yet",
			asOf: day(2025, 2, 3),
			energy: []EnergyEntry{
				{Level: 30, LoggedAt: day(2025, 1, 13)},
				{Level: 30, LoggedAt: day(2025, 1, 20)},
				{Level: 30, LoggedAt: day(2025, 1, 27)},
			},
			debt: true,
		},
		{
			name: "entries after as-of are ignored",
			asOf: day(2025, 1, 27),
			energy: []EnergyEntry{
				{Level: 30, LoggedAt: day(2025, 1, 13)},
				{Level: 30, LoggedAt: day(2025, 1, 20)},
				{Level: 30, LoggedAt: day(2025, 1, 27)},
				{Level: 90, LoggedAt: day(2025, 2, 3)},
			},
			debt: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.AsOf = tt.asOf
			req.Inputs.Energy = tt.energy

			assess, err := Assess(req, DefaultSettings())
			if err != nil {
				t.Fatalf("Assess() error = %v", err)
			}
			if assess.Debt.Detected != tt.debt {
				t.Errorf("Debt = %+v, want detected %v", assess.Debt, tt.debt)
			}
			if assess.Comeback.Detected {
				t.Errorf("unexpected comeback: %+v", assess.Comeback)
			}
		})
	}
}

func TestPlan_StaleEnergyDoesNotScaleCapacity(t *testing.T) {
	req := recoveringStudent()
	req.AsOf = day(2025, 2, 17)
	req.Inputs.Energy = []EnergyEntry{{Level: 10, LoggedAt: day(2025, 1, 6)}}

	res, err := Plan(req, DefaultSettings())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	for _, c := range res.Capacities {
		if c.EnergyMultiplier != 1 {
			t.Errorf("week %d energy multiplier = %v, want 1 without recent entries", c.Index, c.EnergyMultiplier)
		}
	}
}

func TestPlan_ShortfallMatchesUnabsorbedCatchUp(t *testing.T) {
	start := day(2025, 1, 6)
	req := PlanRequest{
		GoalAmount:          dec("600"),
		StartDate:           start,
		Deadline:            start.AddDate(0, 0, 41),
		AsOf:                start.AddDate(0, 0, 21),
		MaxSafeWeeklyAmount: dec("110"),
		Inputs: CapacityInputs{Energy: []EnergyEntry{
			{Level: 30, LoggedAt: start},
			{Level: 30, LoggedAt: start.AddDate(0, 0, 7)},
			{Level: 35, LoggedAt: start.AddDate(0, 0, 14)},
			{Level: 85, LoggedAt: start.AddDate(0, 0, 21)},
		}},
	}

	res, err := Plan(req, DefaultSettings())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !res.Comeback.Detected {
		t.Fatal("expected comeback")
	}
	if !res.Comeback.Shortfall.IsPositive() {
		t.Fatalf("Shortfall = %s, want > 0 when the plan already fills the ceilings", res.Comeback.Shortfall)
	}
	if !res.Comeback.Shortfall.Equal(res.Plan.UnabsorbedCatchUp) {
		t.Errorf("Shortfall = %s, UnabsorbedCatchUp = %s, want equal", res.Comeback.Shortfall, res.Plan.UnabsorbedCatchUp)
	}

	placed := decimal.Zero
	for _, cw := range res.Comeback.CatchUpPlan {
		placed = placed.Add(cw.Extra)
		ceiling := req.MaxSafeWeeklyAmount.Mul(decimal.NewFromFloat(res.Capacities[cw.WeekIndex].CapacityScore))
		if got := res.Plan.Milestones[cw.WeekIndex].AdjustedTarget; got.GreaterThan(ceiling) {
			t.Errorf("week %d = %s exceeds its ceiling %s", cw.WeekIndex, got, ceiling)
		}
	}
	if got := placed.Add(res.Comeback.Shortfall); !got.Equal(res.Deficit) {
		t.Errorf("placed + shortfall = %s, want deficit %s", got, res.Deficit)
	}
	want := req.GoalAmount.Add(placed)
	if got := sumAdjusted(res.Plan); !got.Equal(want) {
		t.Errorf("sum(adjusted) = %s, want %s", got, want)
	}
}
