package scheduler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func weekly(levels ...float64) []EnergyEntry {
	start := day(2025, 1, 6)
	out := make([]EnergyEntry, len(levels))
	for i, l := range levels {
		out[i] = EnergyEntry{Level: l, LoggedAt: start.AddDate(0, 0, 7*i)}
	}
	return out
}

func TestDetectEnergyDebt(t *testing.T) {
	tests := []struct {
		name     string
		levels   []float64
		detected bool
		severity Severity
		streak   int
		factor   float64
	}{
		{name: "empty history", levels: nil, severity: SeverityNone},
		{name: "two low weeks never trigger", levels: []float64{60, 30, 25}, severity: SeverityNone, streak: 2},
		{name: "three low weeks always trigger", levels: []float64{35, 30, 25}, detected: true, severity: SeverityLow, streak: 3, factor: 0.50},
		{name: "four low weeks", levels: []float64{70, 35, 30, 25, 20}, detected: true, severity: SeverityMedium, streak: 4, factor: 0.75},
		{name: "five low weeks", levels: []float64{35, 30, 25, 20, 10}, detected: true, severity: SeverityHigh, streak: 5, factor: 0.85},
		{name: "long streak stays high", levels: []float64{10, 10, 10, 10, 10, 10, 10, 10}, detected: true, severity: SeverityHigh, streak: 8, factor: 0.85},
		{name: "streak broken at present", levels: []float64{20, 20, 20, 20, 45}, severity: SeverityNone, streak: 0},
		{name: "old debt is not current debt", levels: []float64{20, 20, 20, 20, 60, 30}, severity: SeverityNone, streak: 1},
		{name: "threshold itself is not low", levels: []float64{40, 40, 40}, severity: SeverityNone, streak: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEnergyDebt(weekly(tt.levels...), DefaultDebtConfig())
			if got.Detected != tt.detected {
				t.Errorf("Detected = %v, want %v", got.Detected, tt.detected)
			}
			if got.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.severity)
			}
			if got.ConsecutiveLow != tt.streak {
				t.Errorf("ConsecutiveLow = %d, want %d", got.ConsecutiveLow, tt.streak)
			}
			if got.ReductionFactor != tt.factor {
				t.Errorf("ReductionFactor = %v, want %v", got.ReductionFactor, tt.factor)
			}
		})
	}
}

func TestDetectEnergyDebt_BoundedHistory(t *testing.T) {
	levels := make([]float64, 20)
	for i := range levels {
		levels[i] = 10
	}
	got := DetectEnergyDebt(weekly(levels...), DebtConfig{LowEnergyThreshold: 40, MaxHistory: 6})
	if got.ConsecutiveLow != 6 {
		t.Errorf("ConsecutiveLow = %d, want 6 (bounded by MaxHistory)", got.ConsecutiveLow)
	}
}

func TestReductionFactorFor(t *testing.T) {
	cases := map[Severity]float64{SeverityNone: 0, SeverityLow: 0.5, SeverityMedium: 0.75, SeverityHigh: 0.85}
	for s, want := range cases {
		if got := ReductionFactorFor(s); got != want {
			t.Errorf("ReductionFactorFor(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestDetectComeback_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		levels   []float64
		detected bool
	}{
		{name: "sharp recovery", levels: []float64{60, 30, 35, 85}, detected: true},
		{name: "previous week no longer low", levels: []float64{60, 30, 65, 85}, detected: false},
		{name: "recovery not high enough", levels: []float64{60, 30, 35, 80}, detected: false},
		{name: "single low week is not a low window", levels: []float64{60, 30, 45, 90}, detected: false},
		{name: "low window earlier, still low last week", levels: []float64{20, 25, 60, 45, 90}, detected: true},
		{name: "too little history", levels: []float64{30, 85}, detected: false},
	}

	weeks, _ := uniformWeeks(day(2025, 2, 3), 4, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectComeback(weekly(tt.levels...), dec("100"), weeks, nil, DefaultComebackConfig())
			if got.Detected != tt.detected {
				t.Errorf("Detected = %v, want %v", got.Detected, tt.detected)
			}
			if !tt.detected && len(got.CatchUpPlan) != 0 {
				t.Errorf("no comeback should mean no catch-up plan, got %v", got.CatchUpPlan)
			}
		})
	}
}

func TestDetectComeback_Confidence(t *testing.T) {
	weeks, _ := uniformWeeks(day(2025, 2, 3), 2, 1)

	short := DetectComeback(weekly(60, 30, 35, 85), decimal.Zero, weeks, nil, DefaultComebackConfig())
	if short.Confidence != 0.65 {
		t.Errorf("Confidence = %v, want 0.65", short.Confidence)
	}
	long := DetectComeback(weekly(20, 20, 20, 20, 35, 100), decimal.Zero, weeks, nil, DefaultComebackConfig())
	if long.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", long.Confidence)
	}
}

func TestDetectComeback_CatchUpPlan(t *testing.T) {
	start := day(2025, 2, 3)
	weeks, _ := uniformWeeks(start, 3, 1)
	weeks[1].CapacityScore = 0.5
	weeks[2].CapacityScore = 0.2
	history := weekly(60, 30, 35, 85)

	tests := []struct {
		name      string
		deficit   string
		maxSafe   string
		shortfall string
	}{
		{name: "fits under caps", deficit: "90", maxSafe: "100", shortfall: "0"},
		{name: "caps leave a shortfall", deficit: "1000", maxSafe: "100", shortfall: "830"},
		{name: "no profile cap", deficit: "1000", maxSafe: "0", shortfall: "0"},
		{name: "odd cents", deficit: "10.01", maxSafe: "100", shortfall: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultComebackConfig()
			cfg.MaxSafeWeeklyAmount = dec(tt.maxSafe)
			got := DetectComeback(history, dec(tt.deficit), weeks, nil, cfg)
			if !got.Detected {
				t.Fatal("expected comeback to be detected")
			}
			if !got.Shortfall.Equal(dec(tt.shortfall)) {
				t.Errorf("Shortfall = %s, want %s", got.Shortfall, tt.shortfall)
			}

			placed := decimal.Zero
			for _, cw := range got.CatchUpPlan {
				placed = placed.Add(cw.Extra)
				if cfg.MaxSafeWeeklyAmount.IsPositive() {
					ceiling := cfg.MaxSafeWeeklyAmount.Mul(decimal.NewFromFloat(weeks[cw.WeekIndex].CapacityScore))
					if cw.Extra.GreaterThan(ceiling) {
						t.Errorf("week %d extra %s exceeds capacity ceiling %s", cw.WeekIndex, cw.Extra, ceiling)
					}
				}
				if !cw.Extra.Equal(cw.Extra.Truncate(2)) {
					t.Errorf("week %d extra %s is not whole cents", cw.WeekIndex, cw.Extra)
				}
			}
			if got := placed.Add(got.Shortfall); !got.Equal(dec(tt.deficit)) {
				t.Errorf("placed + shortfall = %s, want %s", got, tt.deficit)
			}
		})
	}
}

func TestAggregateWeekly(t *testing.T) {
	entries := []EnergyEntry{
		{Level: 80, LoggedAt: time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC)},
		{Level: 30, LoggedAt: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)},
		{Level: 50, LoggedAt: time.Date(2025, 1, 12, 22, 0, 0, 0, time.UTC)},
		{Level: 20, LoggedAt: time.Date(2025, 1, 13, 7, 0, 0, 0, time.UTC)},
	}

	got := AggregateWeekly(entries)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].LoggedAt.Equal(day(2025, 1, 6)) || got[0].Level != 40 {
		t.Errorf("first week = %+v, want monday 2025-01-06 level 40", got[0])
	}
	if !got[1].LoggedAt.Equal(day(2025, 1, 13)) || got[1].Level != 50 {
		t.Errorf("second week = %+v, want monday 2025-01-13 level 50", got[1])
	}
}

func TestDetectComeback_CatchUpRespectsHeadroom(t *testing.T) {
	start := day(2025, 2, 3)
	weeks, _ := uniformWeeks(start, 3, 1)
	cfg := DefaultComebackConfig()
	cfg.MaxSafeWeeklyAmount = dec("100")

	// 前两周已经排到上限，只有最后一周还能放 25
	headroom := []decimal.Decimal{decimal.Zero, decimal.Zero, dec("25")}
	got := DetectComeback(weekly(60, 30, 35, 85), dec("90"), weeks, headroom, cfg)
	if !got.Detected {
		t.Fatal("expected comeback to be detected")
	}
	if len(got.CatchUpPlan) != 1 || got.CatchUpPlan[0].WeekIndex != 2 || !got.CatchUpPlan[0].Extra.Equal(dec("25")) {
		t.Errorf("CatchUpPlan = %+v, want only week 2 with 25", got.CatchUpPlan)
	}
	if !got.Shortfall.Equal(dec("65")) {
		t.Errorf("Shortfall = %s, want 65", got.Shortfall)
	}
}

func TestRecentWeekly(t *testing.T) {
	tests := []struct {
		name  string
		asOf  time.Time
		dates []time.Time
		want  []time.Time
	}{
		{
			name:  "contiguous up to as-of week",
			asOf:  day(2025, 1, 22),
			dates: []time.Time{day(2025, 1, 7), day(2025, 1, 14), day(2025, 1, 21)},
			want:  []time.Time{day(2025, 1, 6), day(2025, 1, 13), day(2025, 1, 20)},
		},
		{
			name:  "previous week closes the series",
			asOf:  day(2025, 1, 27),
			dates: []time.Time{day(2025, 1, 14), day(2025, 1, 21)},
			want:  []time.Time{day(2025, 1, 13), day(2025, 1, 20)},
		},
		{
			name:  "stale history",
			asOf:  day(2025, 3, 10),
			dates: []time.Time{day(2025, 1, 7), day(2025, 1, 14), day(2025, 1, 21)},
		},
		{
			name:  "gap keeps only the newest run",
			asOf:  day(2025, 2, 3),
			dates: []time.Time{day(2025, 1, 6), day(2025, 1, 13), day(2025, 1, 27), day(2025, 2, 3)},
			want:  []time.Time{day(2025, 1, 27), day(2025, 2, 3)},
		},
		{
			name:  "future entries dropped",
			asOf:  day(2025, 1, 13),
			dates: []time.Time{day(2025, 1, 13), day(2025, 1, 20)},
			want:  []time.Time{day(2025, 1, 13)},
		},
		{
			name:  "zero as-of anchors on newest week",
			dates: []time.Time{day(2025, 1, 6), day(2025, 1, 20), day(2025, 1, 27)},
			want:  []time.Time{day(2025, 1, 20), day(2025, 1, 27)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]EnergyEntry, len(tt.dates))
			for i, d := range tt.dates {
				entries[i] = EnergyEntry{Level: 30, LoggedAt: d}
			}
			got := RecentWeekly(entries, tt.asOf)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if !got[i].LoggedAt.Equal(w) {
					t.Errorf("week %d = %s, want %s", i, got[i].LoggedAt.Format("2006-01-02"), w.Format("2006-01-02"))
				}
			}
		})
	}
}
