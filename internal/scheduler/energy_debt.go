package scheduler

// 连续低能量周数 -> 严重程度与减负比例
var debtTiers = []struct {
	minWeeks  int
	severity  Severity
	reduction float64
}{
	{5, SeverityHigh, 0.85},
	{4, SeverityMedium, 0.75},
	{3, SeverityLow, 0.50},
}

// ReductionFactorFor 返回严重程度对应的减负比例
func ReductionFactorFor(s Severity) float64 {
	for _, t := range debtTiers {
		if t.severity == s {
			return t.reduction
		}
	}
	return 0
}

// DetectEnergyDebt 从最新一条记录往回数连续低于阈值的记录数，遇到第一条非低能量记录即停止。
// history 为按时间升序排列的周粒度记录，只看最近 MaxHistory 条
func DetectEnergyDebt(history []EnergyEntry, cfg DebtConfig) DebtAssessment {
	cfg = cfg.withDefaults()
	recent := tail(history, cfg.MaxHistory)

	streak := 0
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Level >= cfg.LowEnergyThreshold {
			break
		}
		streak++
	}

	for _, t := range debtTiers {
		if streak >= t.minWeeks {
			return DebtAssessment{
				Detected:        true,
				Severity:        t.severity,
				ConsecutiveLow:  streak,
				ReductionFactor: t.reduction,
			}
		}
	}
	return DebtAssessment{Severity: SeverityNone, ConsecutiveLow: streak}
}
