package scheduler

import "github.com/shopspring/decimal"

// CapacityConfig 容量模型的参数
type CapacityConfig struct {
	TotalWeeklyHours     float64 `mapstructure:"total_weekly_hours" yaml:"total_weekly_hours"`
	SleepHoursWeekly     float64 `mapstructure:"sleep_hours_weekly" yaml:"sleep_hours_weekly"`
	StudyHoursWeekly     float64 `mapstructure:"study_hours_weekly" yaml:"study_hours_weekly"`
	ReferenceWeeklyHours float64 `mapstructure:"reference_weekly_hours" yaml:"reference_weekly_hours"`
	MinCapacityScore     float64 `mapstructure:"min_capacity_score" yaml:"min_capacity_score"`
	EnergyWindow         int     `mapstructure:"energy_window" yaml:"energy_window"`
	EnergyDecay          float64 `mapstructure:"energy_decay" yaml:"energy_decay"`
	EnergyFloor          float64 `mapstructure:"energy_floor" yaml:"energy_floor"`
	EnergyCeiling        float64 `mapstructure:"energy_ceiling" yaml:"energy_ceiling"`
	EnergyHorizonWeeks   int     `mapstructure:"energy_horizon_weeks" yaml:"energy_horizon_weeks"`
}

type DebtConfig struct {
	LowEnergyThreshold float64 `mapstructure:"low_energy_threshold" yaml:"low_energy_threshold"`
	MaxHistory         int     `mapstructure:"max_history" yaml:"max_history"`
}

type ComebackConfig struct {
	LowThreshold        float64         `mapstructure:"low_threshold" yaml:"low_threshold"`
	RecoveredThreshold  float64         `mapstructure:"recovered_threshold" yaml:"recovered_threshold"`
	RecentLowThreshold  float64         `mapstructure:"recent_low_threshold" yaml:"recent_low_threshold"`
	MaxHistory          int             `mapstructure:"max_history" yaml:"max_history"`
	MaxSafeWeeklyAmount decimal.Decimal `mapstructure:"-" yaml:"-"`
}

func DefaultCapacityConfig() CapacityConfig {
	return CapacityConfig{
		TotalWeeklyHours:     168,
		SleepHoursWeekly:     56,
		StudyHoursWeekly:     35,
		ReferenceWeeklyHours: 77,
		MinCapacityScore:     0.01,
		EnergyWindow:         4,
		EnergyDecay:          0.5,
		EnergyFloor:          0.3,
		EnergyCeiling:        1.3,
		EnergyHorizonWeeks:   4,
	}
}

func DefaultDebtConfig() DebtConfig {
	return DebtConfig{LowEnergyThreshold: 40, MaxHistory: 12}
}

func DefaultComebackConfig() ComebackConfig {
	return ComebackConfig{
		LowThreshold:       40,
		RecoveredThreshold: 80,
		RecentLowThreshold: 50,
		MaxHistory:         12,
	}
}

// 默认的计划参数
const (
	DefaultFrontLoadPercent = 20.0
	MaxFrontLoadPercent     = 50.0
	DefaultDebtReliefWeeks  = 2
)

// withDefaults 整个结构为零值时使用默认参数；否则只替换非法的字段。
// 睡眠/学习时长、能量下限、阈值等 0 是合法取值，只有负数才回落到默认值
func (c CapacityConfig) withDefaults() CapacityConfig {
	d := DefaultCapacityConfig()
	if c == (CapacityConfig{}) {
		return d
	}
	if c.TotalWeeklyHours <= 0 {
		c.TotalWeeklyHours = d.TotalWeeklyHours
	}
	if c.SleepHoursWeekly < 0 {
		c.SleepHoursWeekly = d.SleepHoursWeekly
	}
	if c.StudyHoursWeekly < 0 {
		c.StudyHoursWeekly = d.StudyHoursWeekly
	}
	if c.ReferenceWeeklyHours <= 0 {
		c.ReferenceWeeklyHours = d.ReferenceWeeklyHours
	}
	if c.MinCapacityScore <= 0 {
		c.MinCapacityScore = d.MinCapacityScore
	}
	if c.EnergyWindow <= 0 {
		c.EnergyWindow = d.EnergyWindow
	}
	if c.EnergyDecay <= 0 || c.EnergyDecay > 1 {
		c.EnergyDecay = d.EnergyDecay
	}
	if c.EnergyFloor < 0 {
		c.EnergyFloor = d.EnergyFloor
	}
	if c.EnergyCeiling <= 0 {
		c.EnergyCeiling = d.EnergyCeiling
	}
	if c.EnergyHorizonWeeks < 0 {
		c.EnergyHorizonWeeks = d.EnergyHorizonWeeks
	}
	return c
}

func (c DebtConfig) withDefaults() DebtConfig {
	d := DefaultDebtConfig()
	if c == (DebtConfig{}) {
		return d
	}
	if c.LowEnergyThreshold < 0 {
		c.LowEnergyThreshold = d.LowEnergyThreshold
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = d.MaxHistory
	}
	return c
}

func (c ComebackConfig) withDefaults() ComebackConfig {
	d := DefaultComebackConfig()
	if c.LowThreshold == 0 && c.RecoveredThreshold == 0 && c.RecentLowThreshold == 0 && c.MaxHistory == 0 {
		d.MaxSafeWeeklyAmount = c.MaxSafeWeeklyAmount
		return d
	}
	if c.LowThreshold < 0 {
		c.LowThreshold = d.LowThreshold
	}
	if c.RecoveredThreshold < 0 {
		c.RecoveredThreshold = d.RecoveredThreshold
	}
	if c.RecentLowThreshold < 0 {
		c.RecentLowThreshold = d.RecentLowThreshold
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = d.MaxHistory
	}
	return c
}
