package main

import (
	"fmt"
	"os"

	"stride_backend/internal/model"
	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Scenario 一份离线计算的完整输入
type Scenario struct {
	Goal               ScenarioGoal     `yaml:"goal"`
	AsOf               string           `yaml:"as_of" validate:"omitempty,datetime=2006-01-02"`
	ActualTotalSavings string           `yaml:"actual_total_savings" validate:"omitempty,numeric"`
	Profile            *ScenarioProfile `yaml:"profile"`
	Commitments        []ScenarioCommit `yaml:"commitments" validate:"dive"`
	Events             []ScenarioEvent  `yaml:"events" validate:"dive"`
	Energy             []ScenarioEnergy `yaml:"energy" validate:"dive"`
}

type ScenarioGoal struct {
	Amount                string `yaml:"amount" validate:"required,numeric"`
	StartDate             string `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	Deadline              string `yaml:"deadline" validate:"required,datetime=2006-01-02"`
	FrontLoading          bool   `yaml:"front_loading"`
	ProjectedSavingsBasis string `yaml:"projected_savings_basis" validate:"omitempty,numeric"`
}

type ScenarioProfile struct {
	HourlyRate   string  `yaml:"hourly_rate" validate:"required,numeric"`
	MaxWorkHours float64 `yaml:"max_work_hours" validate:"gte=0,lte=168"`
}

type ScenarioCommit struct {
	Name         string  `yaml:"name" validate:"required"`
	HoursPerWeek float64 `yaml:"hours_per_week" validate:"gte=0,lte=168"`
}

type ScenarioEvent struct {
	Name           string   `yaml:"name" validate:"required"`
	Type           string   `yaml:"type" validate:"required,oneof=exam_period vacation internship project_deadline other"`
	Start          string   `yaml:"start" validate:"required,datetime=2006-01-02"`
	End            string   `yaml:"end" validate:"required,datetime=2006-01-02"`
	CapacityImpact *float64 `yaml:"capacity_impact" validate:"omitempty,gte=0,lte=1.5"`
}

type ScenarioEnergy struct {
	Level    float64 `yaml:"level" validate:"gte=0,lte=100"`
	LoggedAt string  `yaml:"logged_at" validate:"required,datetime=2006-01-02"`
}

var validate = validator.New()

// LoadScenario 读取并校验 YAML 场景文件
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// PlanRequest 转成调度器输入；asOfOverride 非空时覆盖文件中的 as_of
func (s *Scenario) PlanRequest(asOfOverride string) (scheduler.PlanRequest, error) {
	var req scheduler.PlanRequest

	start, _ := util.ParseDate(s.Goal.StartDate)
	deadline, _ := util.ParseDate(s.Goal.Deadline)
	req.GoalAmount = decimal.RequireFromString(s.Goal.Amount)
	req.StartDate = start
	req.Deadline = deadline
	req.FrontLoading = s.Goal.FrontLoading
	req.ProjectedSavingsBasis = decimalOrZero(s.Goal.ProjectedSavingsBasis)
	req.ActualTotalSavings = decimalOrZero(s.ActualTotalSavings)

	asOfRaw := s.AsOf
	if asOfOverride != "" {
		asOfRaw = asOfOverride
	}
	req.AsOf = start
	if asOfRaw != "" {
		t, err := util.ParseDate(asOfRaw)
		if err != nil {
			return req, fmt.Errorf("%w: as_of must be yyyy-mm-dd", scheduler.ErrInvalidInput)
		}
		req.AsOf = t
	}

	if s.Profile != nil {
		p := model.Profile{
			MinHourlyRate:      decimal.RequireFromString(s.Profile.HourlyRate),
			MaxWorkHoursWeekly: s.Profile.MaxWorkHours,
		}
		req.MaxSafeWeeklyAmount = p.MaxSafeWeeklyAmount()
	}

	for _, c := range s.Commitments {
		req.Inputs.Commitments = append(req.Inputs.Commitments, scheduler.Commitment{Name: c.Name, HoursPerWeek: c.HoursPerWeek})
	}
	for _, e := range s.Events {
		evStart, _ := util.ParseDate(e.Start)
		evEnd, _ := util.ParseDate(e.End)
		impact := model.DefaultCapacityImpact(model.AcademicEventType(e.Type))
		if e.CapacityImpact != nil {
			impact = *e.CapacityImpact
		}
		req.Inputs.Events = append(req.Inputs.Events, scheduler.AcademicEvent{
			Name:           e.Name,
			Type:           e.Type,
			Start:          evStart,
			End:            evEnd,
			CapacityImpact: impact,
		})
	}
	for _, e := range s.Energy {
		at, _ := util.ParseDate(e.LoggedAt)
		// 晚于 as_of 的记录不参与计算
		if at.After(req.AsOf) {
			continue
		}
		req.Inputs.Energy = append(req.Inputs.Energy, scheduler.EnergyEntry{Level: e.Level, LoggedAt: at})
	}
	return req, nil
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
