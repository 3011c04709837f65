package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"stride_backend/internal/scheduler"
)

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing deadline",
			yaml:    "goal:\n  amount: \"100\"\n  start_date: \"2025-09-01\"\n",
			wantErr: "Deadline",
		},
		{
			name:    "bad event type",
			yaml:    "goal:\n  amount: \"100\"\n  start_date: \"2025-09-01\"\n  deadline: \"2025-09-30\"\nevents:\n  - name: x\n    type: party\n    start: \"2025-09-01\"\n    end: \"2025-09-02\"\n",
			wantErr: "Type",
		},
		{
			name:    "energy out of range",
			yaml:    "goal:\n  amount: \"100\"\n  start_date: \"2025-09-01\"\n  deadline: \"2025-09-30\"\nenergy:\n  - level: 120\n    logged_at: \"2025-09-01\"\n",
			wantErr: "Level",
		},
		{
			name:    "amount is not a number",
			yaml:    "goal:\n  amount: lots\n  start_date: \"2025-09-01\"\n  deadline: \"2025-09-30\"\n",
			wantErr: "Amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseScenario() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestScenario_PlanRequest(t *testing.T) {
	sc, err := LoadScenario("testdata/exam_week.yaml")
	if err != nil {
		t.Fatalf("LoadScenario() error = %v", err)
	}
	req, err := sc.PlanRequest("")
	if err != nil {
		t.Fatalf("PlanRequest() error = %v", err)
	}
	if req.MaxSafeWeeklyAmount.String() != "125" {
		t.Errorf("MaxSafeWeeklyAmount = %s, want 125", req.MaxSafeWeeklyAmount)
	}
	if len(req.Inputs.Events) != 1 || req.Inputs.Events[0].CapacityImpact != 0.2 {
		t.Errorf("exam event impact = %+v, want default 0.2", req.Inputs.Events)
	}

	res, err := scheduler.Plan(req, scheduler.DefaultSettings())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(res.Plan.Milestones) != 8 {
		t.Fatalf("weeks = %d, want 8", len(res.Plan.Milestones))
	}
	exam := res.Plan.Milestones[3]
	normal := res.Plan.Milestones[0]
	if !exam.AdjustedTarget.LessThan(normal.AdjustedTarget) {
		t.Errorf("exam week target %s should be below a normal week %s", exam.AdjustedTarget, normal.AdjustedTarget)
	}
}

func TestPlanCommand_Outputs(t *testing.T) {
	for _, format := range []string{"table", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"plan", "-f", "testdata/exam_week.yaml", "-o", format})
			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			switch format {
			case "table":
				if !strings.Contains(out.String(), "ADJUSTED") || !strings.Contains(out.String(), "Feasibility:") {
					t.Errorf("table output missing header or summary:\n%s", out.String())
				}
			case "json":
				var res scheduler.PlanResult
				if err := json.Unmarshal(out.Bytes(), &res); err != nil {
					t.Fatalf("json output does not decode: %v", err)
				}
				if len(res.Plan.Milestones) != 8 {
					t.Errorf("json weeks = %d, want 8", len(res.Plan.Milestones))
				}
			case "yaml":
				if !strings.Contains(out.String(), "milestones:") {
					t.Errorf("yaml output missing milestones:\n%s", out.String())
				}
			}
		})
	}
}

func TestAssessCommand_UnknownFormat(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"assess", "-f", "testdata/exam_week.yaml", "-o", "xml"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
