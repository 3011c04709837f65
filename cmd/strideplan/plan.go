package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"stride_backend/internal/scheduler"
	"stride_backend/internal/util"

	"github.com/spf13/cobra"
)

var scenarioFile string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build the week-by-week savings plan for a scenario",
	Long: `Run capacity scoring, energy debt and comeback detection, then print the
adjusted weekly targets.

Examples:
  strideplan plan -f scenario.yaml
  strideplan plan -f scenario.yaml --as-of 2025-10-06 -o yaml`,
	RunE: runPlan,
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Report energy debt and comeback detection for a scenario",
	RunE:  runAssess,
}

func init() {
	for _, cmd := range []*cobra.Command{planCmd, assessCmd} {
		cmd.Flags().StringVarP(&scenarioFile, "file", "f", "", "Scenario YAML file")
		_ = cmd.MarkFlagRequired("file")
		rootCmd.AddCommand(cmd)
	}
}

func buildRequest() (scheduler.PlanRequest, scheduler.Settings, error) {
	sc, err := LoadScenario(scenarioFile)
	if err != nil {
		return scheduler.PlanRequest{}, scheduler.Settings{}, err
	}
	req, err := sc.PlanRequest(asOf)
	if err != nil {
		return req, scheduler.Settings{}, err
	}
	settings, err := loadSettings()
	return req, settings, err
}

func runPlan(cmd *cobra.Command, args []string) error {
	req, settings, err := buildRequest()
	if err != nil {
		return err
	}
	res, err := scheduler.Plan(req, settings)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), output, res, func(w io.Writer) error {
		return writePlanTable(w, res)
	})
}

func runAssess(cmd *cobra.Command, args []string) error {
	req, settings, err := buildRequest()
	if err != nil {
		return err
	}
	res, err := scheduler.Assess(req, settings)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), output, res, func(w io.Writer) error {
		writeAssessment(w, res.Debt, res.Comeback)
		_, err := fmt.Fprintf(w, "Deficit: %s\n", res.Deficit.StringFixed(2))
		return err
	})
}

func writePlanTable(out io.Writer, res *scheduler.PlanResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WEEK\tSTART\tEND\tCAPACITY\tBASE\tADJUSTED\tCUMULATIVE\t")
	for _, m := range res.Plan.Milestones {
		flag := ""
		if m.Overloaded {
			flag = "overloaded"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
			m.Index+1,
			m.Start.Format(util.DateFormat),
			m.End.Format(util.DateFormat),
			m.CapacityScore,
			m.BaseTarget.StringFixed(2),
			m.AdjustedTarget.StringFixed(2),
			m.CumulativeTarget.StringFixed(2),
			flag,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nFeasibility: %.2f  Front-loaded: %.2f%%  Deficit: %s\n",
		res.Plan.FeasibilityScore, res.Plan.FrontLoadedPercentage, res.Deficit.StringFixed(2))
	if res.Plan.UncoveredDebtAmount.IsPositive() {
		fmt.Fprintf(out, "Uncovered debt relief: %s\n", res.Plan.UncoveredDebtAmount.StringFixed(2))
	}
	if res.Plan.UnabsorbedCatchUp.IsPositive() {
		fmt.Fprintf(out, "Unabsorbed catch-up: %s\n", res.Plan.UnabsorbedCatchUp.StringFixed(2))
	}
	writeAssessment(out, res.Debt, res.Comeback)
	return nil
}

func writeAssessment(w io.Writer, debt scheduler.DebtAssessment, comeback scheduler.ComebackAssessment) {
	if debt.Detected {
		fmt.Fprintf(w, "Energy debt: %s (%d low weeks, reduce %.0f%%)\n",
			debt.Severity, debt.ConsecutiveLow, debt.ReductionFactor*100)
	} else {
		fmt.Fprintln(w, "Energy debt: none")
	}
	if comeback.Detected {
		fmt.Fprintf(w, "Comeback: yes (confidence %.2f, catch-up %d weeks, shortfall %s)\n",
			comeback.Confidence, len(comeback.CatchUpPlan), comeback.Shortfall.StringFixed(2))
	} else {
		fmt.Fprintln(w, "Comeback: no")
	}
}
