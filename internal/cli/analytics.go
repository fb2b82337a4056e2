package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-consentform/pkg/analytics"
	"github.com/goliatone/go-consentform/pkg/consent"
)

func newAnalyticsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show the consent analytics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console, err := a.console(cmd.Context())
			if err != nil {
				return err
			}
			report, ok := console.AnalyticsReport()
			if !ok {
				return errors.New(analytics.ErrorMessage)
			}
			return renderReport(a, report)
		},
	}
}

func renderReport(a *app, report consent.Report) error {
	summary := pterm.TableData{
		{"METRIC", "VALUE"},
		{"Consent Rate", analytics.Percent(report.ConsentRate)},
		{"Rejection Rate", analytics.Percent(report.RejectionRate)},
	}
	if err := renderTable(a, summary); err != nil {
		return err
	}

	if len(report.PopularChoices) > 0 {
		choices := pterm.TableData{{"CATEGORY", "RATE"}}
		for _, c := range report.PopularChoices {
			choices = append(choices, []string{c.Name, analytics.Percent(c.Rate)})
		}
		headingColor.Fprintln(a.out, "Popular Choices")
		if err := renderTable(a, choices); err != nil {
			return err
		}
	}

	if len(report.ConsentOverTime) > 0 {
		points := pterm.TableData{{"DATE", "CONSENT RATE"}}
		for _, p := range report.ConsentOverTime {
			points = append(points, []string{p.Date, analytics.Percent(p.ConsentRate)})
		}
		headingColor.Fprintln(a.out, "Consent Over Time")
		if err := renderTable(a, points); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(a *app, data pterm.TableData) error {
	table := pterm.DefaultTable.WithHasHeader(true).
		WithHeaderStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold)).
		WithData(data)
	rendered, err := table.Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(a.out, rendered)
	return nil
}
