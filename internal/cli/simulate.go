package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/pkg/present"
)

func newSimulateCmd(a *app) *cobra.Command {
	var grant []string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a visitor's consent choices",
		Long: `simulate sends one boolean per consent category to the backend. Categories
named with --grant are granted, every other configured category is denied.`,
		Example: "  consentctl simulate --grant analytics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			console, err := a.console(ctx, consentform.WithoutAnalytics())
			if err != nil {
				return err
			}
			for _, category := range grant {
				category = strings.TrimSpace(category)
				if category == "" {
					continue
				}
				if !console.SetChoice(category, true) {
					return fmt.Errorf("unknown consent category %q (configured: %s)",
						category, strings.Join(console.Categories(), ", "))
				}
			}

			res := console.SubmitChoices(ctx)
			if !res.OK() {
				return errors.New(present.Message(res, present.GenericSimulationError))
			}
			printSuccess(a.out, "%s", console.SimulationStatus())
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&grant, "grant", "g", nil, "categories to grant (repeat or comma separate)")
	return cmd
}
