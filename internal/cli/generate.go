package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/present"
	"github.com/goliatone/go-consentform/pkg/preset"
	"github.com/goliatone/go-consentform/pkg/prompt"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		presetPath  string
		interactive bool
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the GTM template, trigger and variable for a configuration",
		Long: `generate assembles a Klaro configuration from a preset file, an interactive
session or both, posts it to the backend and prints the three artifacts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			console, err := a.console(ctx, consentform.WithoutAnalytics())
			if err != nil {
				return err
			}
			if err := a.applyPreset(console, presetPath); err != nil {
				return err
			}

			if interactive {
				editor, err := prompt.NewEditor(prompt.NewSurveyDriver(a.out),
					prompt.WithLogger(a.logger.WithComponent("prompt")))
				if err != nil {
					return err
				}
				err = console.Edit(func(form prompt.Form) error {
					return editor.Run(ctx, form)
				})
				if errors.Is(err, prompt.ErrAborted) {
					printWarning(a.errOut, "aborted")
					return nil
				}
				if err != nil {
					return err
				}
			}

			if dryRun {
				data, err := json.MarshalIndent(console.Assemble(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}

			res := console.SubmitConfig(ctx)
			out := console.TemplateOutput()
			if !res.OK() {
				a.logger.Debug("template generation failed", log.String("kind", res.Kind.String()))
				return errors.New(present.Message(res, present.GenericTemplateError))
			}
			printSection(a.out, "GTM Template", out.Template)
			printSection(a.out, "GTM Trigger", out.Trigger)
			printSection(a.out, "GTM Variable", out.Variable)
			return nil
		},
	}
	cmd.Flags().StringVarP(&presetPath, "preset", "p", "", "YAML preset with settings and services")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "edit the configuration with prompts before generating")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the assembled configuration instead of posting it")
	return cmd
}

// applyPreset loads path, or the configured preset when path is empty, into
// the console.
func (a *app) applyPreset(console *consentform.Console, path string) error {
	if path == "" {
		path = a.cfg.Preset
	}
	if path == "" {
		return nil
	}
	p, err := preset.LoadFile(path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		printWarning(a.errOut, "%v", err)
	}
	console.ApplyPreset(p)
	a.logger.Info("preset applied", log.String("preset", path), log.Int("services", len(p.Services)))
	return nil
}
