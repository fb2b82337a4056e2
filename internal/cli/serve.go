package cli

import (
	"errors"

	"github.com/spf13/cobra"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/internal/server"
	"github.com/goliatone/go-consentform/pkg/analytics"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		address  string
		basePath string
		preset   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the consent console as an HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if address == "" {
				address = a.cfg.Server.Address
			}

			var options []consentform.Option
			if !a.cfg.Analytics.Enabled {
				options = append(options, consentform.WithoutAnalytics())
			}
			console, err := a.console(ctx, options...)
			if err != nil {
				return err
			}
			if err := a.applyPreset(console, preset); err != nil {
				return err
			}

			if console.AnalyticsEnabled() && a.cfg.Analytics.Refresh != "" {
				scheduler, err := console.ScheduleAnalytics(ctx, a.cfg.Analytics.Refresh)
				switch {
				case errors.Is(err, analytics.ErrDisabled):
				case err != nil:
					return err
				default:
					defer scheduler.Stop()
				}
			}

			srv, err := server.New(console,
				server.WithBasePath(basePath),
				server.WithTitle(a.cfg.Server.Title),
				server.WithLogger(a.logger.WithComponent("server")),
			)
			if err != nil {
				return err
			}
			a.logger.Info("serving consent console",
				log.String("address", address),
				log.String("backend", a.cfg.Backend.BaseURL),
			)
			return srv.ListenAndServe(ctx, address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (default from server.address)")
	cmd.Flags().StringVar(&basePath, "base-path", "/", "path prefix the console is mounted under")
	cmd.Flags().StringVar(&preset, "preset", "", "YAML preset loaded into the form at start")
	return cmd
}
