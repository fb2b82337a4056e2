// Package cli wires the consentctl commands: configuration, logging and a
// console bound to the configured backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/internal/config"
	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/dispatch"
)

// Version is set at build time through -ldflags.
var Version = "dev"

type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	noColor bool

	cfg    *config.Config
	logger *log.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the consentctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), in: os.Stdin, out: os.Stdout, errOut: os.Stderr}

	root := &cobra.Command{
		Use:   "consentctl",
		Short: "Build Klaro consent configurations against a consent backend",
		Long: `consentctl edits a Klaro consent configuration, asks the backend for the
matching GTM template, trigger and variable, simulates consent choices,
uploads privacy policies and shows consent analytics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			a.in = cmd.InOrStdin()
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		Version: Version,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./consentctl.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.String("backend", "", "consent backend base URL")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	_ = a.v.BindPFlag("backend.base_url", flags.Lookup("backend"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newSimulateCmd(a),
		newUploadCmd(a),
		newAnalyticsCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is
// interrupted, and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup() error {
	if a.noColor {
		color.NoColor = true
		pterm.DisableColor()
	}
	if a.envFile != "" {
		if err := config.LoadDotEnv(a.envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := log.New(a.errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration loaded",
		log.String("backend", cfg.Backend.BaseURL),
		log.String("config", a.v.ConfigFileUsed()),
	)
	return nil
}

// console builds a console against the configured backend and initialises
// it. Commands that never look at analytics pass WithoutAnalytics so no
// report is fetched.
func (a *app) console(ctx context.Context, options ...consentform.Option) (*consentform.Console, error) {
	backend, err := dispatch.New(a.cfg.Backend.BaseURL,
		dispatch.WithHTTPClient(&http.Client{Timeout: a.cfg.Backend.Timeout}),
		dispatch.WithLogger(a.logger.WithComponent("dispatch")),
	)
	if err != nil {
		return nil, err
	}

	base := []consentform.Option{
		consentform.WithLogger(a.logger),
		consentform.WithCategories(a.cfg.Consent.Categories...),
		consentform.WithSequencing(a.cfg.Pipeline.Sequencing),
	}
	c, err := consentform.New(backend, append(base, options...)...)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, fmt.Errorf("initialise console: %w", err)
	}
	return c, nil
}
