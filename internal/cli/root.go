// Package cli implements the shelf command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mmcdole/shelf/internal/config"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/logging"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// RootOptions holds global flags and the lazily built App.
type RootOptions struct {
	ConfigPath string
	ServerURL  string
	Format     string
	Verbose    bool
	Version    string

	// RunTUI starts the interactive UI; nil disables it
	RunTUI func(app *App, opts *RootOptions) error

	app       *App
	logCloser io.Closer
}

// NewRootCommand creates the root command for the shelf CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelf",
		Short: "shelf - library catalog client",
		Long: `Browse and manage a library catalog from the terminal.

Run without a subcommand to open the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.RunTUI == nil {
				return cmd.Help()
			}
			app, err := opts.App(cmd)
			if err != nil {
				return err
			}
			return opts.RunTUI(app, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultFile()+")")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "backend URL, overrides server.url")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr at debug level")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewSandboxCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// LoadConfig reads configuration and applies flag overrides
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.ServerURL != "" {
		cfg.Server.URL = o.ServerURL
	}
	return cfg, nil
}

// App returns the application stack, building it on first use
func (o *RootOptions) App(cmd *cobra.Command) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}

	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NullLogger()
	if o.Verbose {
		logger = logging.New(cmd.ErrOrStderr(), "debug")
	} else if l, closer, err := logging.SetupLogger(cfg.Logging); err == nil {
		logger = l
		o.logCloser = closer
	}

	app, err := NewApp(cfg, logger, o.Version)
	if err != nil {
		return nil, err
	}
	logger.Info("starting shelf", "version", o.Version, "command", cmd.CommandPath())
	o.app = app
	return app, nil
}

// Close releases the App and the log file
func (o *RootOptions) Close() error {
	var errs []error
	if o.app != nil {
		errs = append(errs, o.app.Close())
		o.app = nil
	}
	if o.logCloser != nil {
		errs = append(errs, o.logCloser.Close())
		o.logCloser = nil
	}
	return errors.Join(errs...)
}

// ErrorMessage renders err for the terminal
func ErrorMessage(err error) string {
	if errors.Is(err, domain.ErrAuthRequired) {
		return "login required: run 'shelf login' first"
	}
	return domain.Message(err)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "shelf %s\n", opts.Version)
			return nil
		},
	}
}
