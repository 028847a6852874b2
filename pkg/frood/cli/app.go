package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/toyz/frood/internal/config"
	"github.com/toyz/frood/internal/logging"
	"github.com/toyz/frood/internal/server"
	"github.com/toyz/frood/pkg/frood"
)

// application holds what the commands of an application binary share. Everything is
// built from the configuration file on first use.
type application struct {
	registry   *frood.Registry
	configPath string

	cfg        *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	dispatcher *frood.Dispatcher
}

// NewApplicationCommand returns the root command of an application binary serving reg.
// It has the run, routes, route and serve commands and reads its configuration from
// --config, ./frood.yaml or FROOD_* environment variables.
func NewApplicationCommand(name string, reg *frood.Registry) *cobra.Command {
	app := &application{registry: reg}

	root := &cobra.Command{
		Use:           name,
		Short:         name + " - a frood application",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.close()
		},
	}
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "configuration file (default ./frood.yaml)")

	root.AddCommand(
		newRunCommand(app.getDispatcher),
		NewRoutesCommand(reg),
		NewRouteCommand(func() (*frood.Configuration, error) { return app.cfg.Frood() }),
		app.serveCommand(),
	)
	return root
}

func (a *application) load(logOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.logCloser = cfg, logger, closer
	return nil
}

func (a *application) close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

func (a *application) getDispatcher() (*frood.Dispatcher, error) {
	if a.dispatcher != nil {
		return a.dispatcher, nil
	}
	if err := a.registry.Err(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	fc, err := a.cfg.Frood()
	if err != nil {
		return nil, err
	}
	opts := append(a.cfg.DispatcherOptions(), frood.WithLogger(a.logger))
	a.dispatcher = frood.NewDispatcher(fc, a.registry, opts...)
	return a.dispatcher, nil
}

func (a *application) serveCommand() *cobra.Command {
	var addr, adapter string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the application over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if adapter != "" {
				a.cfg.Server.Adapter = adapter
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			srv, err := server.New(a.cfg, a.registry, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	cmd.Flags().StringVar(&adapter, "adapter", "", "server adapter (http, chi, gin, echo, fiber), overrides server.adapter")
	return cmd
}
