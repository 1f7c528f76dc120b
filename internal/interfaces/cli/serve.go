package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/af3-portal/internal/config"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web portal",
		Long: "Run the web portal until SIGINT or SIGTERM.  When --config names a file,\n" +
			"edits to log.level in that file take effect without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cliCtx)
		},
	}
}

// runServe serves until ctx is cancelled or the listener fails.
func runServe(ctx context.Context, cliCtx *CLIContext) error {
	logger := cliCtx.Logger
	app, err := NewApp(cliCtx.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("backend close failed", logging.Err(err))
		}
	}()

	watchLogLevel(cliCtx)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := app.Server.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", logging.Err(err))
		return err
	}
	return <-errCh
}

// watchLogLevel applies log.level edits of the config file to the running
// logger.  Other settings need a restart.
func watchLogLevel(cliCtx *CLIContext) {
	if cliCtx.ConfigPath == "" || cliCtx.LevelPinned {
		return
	}
	setter, ok := cliCtx.Logger.(logging.LevelSetter)
	if !ok {
		return
	}
	logger := cliCtx.Logger
	err := config.Watch(cliCtx.ConfigPath,
		func(cfg *config.Config) {
			if cfg.Log.Level == setter.Level() {
				return
			}
			setter.SetLevel(cfg.Log.Level)
			logger.Info("log level changed", logging.String("level", cfg.Log.Level))
		},
		func(err error) {
			logger.Warn("config reload rejected", logging.Err(err))
		})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}
