package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/backend"
	"github.com/leetboard/leetboard/backend/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		slog.Info("Starting Leetboard",
			slog.String("type", "sys"),
			slog.String("version", Version),
			slog.String("commit", Commit))

		if err := app.Scheduler.Start(ctx); err != nil {
			return err
		}

		server := backend.New(&handlers.WebApp{
			Roster:      app.Roster,
			Analytics:   app.Analytics,
			Sink:        app.Sink,
			Trigger:     app.Scheduler,
			DB:          app.DB,
			DefaultTeam: app.Cfg.Web.DefaultTeam,
			Version:     Version,
			Commit:      Commit,
		})

		addr := fmt.Sprintf("%s:%d", app.Cfg.Web.Host, app.Cfg.Web.Port)
		errCh := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", slog.String("type", "sys"), slog.String("addr", addr))
			errCh <- server.Listen(addr)
		}()

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(signals)

		for {
			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server stopped: %w", err)
				}
				return nil
			case sig := <-signals:
				if sig == syscall.SIGHUP {
					if err := app.Scheduler.Reload(ctx); err != nil {
						slog.Error("Failed to reload schedule", slog.String("type", "sys"), slog.Any("error", err))
					}
					continue
				}

				slog.Info("Shutting down", slog.String("type", "sys"), slog.String("signal", sig.String()))
				cancel()
				if err := server.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("HTTP shutdown incomplete", slog.String("type", "sys"), slog.Any("error", err))
				}
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
