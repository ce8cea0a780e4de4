package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"twcompany/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd)
			if err != nil {
				return err
			}

			srv := server.NewServer(c)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errCh:
				_ = c.Close()
				return err
			case sig := <-sigChan:
				slog.Info("shutdown signal received", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		},
	}
}
