package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"twcompany/internal/config"
	"twcompany/internal/container"
	"twcompany/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "twcompany",
		Short:         "Поиск тайваньских компаний по названию или 統一編號",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "уровень логирования (DEBUG, INFO, WARN, ERROR), перекрывает LOG_LEVEL")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newTemplateCmd())
	return rootCmd
}

// bootstrap загружает конфигурацию, настраивает логгер и собирает контейнер
func bootstrap(cmd *cobra.Command) (*container.Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	server.InitLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	c, err := container.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return c, nil
}
