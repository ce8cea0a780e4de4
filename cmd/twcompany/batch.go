package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"twcompany/exporter"
	"twcompany/importer"
)

func newBatchCmd() *cobra.Command {
	var (
		output     string
		idColumn   string
		nameColumn string
	)

	cmd := &cobra.Command{
		Use:   "batch <файл .xlsx или .csv>",
		Short: "Пакетная сверка списка компаний",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := importer.ReadFile(args[0])
			if err != nil {
				return err
			}
			selection, err := table.Select(idColumn, nameColumn)
			if err != nil {
				return err
			}
			queries, err := table.Queries(selection)
			if err != nil {
				return err
			}

			c, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			// Прерывание сохраняет уже обработанные строки
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			progress := cmd.ErrOrStderr()
			result, batchErr := c.LookupUseCase.Batch(ctx, queries, func(done, total int, label string) {
				fmt.Fprintf(progress, "[%d/%d] %s\n", done+1, total, label)
			})
			if result == nil {
				return batchErr
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer file.Close()

			if err := exporter.WriteResults(file, result.Rows, result.Directors); err != nil {
				return err
			}

			slog.Info("batch written",
				"output", output,
				"rows", len(result.Rows),
				"directors", len(result.Directors),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", output, len(result.Rows))
			return batchErr
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", exporter.ResultFileName, "файл результата")
	cmd.Flags().StringVar(&idColumn, "id-column", "", "заголовок колонки с 統一編號")
	cmd.Flags().StringVar(&nameColumn, "name-column", "", "заголовок колонки с названием")
	return cmd
}
