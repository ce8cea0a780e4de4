package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"twcompany/exporter"
)

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Сохранить пример входного файла",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer file.Close()

			if err := exporter.WriteTemplate(file); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", exporter.TemplateFileName, "путь к файлу")
	return cmd
}
