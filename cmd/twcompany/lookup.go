package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var search bool

	cmd := &cobra.Command{
		Use:   "lookup <название или 統一編號>",
		Short: "Найти компанию и вывести карточку в JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			query := strings.Join(args, " ")
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)

			if search {
				candidates, err := c.LookupUseCase.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				return encoder.Encode(candidates)
			}

			result, err := c.LookupUseCase.Lookup(cmd.Context(), query)
			if err != nil {
				return err
			}
			return encoder.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&search, "search", false, "вывести все компании, в названии которых есть запрос")
	return cmd
}
