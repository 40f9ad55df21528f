package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the number of rows in every table.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			slog.Error("failed to read stats", "err", err)
			return
		}
		defer s.Close()

		counts, err := s.db.Queries().CountRows(ctx)
		if err != nil {
			slog.Error("failed to count rows", "err", err)
			return
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(tableRow("table", "rows"))
		t.AppendRow(tableRow("recipes", counts.Recipes))
		t.AppendRow(tableRow("ingredients", counts.Ingredients))
		t.AppendRow(tableRow("connection_table", counts.Links))
		t.Render()
	},
}
