package commands

import (
	"fmt"
	"log/slog"
	"recipe-scraper/internal/analysis"

	"github.com/spf13/cobra"
)

var analyzeChart *string
var analyzeTop *int
var analyzeSimilar *bool

func init() {
	analyzeChart = analyzeCmd.Flags().String("chart", "", "The file to render the chart to, overrides chart_path.")
	analyzeTop = analyzeCmd.Flags().Int("top", analysis.DefaultTopIngredients, "The number of most used ingredients to list.")
	analyzeSimilar = analyzeCmd.Flags().Bool("similar", true, "List ingredient names that look like spelling variants of each other.")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--chart <path/to/chart.png>] [--top <n>]",
	Short: "Lists the most used ingredients and plots calories over cook time.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			slog.Error("failed to start analysis", "err", err)
			return
		}
		defer s.Close()

		analyzer := analysis.NewAnalyzer(s.db.Queries(), s.tel)
		out := cmd.OutOrStdout()

		top, err := analyzer.TopIngredients(ctx, *analyzeTop)
		if err != nil {
			slog.Error("failed to count ingredients", "err", err)
			return
		}
		fmt.Fprintf(out, "Top %d ingredients:\n", *analyzeTop)
		t := newTable(out)
		t.AppendHeader(tableRow("#", "ingredient", "recipes"))
		for i, ingredient := range top {
			t.AppendRow(tableRow(i+1, ingredient.Name, ingredient.Count))
		}
		t.Render()

		if *analyzeSimilar {
			pairs, err := analyzer.SimilarIngredients(ctx, s.cfg.SimilarityThreshold)
			if err != nil {
				slog.Error("failed to compare ingredients", "err", err)
				return
			}
			if len(pairs) > 0 {
				fmt.Fprintln(out, "Similar ingredient names:")
				t := newTable(out)
				t.AppendHeader(tableRow("ingredient", "ingredient", "similarity"))
				for _, pair := range pairs {
					t.AppendRow(tableRow(pair.Left, pair.Right, fmt.Sprintf("%.3f", pair.Similarity)))
				}
				t.Render()
			}
		}

		points, err := analyzer.Points(ctx)
		if err != nil {
			slog.Error("failed to read recipes", "err", err)
			return
		}
		chartPath := s.cfg.ChartPath
		if *analyzeChart != "" {
			chartPath = *analyzeChart
		}
		err = analysis.RenderScatter(points, chartPath)
		if err != nil {
			slog.Error("failed to render chart", "err", err)
			return
		}
		slog.Info("chart rendered", "path", chartPath, "points", len(points))
	},
}
