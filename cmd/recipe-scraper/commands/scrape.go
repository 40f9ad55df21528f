package commands

import (
	"log/slog"
	"recipe-scraper/internal/scrapers/eda"

	"github.com/spf13/cobra"
)

var scrapeTarget *int

func init() {
	scrapeTarget = scrapeCmd.Flags().Int("target", 0, "The number of recipe links to collect, overrides target_links.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--target <links>]",
	Short: "Collects recipe links from eda.ru and stores every recipe in the database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			slog.Error("failed to start scraping", "err", err)
			return
		}
		defer s.Close()

		target := s.cfg.TargetLinks
		if *scrapeTarget > 0 {
			target = *scrapeTarget
		}

		client, err := eda.NewClient(ctx, s.cfg.ClientOptions(), s.tel)
		if err != nil {
			slog.Error("failed to create eda client", "err", err)
			return
		}
		scraper := eda.NewScraper(client, s.db, s.tel)
		summary := scraper.Scrape(ctx, target)

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(tableRow("outcome", "links"))
		for _, status := range []eda.Status{
			eda.STATUS_STORED,
			eda.STATUS_SKIPPED_FETCH,
			eda.STATUS_SKIPPED_PARSE,
			eda.STATUS_SKIPPED_INTEGRITY,
			eda.STATUS_SKIPPED_ERROR,
		} {
			t.AppendRow(tableRow(status.String(), summary.Count(status)))
		}
		t.AppendFooter(tableRow("total", summary.Links))
		t.Render()
	},
}
