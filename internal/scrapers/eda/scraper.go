package eda

import (
	"context"
	"recipe-scraper/internal/components/assert"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/db"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const DefaultTargetLinks = 1000

var meter = otel.Meter("scrapers/eda")

// Scraper collects recipe links from eda.ru and stores every recipe behind them.
type Scraper struct {
	client   *Client
	db       *db.DB
	makeTx   db.MakeTx
	tel      telemetry.API
	outcomes metric.Int64Counter
}

func NewScraper(client *Client, database *db.DB, tel telemetry.API) Scraper {
	assert.NotNil(client)
	assert.NotNil(database)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("eda_scraper", tel)

	outcomes, err := meter.Int64Counter(
		"eda.ingest.outcomes",
		metric.WithDescription("Detail pages processed, by outcome."),
	)
	if err != nil {
		tel.ReportBroken("scraper.init-metrics", err)
	}

	return Scraper{
		client:   client,
		db:       database,
		makeTx:   db.NewMakeTx(database),
		tel:      tel,
		outcomes: outcomes,
	}
}

// Scrape collects up to `target` links and ingests each of them in order.
func (s Scraper) Scrape(ctx context.Context, target int) Summary {
	ctx, span := tracer.Start(ctx, "scraper:Scrape")
	defer span.End()

	start := time.Now()

	links := s.CollectLinks(ctx, target)
	s.tel.ReportInfo("link collection finished", "links", len(links))

	summary := s.Run(ctx, links)
	s.tel.ReportInfo(
		"scraping finished",
		"links", summary.Links,
		"stored", summary.Count(STATUS_STORED),
		"skipped", summary.Skipped(),
		"duration", time.Since(start).String(),
	)
	return summary
}
