package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"recipe-scraper/internal/components/configutil"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/db"
	"time"
)

// session is everything a command needs once the config has been read, it owns
// the db handle and the log file until Close is called.
type session struct {
	cfg       Config
	db        *db.DB
	tel       telemetry.API
	telemetry telemetry.Telemetry
	logFile   io.Closer
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := configutil.ReadRecursively[Config](*configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", *configPath, err)
	}

	logFile, err := telemetry.OpenLogFile(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	telemetry.InitSlog(logFile, *verbose)

	otel, err := telemetry.Setup(ctx, "recipe-scraper", cfg.Otlp)
	if err != nil {
		slog.Warn("failed to setup otel, continuing without it", "err", err)
	}

	database, err := db.Open(ctx, cfg.DbUrl)
	if err != nil {
		shutdownTelemetry(otel)
		logFile.Close()
		return nil, err
	}

	return &session{
		cfg:       cfg,
		db:        database,
		tel:       telemetry.SlogAPI{},
		telemetry: otel,
		logFile:   logFile,
	}, nil
}

func (s *session) Close() {
	err := s.db.Close()
	if err != nil {
		slog.Error("failed to close db", "err", err)
	}

	shutdownTelemetry(s.telemetry)
	s.logFile.Close()
}

// shutdownTelemetry flushes whatever spans and metrics are still queued.
func shutdownTelemetry(t telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err := t.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to flush telemetry", "err", err)
	}
}
