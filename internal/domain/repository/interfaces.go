package repository

import (
	"context"

	"MarketLens/internal/domain/models"
)

// ExchangeClient is the injected accessor for quote data. Implementations do
// the actual network I/O; callers (the provider) add caching on top. Errors
// propagate to callers unmodified.
type ExchangeClient interface {
	FetchOHLCV(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]models.Candle, error)
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
}

// ReportArchive persists finished request/response pairs. Archiving is
// best-effort: the serving layer logs failures and never fails the request.
type ReportArchive interface {
	Save(ctx context.Context, req models.AnalyzeRequest, rendered string) error
	Close() error
}

// ReportPublisher pushes a compact report envelope to a notification channel.
type ReportPublisher interface {
	Publish(ctx context.Context, symbol string, report *models.Report) error
	Close() error
}

// Metrics records operational counters for the analysis pipeline.
type Metrics interface {
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
	RecordFetch(kind, symbol string)
	RecordError(kind string)
	RecordAnalyzerDuration(module string, seconds float64)
	RecordReport(format string)
}
