package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	pkgch "MarketLens/pkg/clickhouse"
)

// ClickHouseArchive appends finished reports to an append-only table, one
// row per analyze call.
type ClickHouseArchive struct {
	client *pkgch.Client
	table  string
}

func NewClickHouseArchive(client *pkgch.Client, table string) (drepo.ReportArchive, error) {
	if table == "" {
		table = "reports"
	}
	a := &ClickHouseArchive{client: client, table: table}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts        DateTime,
		symbol    String,
		timeframe String,
		format    String,
		rendered  String
	) ENGINE = MergeTree() ORDER BY (symbol, ts)`, table)
	if err := a.client.InitSchema(ctx, []string{schema}); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ClickHouseArchive) db() *sql.DB { return a.client.DB() }

func (a *ClickHouseArchive) Save(ctx context.Context, req models.AnalyzeRequest, rendered string) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, timeframe, format, rendered) VALUES (?, ?, ?, ?, ?)", a.table)
	_, err := a.db().ExecContext(ctx, q,
		time.Now().UTC(),
		req.Symbol,
		req.Timeframe,
		req.Format,
		rendered,
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert report: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) Close() error {
	return a.client.Close()
}
