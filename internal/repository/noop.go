package repository

import (
	"context"

	"MarketLens/internal/domain/models"
)

// NoopArchive discards reports. Used when archiving is disabled.
type NoopArchive struct{}

func (NoopArchive) Save(context.Context, models.AnalyzeRequest, string) error { return nil }
func (NoopArchive) Close() error                                              { return nil }
