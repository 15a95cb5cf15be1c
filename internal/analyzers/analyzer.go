package analyzers

import (
	"context"

	"MarketLens/internal/domain/models"
)

// Module names. Consumers key off these strings, so they are part of the
// report contract.
const (
	NameTechnical        = "technical"
	NameSignals          = "signals"
	NameSentiment        = "sentiment"
	NameStructure        = "structure"
	NameStructureQuality = "structure_quality"
	NameFlowPressure     = "flow_pressure"
	NameMarketQuality    = "market_quality"
)

// Error codes returned in Result.Error when input data is insufficient.
const (
	ErrNotEnoughData    = "not_enough_data"
	ErrNoData           = "no_data"
	ErrInsufficientData = "insufficient_data"
)

// Analyzer is one report module. Analyze never panics on short input; it
// returns a Result carrying either a payload plus markdown or an error code.
// The snapshot is shared between modules and must not be mutated; modules
// that enrich the frame work on a clone.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, data *models.StandardMarketData, params Params) models.Result
}

// Params is the free-form per-request parameter map handed to every module.
type Params map[string]interface{}

// String returns the string under key, or def.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the bool under key, or def.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Strings returns the string list under key; it accepts both []string and
// the []interface{} shape produced by JSON decoding.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Candles returns the candle slice under key, if supplied.
func (p Params) Candles(key string) []models.Candle {
	if v, ok := p[key].([]models.Candle); ok {
		return v
	}
	return nil
}

// CandleMap returns the per-timeframe candle overrides under key.
func (p Params) CandleMap(key string) map[string][]models.Candle {
	if v, ok := p[key].(map[string][]models.Candle); ok {
		return v
	}
	return nil
}

func errResult(name, code string) models.Result {
	return models.Result{Name: name, Error: code}
}
