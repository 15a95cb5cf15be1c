package models

// Candle is one OHLCV row. Timestamp is unix milliseconds of the bucket open.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Ticker is a point-in-time snapshot of a symbol's current price and 24h change.
// The shape follows what the exchange returns; analyzers only rely on Last and
// Percentage.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	Last        float64 `json:"last"`
	Percentage  float64 `json:"percentage"`
	Open        float64 `json:"open,omitempty"`
	High        float64 `json:"high,omitempty"`
	Low         float64 `json:"low,omitempty"`
	QuoteVolume float64 `json:"quote_volume,omitempty"`
	Timestamp   int64   `json:"timestamp,omitempty"`
}

// Metadata identifies the request that produced a snapshot.
type Metadata struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Limit     int    `json:"limit"`
}

// StandardMarketData is the immutable per-request snapshot handed to every
// analyzer. Modules that augment the frame must work on a private copy
// (Frame.Clone) so siblings observe the original.
type StandardMarketData struct {
	OHLCV    []Candle
	Ticker   *Ticker
	Frame    *Frame
	Metadata Metadata
}

// LastClose returns the most recent closing price, or 0 for an empty snapshot.
func (d *StandardMarketData) LastClose() float64 {
	if len(d.OHLCV) == 0 {
		return 0
	}
	return d.OHLCV[len(d.OHLCV)-1].Close
}
