package analyzers

import (
	"context"
	"strings"
	"testing"

	"MarketLens/internal/domain/models"
)

func candles(closes []float64) []models.Candle {
	rows := make([]models.Candle, len(closes))
	for i, c := range closes {
		rows[i] = models.Candle{
			Timestamp: int64(i) * 3600_000,
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return rows
}

func uptrendCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func flatCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100
	}
	return out
}

func snapshot(rows []models.Candle) *models.StandardMarketData {
	return &models.StandardMarketData{
		OHLCV: rows,
		Frame: models.NewFrame(rows),
		Metadata: models.Metadata{
			Symbol:    "BTC/USDT",
			Timeframe: "1h",
			Limit:     len(rows),
		},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(Technical{}, true)
	r.Register(Signals{}, true)
	r.Register(FlowPressure{}, false)

	if _, ok := r.Get("technical"); !ok {
		t.Fatalf("expected technical registered")
	}
	if _, ok := r.Get("nope"); ok {
		t.Fatalf("unexpected module")
	}
	list := r.List()
	want := []string{"flow_pressure", "signals", "technical"}
	if len(list) != len(want) {
		t.Fatalf("list = %v", list)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("list = %v, want %v", list, want)
		}
	}
	defs := r.Defaults()
	if len(defs) != 2 || defs[0] != "signals" || defs[1] != "technical" {
		t.Fatalf("defaults = %v", defs)
	}
}

func TestTechnicalBullishOnUptrend(t *testing.T) {
	res := Technical{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(60))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Payload["trend"] != "bullish" {
		t.Fatalf("trend = %v, want bullish", res.Payload["trend"])
	}
	macd := res.Payload["macd"].(map[string]interface{})
	state := macd["state"].(string)
	if state != "bullish" && state != "golden_cross" {
		t.Fatalf("macd state = %s", state)
	}
	if res.Markdown == "" {
		t.Fatalf("expected markdown")
	}
}

func TestTechnicalNotEnoughData(t *testing.T) {
	res := Technical{}.Analyze(context.Background(), snapshot(candles([]float64{100})), nil)
	if res.Error != ErrNotEnoughData {
		t.Fatalf("error = %q, want %q", res.Error, ErrNotEnoughData)
	}
}

func TestSignalsBuyOnUptrend(t *testing.T) {
	res := Signals{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(100))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	rec := res.Payload["recommendation"].(string)
	if !strings.HasPrefix(rec, "buy") {
		t.Fatalf("recommendation = %q, want buy", rec)
	}
}

func TestSignalsHoldOnFlat(t *testing.T) {
	res := Signals{}.Analyze(context.Background(), snapshot(candles(flatCloses(60))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if rec := res.Payload["recommendation"]; rec != "hold" {
		t.Fatalf("recommendation = %v, want hold", rec)
	}
}

func TestSentimentNeutralDefaultOnShortSeries(t *testing.T) {
	res := Sentiment{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(10))), nil)
	if res.Failed() {
		t.Fatalf("short sentiment input must not error, got %s", res.Error)
	}
	if res.Payload["score"].(float64) != 50 {
		t.Fatalf("score = %v, want 50", res.Payload["score"])
	}
	if res.Payload["label"] != "neutral" {
		t.Fatalf("label = %v", res.Payload["label"])
	}
	if res.Payload["confidence"].(float64) != 0 {
		t.Fatalf("confidence = %v, want 0", res.Payload["confidence"])
	}
}

func TestSentimentLeansBullishOnMomentum(t *testing.T) {
	res := Sentiment{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(60))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	score := res.Payload["score"].(float64)
	if score <= 50 {
		t.Fatalf("uptrend should score above neutral, got %f", score)
	}
	conf := res.Payload["confidence"].(float64)
	if conf <= 0 || conf > 80 {
		t.Fatalf("confidence out of range: %f", conf)
	}
}

func TestStructureUnknownOnShortSeries(t *testing.T) {
	res := Structure{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(10))), nil)
	if res.Failed() {
		t.Fatalf("short structure input must not error, got %s", res.Error)
	}
	if res.Payload["structure"] != "unknown" {
		t.Fatalf("structure = %v, want unknown", res.Payload["structure"])
	}
	if len(res.Payload["support"].([]float64)) != 0 {
		t.Fatalf("expected empty support list")
	}
}

func TestStructureFindsSwingLevels(t *testing.T) {
	// Zigzag around 100 with rising floor; last close sits mid-range.
	closes := make([]float64, 60)
	for i := range closes {
		base := 100 + float64(i)*0.1
		if i%6 == 3 {
			base += 8
		}
		if i%6 == 0 {
			base -= 8
		}
		closes[i] = base
	}
	rows := candles(closes)
	res := Structure{}.Analyze(context.Background(), snapshot(rows), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	support := res.Payload["support"].([]float64)
	resistance := res.Payload["resistance"].([]float64)
	if len(support) == 0 || len(resistance) == 0 {
		t.Fatalf("zigzag series should yield both sides: support=%v resistance=%v", support, resistance)
	}
	if len(support) > 3 || len(resistance) > 3 {
		t.Fatalf("levels must be capped at 3")
	}
	price := closes[len(closes)-1]
	for _, s := range support {
		if s >= price {
			t.Fatalf("support %f not below price %f", s, price)
		}
	}
	for _, r := range resistance {
		if r <= price {
			t.Fatalf("resistance %f not above price %f", r, price)
		}
	}
	key := res.Payload["key_levels"].([]float64)
	if len(key) == 0 {
		t.Fatalf("expected round-number levels")
	}
}

func TestStructureQualityAlignedSynthetic(t *testing.T) {
	sq := NewStructureQuality(nil, nil)
	params := Params{
		ParamTimeframes: []string{"15m", "1h", "4h"},
		ParamSynthetic: map[string][]models.Candle{
			"15m": candles(uptrendCloses(50)),
			"1h":  candles(uptrendCloses(50)),
			"4h":  candles(uptrendCloses(50)),
		},
	}
	res := sq.Analyze(context.Background(), snapshot(candles(uptrendCloses(50))), params)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	score := res.Payload["structure_alignment_score"].(float64)
	if score <= 60 {
		t.Fatalf("alignment = %f, want > 60", score)
	}
	if res.Payload["regime"] != "aligned" {
		t.Fatalf("regime = %v, want aligned", res.Payload["regime"])
	}
}

func TestStructureQualityNoData(t *testing.T) {
	sq := NewStructureQuality(nil, nil)
	params := Params{
		ParamTimeframes: []string{"5m"},
		ParamNoFetch:    true,
	}
	res := sq.Analyze(context.Background(), snapshot(candles(uptrendCloses(50))), params)
	if res.Error != ErrNoData {
		t.Fatalf("error = %q, want %q", res.Error, ErrNoData)
	}
}

func TestStructureQualityUsesBaseSnapshot(t *testing.T) {
	sq := NewStructureQuality(nil, nil)
	params := Params{ParamTimeframes: []string{"1h"}, ParamNoFetch: true}
	res := sq.Analyze(context.Background(), snapshot(candles(uptrendCloses(50))), params)
	if res.Failed() {
		t.Fatalf("base timeframe must come from the snapshot: %s", res.Error)
	}
	frames := res.Payload["frames"].([]frameSignal)
	if len(frames) != 1 || frames[0].Timeframe != "1h" {
		t.Fatalf("frames = %+v", frames)
	}
	if !strings.HasSuffix(frames[0].Label, "uptrend") {
		t.Fatalf("label = %q", frames[0].Label)
	}
}

func TestFlowPressureBalancedOnFlat(t *testing.T) {
	res := FlowPressure{}.Analyze(context.Background(), snapshot(candles(flatCloses(20))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Payload["state"] != "balanced" {
		t.Fatalf("state = %v, want balanced", res.Payload["state"])
	}
}

func TestFlowPressureNotEnoughData(t *testing.T) {
	res := FlowPressure{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(4))), nil)
	if res.Name != "flow_pressure" || res.Error != "not_enough_data" {
		t.Fatalf("got %+v, want name flow_pressure error not_enough_data", res)
	}
}

func TestFlowPressureBuyingOnUptrend(t *testing.T) {
	res := FlowPressure{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(20))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Payload["state"] != "buying" {
		t.Fatalf("state = %v, want buying", res.Payload["state"])
	}
	// 19 of 20 equal-volume bars are directional and up: ratio 19/20.
	if conf := res.Payload["confidence"].(float64); conf < 94 || conf > 96 {
		t.Fatalf("confidence = %f, want 95", conf)
	}
}

func TestFlowPressureCountsFirstBarVolume(t *testing.T) {
	res := FlowPressure{}.Analyze(context.Background(), snapshot(candles(uptrendCloses(5))), nil)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	// 4 up bars of 1000 against a 5-bar total of 5000.
	if ratio := res.Payload["pressure_ratio"].(float64); ratio != 0.8 {
		t.Fatalf("pressure_ratio = %f, want 0.8", ratio)
	}
}

func TestFlowPressureSyntheticSample(t *testing.T) {
	down := make([]float64, 20)
	for i := range down {
		down[i] = 200 - float64(i)
	}
	params := Params{ParamSample: candles(down)}
	res := FlowPressure{}.Analyze(context.Background(), snapshot(candles(flatCloses(20))), params)
	if res.Payload["state"] != "selling" {
		t.Fatalf("state = %v, want selling from synthetic sample", res.Payload["state"])
	}
}

func TestMarketQualityInsufficientData(t *testing.T) {
	mq := NewMarketQuality(NewStructureQuality(nil, nil))
	params := Params{ParamTimeframes: []string{"1h"}, ParamNoFetch: true}
	// Three rows satisfy structure-quality but not flow-pressure.
	res := mq.Analyze(context.Background(), snapshot(candles(uptrendCloses(3))), params)
	if res.Error != ErrInsufficientData {
		t.Fatalf("error = %q, want %q", res.Error, ErrInsufficientData)
	}
}

func TestMarketQualityComposes(t *testing.T) {
	mq := NewMarketQuality(NewStructureQuality(nil, nil))
	params := Params{ParamTimeframes: []string{"1h"}, ParamNoFetch: true}
	res := mq.Analyze(context.Background(), snapshot(candles(uptrendCloses(60))), params)
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	quality := res.Payload["quality_score"].(float64)
	if quality < 99 {
		t.Fatalf("aligned uptrend with one-way flow should score ~100, got %f", quality)
	}
	if res.Payload["tradable"] != true {
		t.Fatalf("expected tradable")
	}
}
