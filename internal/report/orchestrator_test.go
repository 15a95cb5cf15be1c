package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"MarketLens/internal/analyzers"
	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	"MarketLens/internal/provider"
	"MarketLens/internal/state"
	"MarketLens/pkg/logger"
)

type uptrendExchange struct{}

func (uptrendExchange) FetchOHLCV(_ context.Context, _ string, _ repository.Timeframe, limit int) ([]models.Candle, error) {
	rows := make([]models.Candle, limit)
	for i := range rows {
		c := 100 + float64(i)
		rows[i] = models.Candle{
			Timestamp: int64(i) * 3600_000,
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return rows, nil
}

func (uptrendExchange) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	return &models.Ticker{Symbol: symbol, Last: 199, Percentage: 3.2}, nil
}

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	p := provider.New(state.New(0), uptrendExchange{}, log)

	registry := analyzers.NewRegistry()
	registry.Register(analyzers.Technical{}, true)
	registry.Register(analyzers.Signals{}, true)
	registry.Register(analyzers.Sentiment{}, true)
	registry.Register(analyzers.Structure{}, true)
	sq := analyzers.NewStructureQuality(p, nil)
	registry.Register(sq, false)
	registry.Register(analyzers.FlowPressure{}, false)
	registry.Register(analyzers.NewMarketQuality(sq), false)

	return NewOrchestrator(p, registry, log)
}

func TestAnalyzeJSONEndToEnd(t *testing.T) {
	o := newOrchestrator(t)
	_, rendered, err := o.Analyze(context.Background(), models.AnalyzeRequest{
		Symbol:    "BTC/USDT",
		Timeframe: "1h",
		Modules:   []string{"technical", "signals"},
		Limit:     100,
		Format:    FormatJSON,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var rep struct {
		Title   string                   `json:"title"`
		Modules []map[string]interface{} `json:"modules"`
	}
	if err := json.Unmarshal([]byte(rendered), &rep); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rep.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(rep.Modules))
	}
	for _, m := range rep.Modules {
		if _, ok := m["error"]; ok {
			t.Fatalf("unexpected module error: %v", m)
		}
	}
	signals := rep.Modules[1]
	if signals["name"] != "signals" {
		t.Fatalf("module order not preserved: %v", signals["name"])
	}
	payload := signals["payload"].(map[string]interface{})
	rec := payload["recommendation"].(string)
	if !strings.HasPrefix(rec, "buy") {
		t.Fatalf("recommendation = %q, want buy prefix", rec)
	}
}

func TestAnalyzeDefaultsModules(t *testing.T) {
	o := newOrchestrator(t)
	rep, _, err := o.Analyze(context.Background(), models.AnalyzeRequest{
		Symbol: "BTC/USDT",
		Format: FormatJSON,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := []string{"sentiment", "signals", "structure", "technical"}
	if len(rep.Modules) != len(want) {
		t.Fatalf("modules = %d, want %d", len(rep.Modules), len(want))
	}
	for i, m := range rep.Modules {
		if m.Name != want[i] {
			t.Fatalf("module[%d] = %s, want %s", i, m.Name, want[i])
		}
	}
}

func TestAnalyzeMarkdownRendering(t *testing.T) {
	o := newOrchestrator(t)
	_, rendered, err := o.Analyze(context.Background(), models.AnalyzeRequest{
		Symbol:  "ETH/USDT",
		Modules: []string{"technical", "nope"},
		Format:  FormatMarkdown,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.HasPrefix(rendered, "# Market analysis: ETH/USDT (1h)") {
		t.Fatalf("missing title: %q", rendered)
	}
	if !strings.Contains(rendered, "## technical") {
		t.Fatalf("missing technical section")
	}
	if !strings.Contains(rendered, "## nope") || !strings.Contains(rendered, "unknown_module") {
		t.Fatalf("unknown module must render an error line: %q", rendered)
	}
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) Analyze(context.Context, *models.StandardMarketData, analyzers.Params) models.Result {
	panic("boom")
}

func TestAnalyzerPanicIsIsolated(t *testing.T) {
	o := newOrchestrator(t)
	o.registry.Register(panicky{}, false)

	rep, _, err := o.Analyze(context.Background(), models.AnalyzeRequest{
		Symbol:  "BTC/USDT",
		Modules: []string{"panicky", "technical"},
		Format:  FormatJSON,
	})
	if err != nil {
		t.Fatalf("batch must survive a module panic: %v", err)
	}
	if rep.Modules[0].Error != fmt.Sprintf("internal_error: %v", "boom") {
		t.Fatalf("error = %q", rep.Modules[0].Error)
	}
	if rep.Modules[1].Failed() {
		t.Fatalf("sibling module must be unaffected: %s", rep.Modules[1].Error)
	}
}

func TestAnalyzeFailsWithoutSnapshot(t *testing.T) {
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	p := provider.New(state.New(0), failingExchange{}, log)
	o := NewOrchestrator(p, analyzers.NewRegistry(), log)

	if _, _, err := o.Analyze(context.Background(), models.AnalyzeRequest{Symbol: "BTC/USDT"}); err == nil {
		t.Fatalf("expected error when the snapshot cannot be fetched")
	}
}

type failingExchange struct{}

func (failingExchange) FetchOHLCV(context.Context, string, repository.Timeframe, int) ([]models.Candle, error) {
	return nil, fmt.Errorf("exchange down")
}

func (failingExchange) FetchTicker(context.Context, string) (*models.Ticker, error) {
	return nil, fmt.Errorf("exchange down")
}
