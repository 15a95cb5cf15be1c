package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketLens/internal/analyzers"
	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	"MarketLens/internal/provider"
	"MarketLens/pkg/logger"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"

	defaultLimit = 100
)

// Orchestrator resolves the module list, takes one market data snapshot and
// runs every resolved module against it. A module fault is converted into a
// per-module error entry, so a report always renders once the snapshot
// itself was obtained.
type Orchestrator struct {
	provider *provider.Provider
	registry *analyzers.Registry
	log      *logger.Logger
	metrics  repository.Metrics
}

type Option func(*Orchestrator)

func WithMetrics(m repository.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func NewOrchestrator(p *provider.Provider, registry *analyzers.Registry, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{provider: p, registry: registry, log: log}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs the requested modules over one snapshot and returns the
// report plus its rendering in the requested format.
func (o *Orchestrator) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.Report, string, error) {
	names := req.Modules
	if len(names) == 0 {
		names = o.registry.Defaults()
	}
	timeframe := repository.NormalizeTimeframe(req.Timeframe)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	data, err := o.provider.GetStandardData(ctx, req.Symbol, timeframe, limit, true)
	if err != nil {
		return nil, "", fmt.Errorf("snapshot %s: %w", req.Symbol, err)
	}

	params := analyzers.Params(req.Params)
	rep := &models.Report{
		Title:   fmt.Sprintf("Market analysis: %s (%s)", req.Symbol, timeframe),
		Modules: make([]models.Result, 0, len(names)),
	}
	for _, name := range names {
		a, ok := o.registry.Get(name)
		if !ok {
			rep.Modules = append(rep.Modules, models.Result{Name: name, Error: "unknown_module"})
			continue
		}
		rep.Modules = append(rep.Modules, o.run(ctx, a, data, params))
	}

	rendered, err := o.render(rep, req.Format)
	if err != nil {
		return nil, "", err
	}
	if o.metrics != nil {
		o.metrics.RecordReport(req.Format)
	}
	return rep, rendered, nil
}

// run guards one module invocation: a panic inside a module becomes that
// module's error entry instead of aborting the batch.
func (o *Orchestrator) run(ctx context.Context, a analyzers.Analyzer, data *models.StandardMarketData, params analyzers.Params) (res models.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("analyzer panicked",
				logger.String("module", a.Name()), logger.Any("panic", r))
			res = models.Result{Name: a.Name(), Error: fmt.Sprintf("internal_error: %v", r)}
		}
	}()

	start := time.Now()
	res = a.Analyze(ctx, data, params)
	if o.metrics != nil {
		o.metrics.RecordAnalyzerDuration(a.Name(), time.Since(start).Seconds())
	}
	return res
}

func (o *Orchestrator) render(rep *models.Report, format string) (string, error) {
	if format == FormatJSON {
		out, err := json.Marshal(rep)
		if err != nil {
			return "", fmt.Errorf("marshal report: %w", err)
		}
		return string(out), nil
	}
	return renderMarkdown(rep), nil
}

// renderMarkdown concatenates module sections under "## name" headings.
// Failed modules contribute an error line; successful modules with no
// markdown are omitted here but stay present in the JSON shape.
func renderMarkdown(rep *models.Report) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n", rep.Title)
	for _, m := range rep.Modules {
		if m.Failed() {
			fmt.Fprintf(&md, "\n## %s\n\n_error: %s_\n", m.Name, m.Error)
			continue
		}
		if m.Markdown == "" {
			continue
		}
		fmt.Fprintf(&md, "\n## %s\n\n%s", m.Name, m.Markdown)
	}
	return md.String()
}
