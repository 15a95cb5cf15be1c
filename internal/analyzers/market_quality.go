package analyzers

import (
	"context"
	"fmt"

	"MarketLens/internal/domain/models"
)

// MarketQuality blends structure alignment and flow confidence into one
// 0..100 tradability score. It reuses the two underlying modules rather than
// recomputing their inputs, so their parameter handling applies here too.
type MarketQuality struct {
	structure *StructureQuality
	flow      FlowPressure
}

func NewMarketQuality(structure *StructureQuality) *MarketQuality {
	return &MarketQuality{structure: structure}
}

func (MarketQuality) Name() string { return NameMarketQuality }

func (m *MarketQuality) Analyze(ctx context.Context, data *models.StandardMarketData, params Params) models.Result {
	structure := m.structure.Analyze(ctx, data, params)
	flow := m.flow.Analyze(ctx, data, params)
	if structure.Failed() || flow.Failed() {
		return errResult(NameMarketQuality, ErrInsufficientData)
	}

	alignment, _ := structure.Payload["structure_alignment_score"].(float64)
	confidence, _ := flow.Payload["confidence"].(float64)
	state, _ := flow.Payload["state"].(string)

	quality := 0.5*alignment + 0.5*confidence
	tradable := quality >= 55 && state != "balanced"

	payload := map[string]interface{}{
		"quality_score":       quality,
		"tradable":            tradable,
		"structure_alignment": alignment,
		"regime":              structure.Payload["regime"],
		"flow_state":          state,
		"flow_confidence":     confidence,
	}

	md := fmt.Sprintf("**Market quality:** %.0f/100, tradable: %t (regime %v, flow %s)\n",
		quality, tradable, structure.Payload["regime"], state)

	return models.Result{Name: NameMarketQuality, Payload: payload, Markdown: md}
}
