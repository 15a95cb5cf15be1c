package models

// Result is one analyzer module's contribution to a report. Exactly one of
// the two shapes is populated: {Name, Error} when input was insufficient or
// the module faulted, or {Name, Payload, Markdown} on success.
type Result struct {
	Name     string                 `json:"name"`
	Error    string                 `json:"error,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	Markdown string                 `json:"markdown,omitempty"`
}

// Failed reports whether the module produced an error instead of a payload.
func (r Result) Failed() bool { return r.Error != "" }

// Report is the JSON envelope returned by the orchestrator.
type Report struct {
	Title   string   `json:"title"`
	Modules []Result `json:"modules"`
}

// AnalyzeRequest is the HTTP request body/query for the analyze endpoint.
type AnalyzeRequest struct {
	Symbol    string                 `json:"symbol" query:"symbol" validate:"required"`
	Timeframe string                 `json:"timeframe" query:"timeframe" default:"1h"`
	Modules   []string               `json:"modules,omitempty"`
	Limit     int                    `json:"limit" query:"limit" default:"100" validate:"gte=0,lte=1000"`
	Format    string                 `json:"format" query:"format" default:"markdown" validate:"oneof=markdown json"`
	Params    map[string]interface{} `json:"params,omitempty"`
}
