package models

// Base column names of a Frame, in their fixed order.
const (
	ColTimestamp = "timestamp"
	ColOpen      = "open"
	ColHigh      = "high"
	ColLow       = "low"
	ColClose     = "close"
	ColVolume    = "volume"
)

// Frame is the tabular view over a candle series: the six base columns plus
// any named float64 columns added by indicator stages. Columns keep their
// insertion order so repeated pipeline runs produce identical layouts.
type Frame struct {
	Timestamp []int64
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64

	order []string
	cols  map[string][]float64
}

// NewFrame builds a Frame from candle rows using the fixed column order
// [timestamp, open, high, low, close, volume].
func NewFrame(rows []Candle) *Frame {
	f := &Frame{
		Timestamp: make([]int64, len(rows)),
		Open:      make([]float64, len(rows)),
		High:      make([]float64, len(rows)),
		Low:       make([]float64, len(rows)),
		Close:     make([]float64, len(rows)),
		Volume:    make([]float64, len(rows)),
		cols:      make(map[string][]float64),
	}
	for i, r := range rows {
		f.Timestamp[i] = r.Timestamp
		f.Open[i] = r.Open
		f.High[i] = r.High
		f.Low[i] = r.Low
		f.Close[i] = r.Close
		f.Volume[i] = r.Volume
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Close) }

// SetColumn stores a named column, overwriting any previous values.
// The slice length must equal Len(); callers own that contract.
func (f *Frame) SetColumn(name string, vals []float64) {
	if f.cols == nil {
		f.cols = make(map[string][]float64)
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = vals
}

// Column returns a named indicator column, or nil if absent.
func (f *Frame) Column(name string) []float64 {
	return f.cols[name]
}

// Columns returns the indicator column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Clone returns a deep copy. Analyzer modules augment clones so the shared
// snapshot stays untouched.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Timestamp: append([]int64(nil), f.Timestamp...),
		Open:      append([]float64(nil), f.Open...),
		High:      append([]float64(nil), f.High...),
		Low:       append([]float64(nil), f.Low...),
		Close:     append([]float64(nil), f.Close...),
		Volume:    append([]float64(nil), f.Volume...),
		order:     append([]string(nil), f.order...),
		cols:      make(map[string][]float64, len(f.cols)),
	}
	for name, vals := range f.cols {
		c.cols[name] = append([]float64(nil), vals...)
	}
	return c
}
