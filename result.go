package anchorbench

import (
	"encoding/json"
	"math"
)

// InsufficientDataMessage is the narrative for sets below MinObservations.
const InsufficientDataMessage = "Need at least 3 data points for correlation analysis."

// Config controls how results are described.
type Config struct {
	ReferenceValue    float64 // True answer the estimates are judged against
	ReferenceLabel    string  // Unit of ReferenceValue, e.g. "African UN member states"
	XLabel            string  // Narrative name for X
	YLabel            string  // Narrative name for Y
	SignificanceLevel float64 // p below this is significant
}

// DefaultConfig returns the settings of the African UN membership survey.
func DefaultConfig() Config {
	return Config{
		ReferenceValue:    54,
		ReferenceLabel:    "African UN member states",
		XLabel:            "the anchor number (Q1)",
		YLabel:            "the estimate of African UN members (Q2)",
		SignificanceLevel: 0.05,
	}
}

// Regression is the least squares line in display precision.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	XMin      float64 `json:"xMin"`
	XMax      float64 `json:"xMax"`
	YAtXMin   float64 `json:"yAtXMin"`
	YAtXMax   float64 `json:"yAtXMax"`
	R         float64 `json:"r"`
}

// CorrelationResult is the immutable outcome of Analyze.
//
// R, PValue and Regression are nil exactly when N < MinObservations.
// All numeric fields are rounded for display.
type CorrelationResult struct {
	R                *float64
	PValue           *float64
	TStatistic       float64 // ±Inf for a perfect fit
	DegreesOfFreedom int
	N                int
	MeanX            float64
	MeanY            float64
	Interpretation   string
	Regression       *Regression
}

// Sufficient reports whether the set was large enough to fit.
func (r CorrelationResult) Sufficient() bool {
	return r.R != nil
}

// Significant reports whether the p-value is below level.
func (r CorrelationResult) Significant(level float64) bool {
	return r.PValue != nil && *r.PValue < level
}

// resultJSON is the wire shape consumed by the presentation layer.
type resultJSON struct {
	R                *float64    `json:"r"`
	PValue           *float64    `json:"pValue"`
	TStatistic       *float64    `json:"tStatistic"`
	DegreesOfFreedom int         `json:"degreesOfFreedom"`
	N                int         `json:"n"`
	MeanQ1           float64     `json:"meanQ1"`
	MeanQ2           float64     `json:"meanQ2"`
	Interpretation   string      `json:"interpretation"`
	Regression       *Regression `json:"regression"`
}

// MarshalJSON encodes the result with the presentation field names.
// JSON has no infinity, so a non-finite t-statistic becomes null.
func (r CorrelationResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		R:                r.R,
		PValue:           r.PValue,
		DegreesOfFreedom: r.DegreesOfFreedom,
		N:                r.N,
		MeanQ1:           r.MeanX,
		MeanQ2:           r.MeanY,
		Interpretation:   r.Interpretation,
		Regression:       r.Regression,
	}
	if r.Sufficient() && !math.IsInf(r.TStatistic, 0) && !math.IsNaN(r.TStatistic) {
		t := r.TStatistic
		out.TStatistic = &t
	}
	return json.Marshal(out)
}

// Analyze runs the full pipeline over an observation set.
//
// It never fails: too few points, zero variance and perfect fits all map
// to well-defined values. Safe for concurrent use; obs is only read.
func Analyze(obs []Observation, cfg Config) CorrelationResult {
	fit, err := FitPearson(obs)
	if err != nil {
		return CorrelationResult{
			N:              fit.N,
			Interpretation: InsufficientDataMessage,
		}
	}
	return Compose(fit, cfg)
}

// Compose turns a full-precision fit into a display result.
func Compose(fit Fit, cfg Config) CorrelationResult {
	r := round(fit.R, 6)
	p := round(fit.PValue, 8)

	t := fit.TStatistic
	if !math.IsInf(t, 0) {
		t = round(t, 4)
	}

	return CorrelationResult{
		R:                &r,
		PValue:           &p,
		TStatistic:       t,
		DegreesOfFreedom: fit.DegreesOfFreedom,
		N:                fit.N,
		MeanX:            round(fit.MeanX, 2),
		MeanY:            round(fit.MeanY, 2),
		Interpretation:   Describe(fit.R, fit.PValue, fit.MeanX, fit.MeanY, cfg),
		Regression: &Regression{
			Slope:     round(fit.Slope, 4),
			Intercept: round(fit.Intercept, 4),
			XMin:      fit.XMin,
			XMax:      fit.XMax,
			YAtXMin:   round(fit.Predict(fit.XMin), 2),
			YAtXMax:   round(fit.Predict(fit.XMax), 2),
			R:         round(fit.R, 4),
		},
	}
}

// round rounds v to places decimals, half away from zero.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
