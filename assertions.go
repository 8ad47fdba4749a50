package anchorbench

import (
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains tolerances for correlation assertions.
type AssertionConfig struct {
	// Absolute tolerance when comparing r against an expected value
	RTolerance float64

	// Absolute tolerance when comparing p against an expected value
	PTolerance float64

	// Significance level used by AssertSignificant/AssertNotSignificant
	SignificanceLevel float64
}

// DefaultAssertionConfig returns conservative tolerances.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		RTolerance:        0.001,
		PTolerance:        0.005,
		SignificanceLevel: 0.05,
	}
}

// AssertValidResult verifies the structural invariants of a result.
//
//	R == nil ⇔ N < 3
//	Regression == nil ⇔ R == nil
//	|R| ≤ 1, PValue ∈ [0, 1]
func AssertValidResult(t testing.TB, res CorrelationResult) {
	t.Helper()

	var failures []string

	if (res.R == nil) != (res.N < MinObservations) {
		failures = append(failures, fmt.Sprintf("  r nil=%v with n=%d", res.R == nil, res.N))
	}
	if (res.Regression == nil) != (res.R == nil) {
		failures = append(failures, fmt.Sprintf("  regression nil=%v but r nil=%v", res.Regression == nil, res.R == nil))
	}
	if (res.PValue == nil) != (res.R == nil) {
		failures = append(failures, fmt.Sprintf("  pValue nil=%v but r nil=%v", res.PValue == nil, res.R == nil))
	}
	if res.R != nil && (math.IsNaN(*res.R) || math.Abs(*res.R) > 1) {
		failures = append(failures, fmt.Sprintf("  r = %v outside [-1, 1]", *res.R))
	}
	if res.PValue != nil && (math.IsNaN(*res.PValue) || *res.PValue < 0 || *res.PValue > 1) {
		failures = append(failures, fmt.Sprintf("  p = %v outside [0, 1]", *res.PValue))
	}
	if res.Interpretation == "" {
		failures = append(failures, "  empty interpretation")
	}

	if len(failures) > 0 {
		t.Errorf("Invalid correlation result (n=%d):\n%v", res.N, failures)
	}
}

// AssertCorrelation verifies r is within cfg.RTolerance of want.
func AssertCorrelation(t testing.TB, res CorrelationResult, want float64, cfg AssertionConfig) {
	t.Helper()

	if res.R == nil {
		t.Fatalf("Expected r ≈ %.4f, got null (n=%d)", want, res.N)
	}
	if got := *res.R; math.Abs(got-want) > cfg.RTolerance {
		t.Errorf("r = %.6f, expected %.6f ± %.6f", got, want, cfg.RTolerance)
	}
}

// AssertPValue verifies p is within cfg.PTolerance of want.
func AssertPValue(t testing.TB, res CorrelationResult, want float64, cfg AssertionConfig) {
	t.Helper()

	if res.PValue == nil {
		t.Fatalf("Expected p ≈ %.4f, got null (n=%d)", want, res.N)
	}
	if got := *res.PValue; math.Abs(got-want) > cfg.PTolerance {
		t.Errorf("p = %.8f, expected %.8f ± %.4f", got, want, cfg.PTolerance)
	}
}

// AssertSignificant verifies p < cfg.SignificanceLevel.
func AssertSignificant(t testing.TB, res CorrelationResult, cfg AssertionConfig) {
	t.Helper()

	if !res.Significant(cfg.SignificanceLevel) {
		t.Errorf("Expected significant correlation at α=%.3f, got %s", cfg.SignificanceLevel, summarize(res))
	}
}

// AssertNotSignificant verifies p ≥ cfg.SignificanceLevel.
func AssertNotSignificant(t testing.TB, res CorrelationResult, cfg AssertionConfig) {
	t.Helper()

	if res.PValue == nil {
		t.Fatalf("Expected a p-value, got null (n=%d)", res.N)
	}
	if res.Significant(cfg.SignificanceLevel) {
		t.Errorf("Expected no significance at α=%.3f, got %s", cfg.SignificanceLevel, summarize(res))
	}
}

// PrintAnalysis outputs the result to the test log.
func PrintAnalysis(t testing.TB, res CorrelationResult) {
	t.Helper()

	t.Logf("\n=== Correlation Analysis ===")
	t.Logf("  %s", summarize(res))
	if res.Regression != nil {
		t.Logf("  y = %.4f·x + %.4f  (x ∈ [%g, %g])",
			res.Regression.Slope, res.Regression.Intercept, res.Regression.XMin, res.Regression.XMax)
	}
	t.Logf("  %s", res.Interpretation)
}

func summarize(res CorrelationResult) string {
	if res.R == nil {
		return fmt.Sprintf("n=%d (insufficient data)", res.N)
	}
	return fmt.Sprintf("n=%d r=%.6f t=%.4f df=%d p=%.8f",
		res.N, *res.R, res.TStatistic, res.DegreesOfFreedom, *res.PValue)
}
