package anchorbench

import (
	"fmt"
	"math"
	"strings"
)

// Strength buckets |r| into the conventional effect-size categories.
type Strength int

const (
	// StrengthNegligible indicates |r| < 0.2
	StrengthNegligible Strength = iota
	// StrengthWeak indicates 0.2 <= |r| < 0.4
	StrengthWeak
	// StrengthModerate indicates 0.4 <= |r| < 0.7
	StrengthModerate
	// StrengthStrong indicates |r| >= 0.7
	StrengthStrong
)

// String returns the string representation.
func (s Strength) String() string {
	switch s {
	case StrengthNegligible:
		return "negligible"
	case StrengthWeak:
		return "weak"
	case StrengthModerate:
		return "moderate"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// ClassifyStrength returns the strength category for a Pearson r.
func ClassifyStrength(r float64) Strength {
	absR := math.Abs(r)
	switch {
	case absR >= 0.7:
		return StrengthStrong
	case absR >= 0.4:
		return StrengthModerate
	case absR >= 0.2:
		return StrengthWeak
	default:
		return StrengthNegligible
	}
}

// Direction is the sign of a correlation.
type Direction string

const (
	// DirectionPositive indicates r >= 0
	DirectionPositive Direction = "positive"
	// DirectionNegative indicates r < 0
	DirectionNegative Direction = "negative"
)

// DirectionOf reports the direction of r. Zero counts as positive.
func DirectionOf(r float64) Direction {
	if r >= 0 {
		return DirectionPositive
	}
	return DirectionNegative
}

// Describe composes the narrative for a fitted correlation.
//
// The text names strength, direction and significance at
// cfg.SignificanceLevel, then the reference value supplied by the caller
// and both sample means. Output depends only on the arguments.
func Describe(r, pValue, meanX, meanY float64, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "There is a %s %s correlation (r = %.4f) between %s and %s. ",
		ClassifyStrength(r), DirectionOf(r), r, cfg.XLabel, cfg.YLabel)

	if pValue < cfg.SignificanceLevel {
		fmt.Fprintf(&b, "This correlation IS statistically significant (p = %.6f, p < %g), supporting the anchoring effect hypothesis. ",
			pValue, cfg.SignificanceLevel)
	} else {
		fmt.Fprintf(&b, "This correlation is NOT statistically significant (p = %.6f, p >= %g). More data may be needed. ",
			pValue, cfg.SignificanceLevel)
	}

	fmt.Fprintf(&b, "The actual answer is %g %s. Mean Q1 (anchor): %.1f, Mean Q2 (estimate): %.1f.",
		cfg.ReferenceValue, cfg.ReferenceLabel, meanX, meanY)

	return b.String()
}
