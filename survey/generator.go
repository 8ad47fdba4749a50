package survey

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexshd/anchorbench"
)

// Mode selects how synthetic estimates relate to the anchor.
type Mode string

const (
	// ModeCorrelated pulls each estimate toward its anchor.
	ModeCorrelated Mode = "correlated"
	// ModeRandom draws estimates independently of the anchor.
	ModeRandom Mode = "random"
)

// ParseMode parses a mode name. Empty input selects ModeCorrelated.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCorrelated:
		return ModeCorrelated, nil
	case ModeRandom:
		return ModeRandom, nil
	default:
		return "", fmt.Errorf("unknown generator mode %q (want %q or %q)", s, ModeCorrelated, ModeRandom)
	}
}

// GeneratorConfig controls the simulated population.
type GeneratorConfig struct {
	TrueValue   float64 // Centre of unanchored estimates
	BaseStdDev  float64 // Spread of unanchored estimates
	NoiseStdDev float64 // Per-response noise added after anchoring
}

// DefaultGeneratorConfig returns the African UN membership population.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		TrueValue:   54,
		BaseStdDev:  20,
		NoiseStdDev: 8,
	}
}

// Generator produces synthetic survey responses with a known anchoring bias.
//
// Thread Safety: Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	cfg GeneratorConfig
}

// NewGenerator creates a generator with a deterministic seed.
func NewGenerator(seed int64) *Generator {
	return NewGeneratorWithConfig(seed, DefaultGeneratorConfig())
}

// NewGeneratorWithConfig creates a generator for a custom population.
func NewGeneratorWithConfig(seed int64, cfg GeneratorConfig) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		cfg: cfg,
	}
}

// Generate returns count observations.
//
// anchorStrength is clamped to [0, 1]; 0 means no anchoring, 1 means
// estimates equal the anchor plus noise. ModeRandom ignores it.
func (g *Generator) Generate(count int, mode Mode, anchorStrength float64) []anchorbench.Observation {
	return Observations(g.Responses(count, mode, anchorStrength))
}

// Responses is Generate with respondent-tagged survey responses.
//
// Every response gets a "test-<uuid>" respondent id so synthetic rows can
// be told apart from real submissions.
func (g *Generator) Responses(count int, mode Mode, anchorStrength float64) []Response {
	if count <= 0 {
		return []Response{}
	}

	strength := math.Max(0, math.Min(1, anchorStrength))
	if mode == ModeRandom {
		strength = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Response, count)
	for i := range out {
		q1 := MinAnchor + g.rng.Intn(MaxAnchor-MinAnchor+1)

		base := g.cfg.TrueValue + g.rng.NormFloat64()*g.cfg.BaseStdDev
		anchored := strength*float64(q1) + (1-strength)*base
		noise := g.rng.NormFloat64() * g.cfg.NoiseStdDev

		q2 := int(math.Round(anchored + noise))
		q2 = max(MinEstimate, min(MaxEstimate, q2))

		out[i] = Response{
			Q1:           q1,
			Q2:           q2,
			RespondentID: "test-" + uuid.NewString(),
		}
	}
	return out
}

// Generate draws count observations from a time-seeded generator.
func Generate(count int, mode Mode, anchorStrength float64) []anchorbench.Observation {
	return NewGenerator(time.Now().UnixNano()).Generate(count, mode, anchorStrength)
}
