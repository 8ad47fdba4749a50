package server

import (
	"time"

	"github.com/alexshd/anchorbench"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Analysis configures the interpretation of every result served.
	Analysis anchorbench.Config

	// DefaultTestData is used when a testdata request omits count.
	DefaultTestData int
	// MaxTestData caps a single testdata request.
	MaxTestData int
	// DefaultAnchorStrength is used when a testdata request omits anchorStrength.
	DefaultAnchorStrength float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Addr:                  ":8080",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ShutdownTimeout:       15 * time.Second,
		Analysis:              anchorbench.DefaultConfig(),
		DefaultTestData:       30,
		MaxTestData:           500,
		DefaultAnchorStrength: 0.4,
	}
}

// clampCount applies the testdata count rules: zero selects the default,
// anything else is clamped to [1, MaxTestData].
func (c Config) clampCount(n int) int {
	if n == 0 {
		n = c.DefaultTestData
	}
	return max(1, min(c.MaxTestData, n))
}
