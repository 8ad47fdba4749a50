// Package survey holds the collaborators around the anchorbench engine:
// validated survey responses, a synthetic response generator with a
// tunable anchoring bias, and an in-memory dataset store that plays the
// role of the observation source.
//
// The engine accepts any real-valued pairs. This package is where the
// survey's domain rules live:
//
//	q1 (anchor)   ∈ [1, 100]
//	q2 (estimate) ∈ [0, 1000]
//	one response per respondent per dataset
//
// # Synthetic data
//
// Generator simulates anchored respondents:
//
//	q1   ~ U{1..100}
//	base ~ N(54, 20)
//	q2   = round(s·q1 + (1−s)·base + N(0, 8)), clamped to [0, 1000]
//
// where s is the anchor strength. ModeRandom drops the anchor term so q2
// is independent of q1, which gives a null-hypothesis ground truth.
//
// # Thread Safety
//
// Generator and MemoryStore are safe for concurrent use.
package survey
