package anchorbench

import "math"

const (
	// betaMaxIterations caps the continued fraction. Convergence takes
	// O(sqrt(max(a, b))) steps; with 200 the t-test p-value keeps a
	// relative error below 1e-6 up to df≈10^5.
	betaMaxIterations = 200

	// betaEpsilon is the relative convergence threshold for |D·C − 1|.
	betaEpsilon = 1e-10

	// betaFloor keeps Lentz denominators away from zero.
	betaFloor = 1e-30
)

// RegIncBeta returns the regularized incomplete beta function
//
//	I_x(a, b) = B(x; a, b) / B(a, b)
//
// for x in [0, 1] and a, b > 0. The result lies in [0, 1].
//
// The continued fraction converges fast only for x < (a+1)/(a+b+2). Past
// that point the symmetry I_x(a, b) = 1 − I_{1−x}(b, a) is applied, which
// always lands the complementary evaluation back in the fast region.
func RegIncBeta(x, a, b float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}

	// x^a (1−x)^b / B(a, b), evaluated in log space so large a, b
	// neither overflow nor underflow. It is symmetric in (x, a) ↔ (1−x, b).
	prefix := math.Exp(a*math.Log(x) + b*math.Log1p(-x) - lnBeta(a, b))

	if x < (a+1)/(a+b+2) {
		return clampUnit(prefix * betaContinuedFraction(x, a, b) / a)
	}
	return clampUnit(1 - prefix*betaContinuedFraction(1-x, b, a)/b)
}

// betaContinuedFraction evaluates
//
//	1 / (1 + d₁/(1 + d₂/(1 + d₃/(1 + …))))
//
// with the modified Lentz method, where for m = ⌊j/2⌋
//
//	d_{2m+1} = −(a+m)(a+b+m)x / ((a+2m)(a+2m+1))
//	d_{2m}   =  m(b−m)x      / ((a+2m−1)(a+2m))
//
// D and C are floored at betaFloor before every reciprocal; skipping
// that floor produces wrong but plausible p-values near the poles.
func betaContinuedFraction(x, a, b float64) float64 {
	var (
		d = 0.0 // denominator accumulator D
		c = 1.0 // numerator accumulator C
		f = 1.0 // running product
	)

	for j := 1; j <= betaMaxIterations; j++ {
		m := float64(j / 2)

		var term float64
		if j%2 == 1 {
			term = -(a + m) * (a + b + m) * x / ((a + 2*m) * (a + 2*m + 1))
		} else {
			term = m * (b - m) * x / ((a + 2*m - 1) * (a + 2*m))
		}

		d = 1 + term*d
		if math.Abs(d) < betaFloor {
			d = betaFloor
		}
		d = 1 / d

		c = 1 + term/c
		if math.Abs(c) < betaFloor {
			c = betaFloor
		}

		delta := d * c
		f *= delta

		if math.Abs(delta-1) < betaEpsilon {
			break
		}
	}

	return 1 / f
}

// clampUnit pins rounding noise at the edges back into [0, 1].
func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
