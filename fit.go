package anchorbench

import (
	"errors"
	"math"
)

// MinObservations is the smallest set for which r and its t-test exist.
const MinObservations = 3

// ErrInsufficientData indicates fewer than MinObservations pairs.
var ErrInsufficientData = errors.New("need at least 3 observations for correlation analysis")

// Observation is one paired measurement.
//
// In the survey domain X is the anchor (q1) and Y the estimate (q2). The
// engine treats both as reals and imposes no range; validation belongs to
// the caller.
type Observation struct {
	X float64 `json:"q1"`
	Y float64 `json:"q2"`
}

// Fit holds the full-precision outcome of a Pearson/OLS fit.
//
// Nothing here is rounded. Analyze rounds for display.
type Fit struct {
	N int

	SumX, SumY   float64
	SumXY        float64
	SumXX, SumYY float64

	MeanX, MeanY float64
	XMin, XMax   float64

	R                float64 // Pearson r in [-1, 1]; 0 when either variable is constant
	TStatistic       float64 // ±Inf when |r| = 1
	DegreesOfFreedom int     // n − 2
	PValue           float64 // two-tailed, in [0, 1]

	Slope     float64
	Intercept float64
}

// Predict returns the fitted line's value at x.
func (f Fit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// FitPearson computes Pearson's r, its t-test and the least squares line.
//
// Uses the single-pass running-sum form:
//
//	r     = (nΣXY − ΣXΣY) / sqrt((nΣX² − (ΣX)²)(nΣY² − (ΣY)²))
//	slope = (nΣXY − ΣXΣY) / (nΣX² − (ΣX)²)
//
// A zero denominator (constant X or Y) yields r = 0 and p = 1 rather
// than NaN. Returns ErrInsufficientData when len(obs) < 3.
func FitPearson(obs []Observation) (Fit, error) {
	n := len(obs)
	if n < MinObservations {
		return Fit{N: n}, ErrInsufficientData
	}

	fit := Fit{
		N:    n,
		XMin: obs[0].X,
		XMax: obs[0].X,
	}

	for _, o := range obs {
		fit.SumX += o.X
		fit.SumY += o.Y
		fit.SumXY += o.X * o.Y
		fit.SumXX += o.X * o.X
		fit.SumYY += o.Y * o.Y

		fit.XMin = math.Min(fit.XMin, o.X)
		fit.XMax = math.Max(fit.XMax, o.X)
	}

	nf := float64(n)
	fit.MeanX = fit.SumX / nf
	fit.MeanY = fit.SumY / nf

	covariance := nf*fit.SumXY - fit.SumX*fit.SumY
	varianceX := nf*fit.SumXX - fit.SumX*fit.SumX
	varianceY := nf*fit.SumYY - fit.SumY*fit.SumY

	// Cancellation can leave a constant column with a tiny negative
	// variance; treat anything non-positive as zero.
	if varianceX > 0 && varianceY > 0 {
		fit.R = math.Max(-1, math.Min(1, covariance/math.Sqrt(varianceX*varianceY)))
	}

	fit.DegreesOfFreedom = n - 2
	df := float64(fit.DegreesOfFreedom)

	rSquared := fit.R * fit.R
	if rSquared >= 1 {
		fit.TStatistic = math.Copysign(math.Inf(1), fit.R)
	} else {
		fit.TStatistic = fit.R * math.Sqrt(df) / math.Sqrt(1-rSquared)
	}
	fit.PValue = TwoTailedPValue(fit.TStatistic, df)

	if varianceX > 0 {
		fit.Slope = covariance / varianceX
	}
	fit.Intercept = fit.MeanY - fit.Slope*fit.MeanX

	return fit, nil
}

// TwoTailedPValue converts a Student t-statistic with df degrees of
// freedom into a two-tailed p-value:
//
//	p = I_{df/(df+t²)}(df/2, 1/2)
//
// The incomplete beta already covers both tails, so the result is not
// doubled. Infinite t gives 0 without evaluating the beta function.
func TwoTailedPValue(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	if df <= 0 {
		return 1
	}
	return RegIncBeta(df/(df+t*t), df/2, 0.5)
}
