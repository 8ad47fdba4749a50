// Package anchorbench measures the anchoring effect in paired survey answers.
//
// # Overview
//
// Respondents first see (or pick) an anchor number q1 ∈ [1, 100], then
// estimate an unrelated quantity q2 (how many African states are UN
// members; the true answer is 54). If the anchor biases the estimate, q1
// and q2 correlate. anchorbench answers three questions about a set of
// (q1, q2) pairs:
//
//   - How strong is the linear relation? (Pearson r)
//   - Could it be chance? (two-tailed t-test p-value)
//   - What line summarises it? (ordinary least squares)
//
// # Pipeline
//
// Every stage is a pure function:
//
//	observations ──► FitPearson ──► TwoTailedPValue ──► RegIncBeta ──► LnGamma
//	                     │
//	                     └──► Compose/Describe ──► CorrelationResult
//
// No external math library is used. The p-value comes from
//
//	p = I_{df/(df+t²)}(df/2, 1/2),   t = r·√df / √(1−r²),   df = n−2
//
// where I is the regularized incomplete beta function, evaluated with a
// Lentz continued fraction on top of a Lanczos log-gamma. The expression
// is already two-tailed and must not be doubled.
//
// # Quick Start
//
//	obs := []anchorbench.Observation{{X: 10, Y: 30}, {X: 65, Y: 60}, {X: 90, Y: 71}}
//	res := anchorbench.Analyze(obs, anchorbench.DefaultConfig())
//
//	if !res.Sufficient() {
//	    fmt.Println(res.Interpretation) // fewer than 3 points
//	    return
//	}
//	fmt.Printf("r = %.4f, p = %.6f\n", *res.R, *res.PValue)
//
// # Degenerate Input
//
// Analyze never fails:
//   - n < 3:          r, p and regression are nil
//   - constant X or Y: r = 0, p = 1
//   - perfect line:    r = ±1, t = ±Inf, p = 0
//
// Range validation (q1 ∈ [1,100], q2 ∈ [0,1000]) and rejection of
// non-finite values belong to the caller; see package survey.
//
// # Testing
//
// assertions.go exports helpers that check the result invariants:
//
//	func TestMySurvey(t *testing.T) {
//	    res := anchorbench.Analyze(load(t), anchorbench.DefaultConfig())
//	    anchorbench.AssertValidResult(t, res)
//	    anchorbench.AssertSignificant(t, res, anchorbench.DefaultAssertionConfig())
//	}
package anchorbench
