package mutualinfo

import (
	"math"

	"github.com/cognicore/lexika/pkg/lexika/accum"
)

// Mode selects how a token's importance is computed.
type Mode int

const (
	// ModeFrequency scores a token by its weighted count.
	ModeFrequency Mode = iota
	// ModeMutualInfo scores a token by its contribution to the corpus-level
	// mutual information between token presence and the label.
	ModeMutualInfo
	// ModeAdjustedMutualInfo subtracts the mutual information expected by
	// chance under the hypergeometric null model, removing the upward bias
	// plain mutual information has for low-count tokens.
	ModeAdjustedMutualInfo
)

// Scorer computes a single importance value per token.
type Scorer struct {
	mode           Mode
	minDiffFromAvg float64
}

// NewScorer creates a scorer. minDiffFromAvg regularizes scores whose
// distance from the chance-level value is below the threshold down to zero;
// pass 0 to disable.
func NewScorer(mode Mode, minDiffFromAvg float64) *Scorer {
	return &Scorer{mode: mode, minDiffFromAvg: minDiffFromAvg}
}

// Score computes the importance of one token from its accumulated statistics
// and the global marginals. In frequency mode the marginals are unused.
func (s *Scorer) Score(st accum.Stats, m accum.Marginals) float64 {
	if s.mode == ModeFrequency {
		return st.WeightedCount
	}

	xi := st.WeightedCount
	n := m.Total

	var mi, emi float64
	needEMI := s.mode == ModeAdjustedMutualInfo || s.minDiffFromAvg > 0
	for _, label := range m.Labels() {
		yj := m.LabelWeights[label]
		mi += partialMutualInformation(st.LabelCounts[label], xi, yj, n)
		if needEMI {
			emi += partialExpectedMutualInformation(n, xi, yj)
		}
	}

	score := mi
	if s.mode == ModeAdjustedMutualInfo {
		score = mi - emi
	}
	// A score within minDiffFromAvg of its chance-level value is
	// statistically indistinguishable from noise.
	if s.minDiffFromAvg > 0 && math.Abs(mi-emi) < s.minDiffFromAvg {
		score = 0
	}
	return score
}

// partialMutualInformation is the contribution of the cell (token, label) to
// the corpus mutual information, scaled by counts rather than probabilities:
//
//	n_ij * log2(n_ij * n / (x_i * y_j))
//
// where n_ij is the token/label co-occurrence weight, x_i the token's total
// weight, y_j the label's total weight and n the corpus total. Zero cells
// contribute zero.
func partialMutualInformation(nij, xi, yj, n float64) float64 {
	if nij == 0 || xi == 0 || yj == 0 || n == 0 {
		return 0
	}
	return nij * (math.Log2(nij) + math.Log2(n) - math.Log2(xi) - math.Log2(yj))
}

// partialExpectedMutualInformation is the mutual information the cell
// (token, label) would carry by chance: the expectation of
// partialMutualInformation over the hypergeometric distribution of the
// co-occurrence count given the marginals x_i, y_j and total n.
//
// The sum runs over the hypergeometric support
// max(0, x_i+y_j-n) <= k <= min(x_i, y_j) and is normalized by the summed
// probability mass, which compensates for the truncation error of the
// log-gamma evaluation at non-integral marginals.
func partialExpectedMutualInformation(n, xi, yj float64) float64 {
	if xi == 0 || yj == 0 || n == 0 {
		return 0
	}
	coeff := math.Log2(n) - math.Log2(xi) - math.Log2(yj)

	lo := math.Max(0, math.Ceil(xi+yj-n))
	hi := math.Floor(math.Min(xi, yj))

	var emi, mass float64
	for k := lo; k <= hi; k++ {
		p := hypergeometricPMF(k, n, xi, yj)
		if k > 0 {
			emi += k * (coeff + math.Log2(k)) * p
		}
		mass += p
	}
	if mass == 0 {
		return 0
	}
	return emi / mass
}

// hypergeometricPMF evaluates P(K = k) for K hypergeometric with population
// n, successes yj and draws xi, via log-gamma for numerical stability.
func hypergeometricPMF(k, n, xi, yj float64) float64 {
	logP := logChoose(yj, k) + logChoose(n-yj, xi-k) - logChoose(n, xi)
	if math.IsInf(logP, -1) {
		return 0
	}
	return math.Exp(logP * math.Ln2)
}

// logChoose returns log2 of the binomial coefficient C(a, b), extended to
// real arguments through the gamma function. Out-of-range b yields -Inf.
func logChoose(a, b float64) float64 {
	if b < 0 || b > a {
		return math.Inf(-1)
	}
	la, _ := math.Lgamma(a + 1)
	lb, _ := math.Lgamma(b + 1)
	lab, _ := math.Lgamma(a - b + 1)
	return (la - lb - lab) / math.Ln2
}
