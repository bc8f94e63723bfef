package accum

import "sort"

// Stats holds the accumulated statistics for one distinct token.
type Stats struct {
	Count         uint64
	WeightedCount float64
	// LabelCounts maps a label id to the summed weight of occurrences of the
	// token under that label. Nil when the stream carries no labels.
	LabelCounts map[int64]float64
}

// Marginals are the global label sums derived from a fully merged accumulator.
type Marginals struct {
	// LabelWeights maps each label id to its total weight across all tokens.
	LabelWeights map[int64]float64
	// Total is the total weighted count across all tokens.
	Total float64
}

// Labels returns the label ids of the marginals in ascending order.
// Scoring iterates labels in this order so that floating point summation
// is reproducible run to run.
func (m Marginals) Labels() []int64 {
	labels := make([]int64, 0, len(m.LabelWeights))
	for id := range m.LabelWeights {
		labels = append(labels, id)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Accumulator maintains per-token occurrence statistics for one partition of
// the input stream. Each instance is owned by a single partition until it is
// merged; it holds no shared state and no locks.
type Accumulator struct {
	tokens  map[string]*Stats
	labeled bool
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{tokens: make(map[string]*Stats)}
}

// Observe records one occurrence of a token with the given weight.
func (a *Accumulator) Observe(token string, weight float64) {
	st := a.stats(token)
	st.Count++
	st.WeightedCount += weight
}

// ObserveLabeled records one occurrence of a token with the given weight
// under the given label.
func (a *Accumulator) ObserveLabeled(token string, weight float64, label int64) {
	st := a.stats(token)
	st.Count++
	st.WeightedCount += weight
	if st.LabelCounts == nil {
		st.LabelCounts = make(map[int64]float64)
	}
	st.LabelCounts[label] += weight
	a.labeled = true
}

func (a *Accumulator) stats(token string) *Stats {
	st, ok := a.tokens[token]
	if !ok {
		st = &Stats{}
		a.tokens[token] = st
	}
	return st
}

// Merge folds other into a. The operation is associative and commutative:
// counts add, weighted counts add, and label counts sum key-wise, so the
// result is independent of partition order and merge tree shape.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	for token, st := range other.tokens {
		dst, ok := a.tokens[token]
		if !ok {
			dst = &Stats{}
			a.tokens[token] = dst
		}
		dst.Count += st.Count
		dst.WeightedCount += st.WeightedCount
		if st.LabelCounts != nil {
			if dst.LabelCounts == nil {
				dst.LabelCounts = make(map[int64]float64, len(st.LabelCounts))
			}
			for label, w := range st.LabelCounts {
				dst.LabelCounts[label] += w
			}
		}
	}
	if other.labeled {
		a.labeled = true
	}
}

// Remove deletes a token's statistics entirely.
func (a *Accumulator) Remove(token string) {
	delete(a.tokens, token)
}

// Get returns the statistics for a token.
func (a *Accumulator) Get(token string) (Stats, bool) {
	st, ok := a.tokens[token]
	if !ok {
		return Stats{}, false
	}
	return *st, true
}

// Len returns the number of distinct tokens seen.
func (a *Accumulator) Len() int { return len(a.tokens) }

// Labeled reports whether any labeled observation was recorded.
func (a *Accumulator) Labeled() bool { return a.labeled }

// Tokens returns all distinct tokens in ascending lexicographic order.
// The fixed order keeps downstream floating point reductions deterministic.
func (a *Accumulator) Tokens() []string {
	tokens := make([]string, 0, len(a.tokens))
	for tok := range a.tokens {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// Marginals computes the global label sums and the total weighted count in a
// single pass over the merged token table. Tokens are visited in sorted order
// so the sums are reproducible.
func (a *Accumulator) Marginals() Marginals {
	m := Marginals{LabelWeights: make(map[int64]float64)}
	for _, tok := range a.Tokens() {
		st := a.tokens[tok]
		m.Total += st.WeightedCount
		for _, label := range labelIDs(st.LabelCounts) {
			m.LabelWeights[label] += st.LabelCounts[label]
		}
	}
	return m
}

func labelIDs(counts map[int64]float64) []int64 {
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
