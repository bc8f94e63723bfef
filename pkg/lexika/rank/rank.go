package rank

import "sort"

// Entry is one ranked vocabulary candidate.
type Entry struct {
	Token string
	// Score orders the vocabulary: weighted count in frequency mode, the
	// (adjusted) mutual information value in labeled mode.
	Score float64
	// FilterWeight is the statistic thresholds apply to. It equals the
	// weighted count for unlabeled streams and the weighted co-occurrence
	// with nonzero labels for labeled streams.
	FilterWeight float64
	// Frequency is the value written next to the token when the artifact
	// stores frequencies.
	Frequency float64
	// Fingerprint is the deterministic tie-break hash of the token.
	Fingerprint uint64
}

// Options configures a Ranker.
type Options struct {
	// TopK caps the globally selected vocabulary. Nil means unbounded.
	TopK *int
	// FrequencyThreshold drops entries whose FilterWeight is below the
	// threshold before top-K selection. Nil disables filtering.
	FrequencyThreshold *float64
	// KeyFn groups tokens for coverage selection. Required for coverage.
	KeyFn func(token string) string
	// CoverageTopK guarantees up to K entries per key group, independently
	// of the global selection. Nil disables coverage.
	CoverageTopK *int
	// CoverageFrequencyThreshold filters coverage candidates only. Nil
	// admits every token into its group.
	CoverageFrequencyThreshold *float64
	// FingerprintShuffle orders the final vocabulary by ascending
	// fingerprint instead of descending score.
	FingerprintShuffle bool
}

// Ranker selects and orders the final vocabulary from scored entries.
type Ranker struct {
	opts Options
}

// New creates a ranker.
func New(opts Options) *Ranker {
	return &Ranker{opts: opts}
}

// Rank filters, truncates and orders the candidates. Position in the result
// is the token's assigned index. The input slice is not modified.
func (r *Ranker) Rank(candidates []Entry) []Entry {
	selected := r.selectGlobal(candidates)

	if r.opts.KeyFn != nil && r.opts.CoverageTopK != nil {
		selected = mergeByToken(selected, r.selectCoverage(candidates))
	}

	if r.opts.FingerprintShuffle {
		sort.Slice(selected, func(i, j int) bool {
			if selected[i].Fingerprint != selected[j].Fingerprint {
				return selected[i].Fingerprint < selected[j].Fingerprint
			}
			return selected[i].Token > selected[j].Token
		})
	} else {
		sortByScore(selected)
	}
	return selected
}

// selectGlobal applies the frequency threshold and the global top-K.
// Filtering must precede truncation: threshold and top-K compose.
func (r *Ranker) selectGlobal(candidates []Entry) []Entry {
	eligible := make([]Entry, 0, len(candidates))
	for _, e := range candidates {
		if r.opts.FrequencyThreshold != nil && e.FilterWeight < *r.opts.FrequencyThreshold {
			continue
		}
		eligible = append(eligible, e)
	}
	sortByScore(eligible)
	if r.opts.TopK != nil && len(eligible) > *r.opts.TopK {
		eligible = eligible[:*r.opts.TopK]
	}
	return eligible
}

// selectCoverage ranks each key group independently and keeps up to
// CoverageTopK entries per group. The global frequency threshold does not
// apply here; only CoverageFrequencyThreshold does.
func (r *Ranker) selectCoverage(candidates []Entry) []Entry {
	groups := make(map[string][]Entry)
	keys := make([]string, 0)
	for _, e := range candidates {
		if r.opts.CoverageFrequencyThreshold != nil && e.FilterWeight < *r.opts.CoverageFrequencyThreshold {
			continue
		}
		key := r.opts.KeyFn(e.Token)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}
	sort.Strings(keys)

	k := *r.opts.CoverageTopK
	var picked []Entry
	for _, key := range keys {
		group := groups[key]
		sortByScore(group)
		if len(group) > k {
			group = group[:k]
		}
		picked = append(picked, group...)
	}
	return picked
}

// mergeByToken unions primary and extra, keeping the first occurrence of
// each token.
func mergeByToken(primary, extra []Entry) []Entry {
	seen := make(map[string]struct{}, len(primary))
	merged := make([]Entry, 0, len(primary)+len(extra))
	for _, e := range primary {
		if _, ok := seen[e.Token]; ok {
			continue
		}
		seen[e.Token] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range extra {
		if _, ok := seen[e.Token]; ok {
			continue
		}
		seen[e.Token] = struct{}{}
		merged = append(merged, e)
	}
	return merged
}

// sortByScore orders entries by descending score; exact ties fall back to
// descending token value on the raw byte representation. The tie direction
// is a user-visible contract of the emitted vocabulary.
func sortByScore(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Token > entries[j].Token
	})
}
