// Package lexika computes deterministic, ranked vocabularies from streams of
// categorical observations. Tokens are accumulated per partition, merged,
// scored by frequency or by mutual information with a label, selected under
// top-K / threshold / per-key coverage rules, and emitted as a line-based
// artifact that an apply-time table maps back to dense indices.
package lexika

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/lexika/pkg/lexika/accum"
	"github.com/cognicore/lexika/pkg/lexika/artifact"
	"github.com/cognicore/lexika/pkg/lexika/config"
	"github.com/cognicore/lexika/pkg/lexika/fingerprint"
	"github.com/cognicore/lexika/pkg/lexika/mutualinfo"
	"github.com/cognicore/lexika/pkg/lexika/rank"
	"github.com/cognicore/lexika/pkg/lexika/store"
	"github.com/cognicore/lexika/pkg/lexika/table"
)

// Options configures a Builder.
type Options struct {
	Config config.Config
	// Store, when set, records each completed run (metadata, vocabulary
	// entries, merged token statistics).
	Store store.Store
}

// Builder accumulates observations and computes the vocabulary. It is not
// safe for concurrent use; for parallel accumulation, fold partitions into
// separate accumulators (see the runner package) and add them with
// MergeAccumulator.
type Builder struct {
	cfg config.Config
	acc *accum.Accumulator
	st  store.Store
}

// NewBuilder validates the configuration and creates a builder. Invalid
// options are reported here, before any accumulation begins.
func NewBuilder(opts Options) (*Builder, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		cfg: opts.Config,
		acc: accum.New(),
		st:  opts.Store,
	}, nil
}

// Observe records one occurrence of a token with weight 1.
func (b *Builder) Observe(token string) {
	b.ObserveWeighted(token, 1)
}

// ObserveWeighted records one occurrence of a token with the given weight.
// Tokens that cannot be represented as one artifact line (empty, or
// containing a newline) are dropped; their apply-time occurrences fall
// through to the out-of-vocabulary path.
func (b *Builder) ObserveWeighted(token string, weight float64) {
	if malformed(token) {
		return
	}
	b.acc.Observe(token, weight)
}

// ObserveLabeled records one occurrence of a token under a label.
func (b *Builder) ObserveLabeled(token string, weight float64, label int64) {
	if malformed(token) {
		return
	}
	b.acc.ObserveLabeled(token, weight, label)
}

// MergeAccumulator folds an externally accumulated partition into the
// builder. Malformed tokens are dropped here as well, since external
// accumulators bypass the Observe filters.
func (b *Builder) MergeAccumulator(a *accum.Accumulator) {
	if a == nil {
		return
	}
	b.acc.Merge(a)
	for _, tok := range a.Tokens() {
		if malformed(tok) {
			b.acc.Remove(tok)
		}
	}
}

// Build merges, scores, ranks and selects the final vocabulary. The result
// holds the ordered entries and the artifact reference; the artifact itself
// is written by Vocabulary.Write.
func (b *Builder) Build(ctx context.Context) (*Vocabulary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labeled := b.acc.Labeled()
	marginals := b.acc.Marginals()
	scorer := mutualinfo.NewScorer(b.scoringMode(labeled), b.cfg.MinDiffFromAvg)

	candidates := make([]rank.Entry, 0, b.acc.Len())
	for _, tok := range b.acc.Tokens() {
		st, _ := b.acc.Get(tok)
		score := scorer.Score(st, marginals)
		candidates = append(candidates, rank.Entry{
			Token:        tok,
			Score:        score,
			FilterWeight: filterWeight(st, labeled),
			Frequency:    frequencyValue(st, score, labeled),
			Fingerprint:  fingerprint.Token(tok),
		})
	}

	ranker := rank.New(rank.Options{
		TopK:                       b.cfg.TopK,
		FrequencyThreshold:         b.cfg.FrequencyThreshold,
		KeyFn:                      b.cfg.KeyFn,
		CoverageTopK:               b.cfg.CoverageTopK,
		CoverageFrequencyThreshold: b.cfg.CoverageFrequencyThreshold,
		FingerprintShuffle:         b.cfg.FingerprintShuffle,
	})
	selected := ranker.Rank(candidates)

	entries := make([]artifact.Entry, len(selected))
	for i, e := range selected {
		entries[i] = artifact.Entry{Token: e.Token, Frequency: e.Frequency}
	}

	return &Vocabulary{
		Entries: entries,
		Ref:     artifact.NewRef(b.cfg.OutputDir, b.cfg.VocabFilename),
		cfg:     b.cfg,
		acc:     b.acc,
		labeled: labeled,
		st:      b.st,
	}, nil
}

func (b *Builder) scoringMode(labeled bool) mutualinfo.Mode {
	if !labeled {
		return mutualinfo.ModeFrequency
	}
	if b.cfg.UseAdjustedMutualInfo {
		return mutualinfo.ModeAdjustedMutualInfo
	}
	return mutualinfo.ModeMutualInfo
}

// Vocabulary is the computed, ordered vocabulary. Position in Entries is the
// token's assigned index. The value is immutable once built.
type Vocabulary struct {
	Entries []artifact.Entry
	Ref     artifact.Ref

	cfg     config.Config
	acc     *accum.Accumulator
	labeled bool
	st      store.Store
}

// Size returns the number of vocabulary entries.
func (v *Vocabulary) Size() int { return len(v.Entries) }

// Write resolves the artifact reference, writes the artifact, and records
// the run in the configured store, if any. It returns the artifact path.
func (v *Vocabulary) Write(ctx context.Context) (string, error) {
	path, err := v.Ref.Write(v.Entries, v.cfg.StoreFrequency)
	if err != nil {
		return "", err
	}
	if v.st == nil {
		return path, nil
	}

	run := store.Run{
		ID:             store.NewRunID(),
		CreatedAt:      time.Now().UTC(),
		VocabFilename:  v.cfg.VocabFilename,
		ArtifactPath:   path,
		Size:           len(v.Entries),
		Labeled:        v.labeled,
		StoreFrequency: v.cfg.StoreFrequency,
	}
	entries := make([]store.Entry, len(v.Entries))
	for i, e := range v.Entries {
		entries[i] = store.Entry{Token: e.Token, Index: int64(i), Frequency: e.Frequency}
	}
	stats := make([]store.TokenStat, 0, v.acc.Len())
	for _, tok := range v.acc.Tokens() {
		st, _ := v.acc.Get(tok)
		stats = append(stats, store.TokenStat{
			Token:         tok,
			Count:         int64(st.Count),
			WeightedCount: st.WeightedCount,
		})
	}
	if err := v.st.SaveRun(ctx, run, entries, stats); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return path, nil
}

// Table builds the apply-time lookup table directly from the computed
// entries, without an artifact round trip.
func (v *Vocabulary) Table() *table.Table {
	return table.New(v.Entries, table.Options{
		NumOOVBuckets: v.cfg.NumOOVBuckets,
		DefaultValue:  v.cfg.DefaultValue,
	})
}

// filterWeight is the statistic frequency thresholds apply to: the weighted
// count for unlabeled streams, and the weighted co-occurrence with nonzero
// labels for labeled streams.
func filterWeight(st accum.Stats, labeled bool) float64 {
	if !labeled {
		return st.WeightedCount
	}
	var w float64
	for label, lw := range st.LabelCounts {
		if label != 0 {
			w += lw
		}
	}
	return w
}

// frequencyValue is what a frequency-storing artifact records next to the
// token: the importance score when labels are present, the weighted count
// otherwise.
func frequencyValue(st accum.Stats, score float64, labeled bool) float64 {
	if labeled {
		return score
	}
	return st.WeightedCount
}

func malformed(token string) bool {
	return token == "" || strings.ContainsAny(token, "\n\r")
}
