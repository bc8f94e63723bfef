// Package table provides the apply-time vocabulary lookup structure.
package table

import (
	"github.com/cognicore/lexika/pkg/lexika/artifact"
	"github.com/cognicore/lexika/pkg/lexika/fingerprint"
)

// Options configures table construction.
type Options struct {
	// NumOOVBuckets routes out-of-vocabulary tokens into this many overflow
	// indices after the vocabulary. Zero collapses them to DefaultValue.
	NumOOVBuckets int
	// DefaultValue is returned for unknown tokens when no overflow buckets
	// are configured. Conventionally -1.
	DefaultValue int64
}

// Table maps tokens to their assigned vocabulary indices. It is read-only
// after construction and rebuilt from the artifact on each load.
type Table struct {
	index map[string]int64
	freq  map[string]float64
	opts  Options
}

// New builds a table from artifact entries; entry position defines the index.
func New(entries []artifact.Entry, opts Options) *Table {
	t := &Table{
		index: make(map[string]int64, len(entries)),
		freq:  make(map[string]float64, len(entries)),
		opts:  opts,
	}
	for i, e := range entries {
		if _, ok := t.index[e.Token]; ok {
			continue
		}
		t.index[e.Token] = int64(i)
		t.freq[e.Token] = e.Frequency
	}
	return t
}

// Load reads an artifact from disk and builds the lookup table.
func Load(path string, hasFrequency bool, opts Options) (*Table, error) {
	entries, err := artifact.Read(path, hasFrequency)
	if err != nil {
		return nil, err
	}
	return New(entries, opts), nil
}

// Lookup returns the token's assigned index. Unknown tokens go to the
// default value, or to a deterministic overflow bucket
// size + hash(token) mod buckets when buckets are configured.
func (t *Table) Lookup(token string) int64 {
	if idx, ok := t.index[token]; ok {
		return idx
	}
	if t.opts.NumOOVBuckets > 0 {
		return int64(len(t.index) + fingerprint.Bucket(token, t.opts.NumOOVBuckets))
	}
	return t.opts.DefaultValue
}

// Frequency returns the stored frequency of a token, if present. Only
// meaningful for tables loaded from a frequency-storing artifact.
func (t *Table) Frequency(token string) (float64, bool) {
	f, ok := t.freq[token]
	return f, ok
}

// Size returns the number of in-vocabulary tokens, excluding overflow
// buckets.
func (t *Table) Size() int { return len(t.index) }
