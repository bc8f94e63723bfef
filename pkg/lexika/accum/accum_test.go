package accum

import (
	"math"
	"reflect"
	"testing"
)

func TestObserveCounts(t *testing.T) {
	a := New()
	a.Observe("hello", 1)
	a.Observe("hello", 1)
	a.Observe("world", 1)

	st, ok := a.Get("hello")
	if !ok {
		t.Fatal("hello not found")
	}
	if st.Count != 2 || st.WeightedCount != 2 {
		t.Errorf("hello stats = %+v, want count 2 weight 2", st)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	if a.Labeled() {
		t.Error("unlabeled accumulator reports Labeled()")
	}
}

func TestObserveWeights(t *testing.T) {
	a := New()
	a.Observe("x", 0.5)
	a.Observe("x", 2.5)

	st, _ := a.Get("x")
	if st.Count != 2 {
		t.Errorf("Count = %d, want 2", st.Count)
	}
	if st.WeightedCount != 3.0 {
		t.Errorf("WeightedCount = %f, want 3.0", st.WeightedCount)
	}
}

func TestObserveLabeled(t *testing.T) {
	a := New()
	a.ObserveLabeled("x", 1, 1)
	a.ObserveLabeled("x", 1, 1)
	a.ObserveLabeled("x", 1, 0)

	if !a.Labeled() {
		t.Error("labeled accumulator does not report Labeled()")
	}
	st, _ := a.Get("x")
	if st.LabelCounts[1] != 2 || st.LabelCounts[0] != 1 {
		t.Errorf("label counts = %v, want {0:1 1:2}", st.LabelCounts)
	}
}

func TestGetMissing(t *testing.T) {
	a := New()
	if _, ok := a.Get("missing"); ok {
		t.Error("Get on empty accumulator reported a hit")
	}
}

func TestRemove(t *testing.T) {
	a := New()
	a.Observe("x", 1)
	a.Remove("x")
	if _, ok := a.Get("x"); ok {
		t.Error("token still present after Remove")
	}
}

func TestTokensSorted(t *testing.T) {
	a := New()
	for _, tok := range []string{"pear", "apple", "zebra", "mango"} {
		a.Observe(tok, 1)
	}
	want := []string{"apple", "mango", "pear", "zebra"}
	if got := a.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestMergeSumsKeywise(t *testing.T) {
	a := New()
	a.ObserveLabeled("x", 1, 1)
	a.Observe("y", 2)

	b := New()
	b.ObserveLabeled("x", 3, 0)
	b.Observe("z", 1)

	a.Merge(b)

	st, _ := a.Get("x")
	if st.Count != 2 || st.WeightedCount != 4 {
		t.Errorf("merged x = %+v, want count 2 weight 4", st)
	}
	if st.LabelCounts[0] != 3 || st.LabelCounts[1] != 1 {
		t.Errorf("merged label counts = %v", st.LabelCounts)
	}
	if a.Len() != 3 {
		t.Errorf("merged Len() = %d, want 3", a.Len())
	}
	if !a.Labeled() {
		t.Error("merge dropped the labeled flag")
	}
}

func TestMergeNil(t *testing.T) {
	a := New()
	a.Observe("x", 1)
	a.Merge(nil)
	if a.Len() != 1 {
		t.Error("merging nil changed the accumulator")
	}
}

// Folding the same stream through different partitionings must yield
// identical statistics: the merge operator is associative and commutative.
func TestMergeIsPartitionIndependent(t *testing.T) {
	type obs struct {
		token  string
		weight float64
		label  int64
	}
	stream := []obs{
		{"hello", 1, 1}, {"world", 0.5, 0}, {"hello", 2, 0},
		{"goodbye", 1, 1}, {"world", 1, 1}, {"hello", 1, 1},
	}

	fold := func(parts ...[]obs) *Accumulator {
		merged := New()
		for _, part := range parts {
			a := New()
			for _, o := range part {
				a.ObserveLabeled(o.token, o.weight, o.label)
			}
			merged.Merge(a)
		}
		return merged
	}

	single := fold(stream)
	split := fold(stream[:2], stream[2:5], stream[5:])
	reversed := fold(stream[5:], stream[2:5], stream[:2])

	for _, other := range []*Accumulator{split, reversed} {
		if !reflect.DeepEqual(single.Tokens(), other.Tokens()) {
			t.Fatalf("token sets differ: %v vs %v", single.Tokens(), other.Tokens())
		}
		for _, tok := range single.Tokens() {
			a, _ := single.Get(tok)
			b, _ := other.Get(tok)
			if !reflect.DeepEqual(a, b) {
				t.Errorf("stats for %q differ: %+v vs %+v", tok, a, b)
			}
		}
	}
}

func TestMarginals(t *testing.T) {
	a := New()
	a.ObserveLabeled("x", 1, 1)
	a.ObserveLabeled("x", 2, 0)
	a.ObserveLabeled("y", 3, 1)

	m := a.Marginals()
	if m.Total != 6 {
		t.Errorf("Total = %f, want 6", m.Total)
	}
	if m.LabelWeights[0] != 2 || m.LabelWeights[1] != 4 {
		t.Errorf("LabelWeights = %v, want {0:2 1:4}", m.LabelWeights)
	}
	if got := m.Labels(); !reflect.DeepEqual(got, []int64{0, 1}) {
		t.Errorf("Labels() = %v, want [0 1]", got)
	}
}

func TestMarginalsUnlabeled(t *testing.T) {
	a := New()
	a.Observe("x", 1.5)
	a.Observe("y", 2.5)

	m := a.Marginals()
	if math.Abs(m.Total-4.0) > 1e-12 {
		t.Errorf("Total = %f, want 4.0", m.Total)
	}
	if len(m.LabelWeights) != 0 {
		t.Errorf("LabelWeights = %v, want empty", m.LabelWeights)
	}
}
