package fingerprint

import (
	"sort"
	"testing"
)

func TestTokenOrdering(t *testing.T) {
	// sha1("world") starts 7c21..., sha1("hello") starts aaf4..., so the
	// fingerprint order inverts the lexicographic one.
	if Token("world") >= Token("hello") {
		t.Errorf("Token(world) = %x should sort before Token(hello) = %x",
			Token("world"), Token("hello"))
	}
}

func TestTokenShuffleOrder(t *testing.T) {
	// sha1 prefixes: "1" 356a..., "3" 77de..., "2" da4b...
	toks := []string{"1", "2", "3"}
	sort.Slice(toks, func(i, j int) bool { return Token(toks[i]) < Token(toks[j]) })

	want := []string{"1", "3", "2"}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("fingerprint order = %v, want %v", toks, want)
		}
	}
}

func TestTokenStable(t *testing.T) {
	if Token("hello") != Token("hello") {
		t.Error("fingerprint is not stable across calls")
	}
	if Token("hello") == Token("hello ") {
		t.Error("distinct tokens share a fingerprint")
	}
}

func TestBucketRange(t *testing.T) {
	for _, tok := range []string{"hello", "world", "goodbye", "", " ", "tarkus"} {
		for _, n := range []int{1, 2, 3, 17} {
			b := Bucket(tok, n)
			if b < 0 || b >= n {
				t.Errorf("Bucket(%q, %d) = %d out of range", tok, n, b)
			}
		}
	}
}

func TestBucketStable(t *testing.T) {
	if Bucket("goodbye", 7) != Bucket("goodbye", 7) {
		t.Error("bucket assignment is not stable")
	}
}

func TestBucketSingleBucket(t *testing.T) {
	if got := Bucket("anything", 1); got != 0 {
		t.Errorf("Bucket with one bucket = %d, want 0", got)
	}
}

func TestBucketNonPositive(t *testing.T) {
	if got := Bucket("x", 0); got != 0 {
		t.Errorf("Bucket(x, 0) = %d, want 0", got)
	}
	if got := Bucket("x", -3); got != 0 {
		t.Errorf("Bucket(x, -3) = %d, want 0", got)
	}
}
