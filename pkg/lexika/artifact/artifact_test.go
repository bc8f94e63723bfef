package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/lexika/pkg/lexika/internalerr"
)

func TestWriteBareTokens(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	entries := []Entry{{Token: "hello"}, {Token: "world"}}

	path, err := ref.Write(entries, false)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "hello\nworld\n"; got != want {
		t.Errorf("artifact = %q, want %q", got, want)
	}
}

func TestWriteWithFrequencies(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	entries := []Entry{
		{Token: "hello", Frequency: 3},
		{Token: "world", Frequency: 1.5},
	}

	path, err := ref.Write(entries, true)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "3 hello\n1.5 world\n"; got != want {
		t.Errorf("artifact = %q, want %q", got, want)
	}
}

func TestWriteEmptyVocabulary(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	path, err := ref.Write(nil, true)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("empty vocabulary produced %q", data)
	}
}

func TestWriteEmptyFilename(t *testing.T) {
	ref := NewRef(t.TempDir(), "")
	if _, err := ref.Write(nil, false); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	ref := NewRef(dir, "vocab")
	if _, err := ref.Write([]Entry{{Token: "x"}}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "vocab")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	entries := []Entry{
		{Token: "hello", Frequency: 3},
		{Token: "ho ho", Frequency: 2}, // token itself contains a space
		{Token: " ", Frequency: 1},
		{Token: "pi", Frequency: 0.33985},
	}

	path, err := ref.Write(entries, true)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip = %+v, want %+v", got, entries)
	}
}

func TestRoundTripBare(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	entries := []Entry{{Token: "2 ho ho"}, {Token: "hello"}}

	path, err := ref.Write(entries, false)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip = %+v, want %+v", got, entries)
	}
}

func TestReadFrequencyLineSplitsOnFirstSpace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab")
	if err := os.WriteFile(path, []byte("2 ho ho\n1 hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{{Token: "ho ho", Frequency: 2}, {Token: "hi", Frequency: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %+v, want %+v", got, want)
	}
}

func TestReadMalformedFrequencyLine(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"missing_delimiter": "hello\n",
		"bad_frequency":     "abc hello\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Read(path, true); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteReplacesExistingArtifact(t *testing.T) {
	ref := NewRef(t.TempDir(), "vocab")
	if _, err := ref.Write([]Entry{{Token: "old"}}, false); err != nil {
		t.Fatal(err)
	}
	path, err := ref.Write([]Entry{{Token: "new"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "old") {
		t.Errorf("stale content survived rewrite: %q", data)
	}
}

func TestFormatFrequency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{0, "0"},
		{-2, "-2"},
		{1.5, "1.5"},
		{0.33985, "0.33985"},
		{1.7548264, "1.7548264"},
	}
	for _, tc := range cases {
		if got := FormatFrequency(tc.in); got != tc.want {
			t.Errorf("FormatFrequency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPath(t *testing.T) {
	ref := NewRef("/tmp/out", "vocab")
	if got := ref.Path(); got != filepath.Join("/tmp/out", "vocab") {
		t.Errorf("Path() = %q", got)
	}
}
