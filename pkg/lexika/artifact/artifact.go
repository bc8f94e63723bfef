// Package artifact reads and writes the vocabulary artifact: a UTF-8 text
// file with one entry per line, where line N defines index N. An entry is
// either the bare token, or "<frequency> <token>" when frequencies are
// stored. The sub-format is chosen by the caller, never auto-detected.
package artifact

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/lexika/pkg/lexika/internalerr"
)

// Entry is one artifact line.
type Entry struct {
	Token     string
	Frequency float64
}

// Ref is a two-phase handle to a vocabulary artifact. It is created at
// configuration time, before the vocabulary exists; the concrete file is
// written later and consumers resolve the path lazily.
type Ref struct {
	Dir      string
	Filename string
}

// NewRef creates a reference to an artifact location.
func NewRef(dir, filename string) Ref {
	return Ref{Dir: dir, Filename: filename}
}

// Path resolves the reference to a concrete file path.
func (r Ref) Path() string {
	return filepath.Join(r.Dir, r.Filename)
}

// Write writes the entries to the referenced path in index order, creating
// the directory if needed. The file is written to a temporary name and
// renamed into place so readers never observe a partial artifact.
func (r Ref) Write(entries []Entry, storeFrequency bool) (string, error) {
	if r.Filename == "" {
		return "", fmt.Errorf("write artifact: empty filename: %w", internalerr.ErrInvalidConfig)
	}
	if r.Dir != "" {
		if err := os.MkdirAll(r.Dir, 0o755); err != nil {
			return "", fmt.Errorf("write artifact: %w", err)
		}
	}

	path := r.Path()
	tmp, err := os.CreateTemp(r.Dir, r.Filename+".tmp*")
	if err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		if storeFrequency {
			if _, err := w.WriteString(FormatFrequency(e.Frequency) + " " + e.Token + "\n"); err != nil {
				tmp.Close()
				return "", fmt.Errorf("write artifact: %w", err)
			}
			continue
		}
		if _, err := w.WriteString(e.Token + "\n"); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write artifact: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// Read loads an artifact back. hasFrequency must match the flag the artifact
// was written with: the line is split on the first space, so tokens may
// themselves contain spaces.
func Read(path string, hasFrequency bool) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if !hasFrequency {
			entries = append(entries, Entry{Token: text})
			continue
		}
		freq, token, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("read artifact: line %d: missing delimiter: %w", line, internalerr.ErrInvalidInput)
		}
		val, err := strconv.ParseFloat(freq, 64)
		if err != nil {
			return nil, fmt.Errorf("read artifact: line %d: bad frequency %q: %w", line, freq, internalerr.ErrInvalidInput)
		}
		entries = append(entries, Entry{Token: token, Frequency: val})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return entries, nil
}

// FormatFrequency renders a frequency value: integral values (plain counts)
// as integers, everything else (weighted counts, information scores) as a
// compact float.
func FormatFrequency(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
