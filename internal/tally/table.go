// Package tally implements the frequency table at the heart of the tally
// tool: an immutable mapping from item token to occurrence count, built once
// from an input source and enumerable in lexicographic key order.
package tally

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"slices"
)

// Table load and persistence errors.
var (
	ErrInputUnavailable  = errors.New("input unavailable")
	ErrBackupWriteFailed = errors.New("backup write failed")
	ErrMalformedSnapshot = errors.New("malformed snapshot line")
)


// Entry is one item and the number of times it appeared in the input.
type Entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Table counts item tokens. It is built by Load or LoadFile and never
// changes afterwards, so every read method may be called any number of
// times with identical results.
type Table struct {
	counts map[string]int
	keys   []string // sorted ascending, one per distinct item
	total  int
}

// Load reads whitespace-delimited tokens from r until end of stream and
// counts each one. Only ASCII whitespace separates tokens, and tokens are
// compared byte for byte: no trimming and no case folding. Token length is
// unbounded. A read error wraps ErrInputUnavailable.
func Load(r io.Reader) (*Table, error) {
	t := &Table{counts: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	scanner.Split(scanTokens)
	for scanner.Scan() {
		item := scanner.Text()
		if _, seen := t.counts[item]; !seen {
			t.keys = append(t.keys, item)
		}
		t.counts[item]++
		t.total++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading tokens: %w", ErrInputUnavailable, err)
	}

	slices.Sort(t.keys)
	return t, nil
}

// scanTokens is a bufio.SplitFunc that splits on ASCII whitespace only.
// Bytes such as U+00A0 or U+0085 stay inside the token.
func scanTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}
	for i := start; i < len(data); i++ {
		if isSpace(data[i]) {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// LoadFile opens path, loads a Table from it and closes the file before
// returning. A missing or unreadable file wraps ErrInputUnavailable.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrInputUnavailable, path, err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}

// FrequencyOf returns how many times name appeared in the input, or 0 if it
// never did.
func (t *Table) FrequencyOf(name string) int {
	return t.counts[name]
}

// All yields every (name, count) pair in ascending name order.
func (t *Table) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, k := range t.keys {
			if !yield(k, t.counts[k]) {
				return
			}
		}
	}
}

// Entries returns the table contents as a slice in the same order as All.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.keys))
	for name, count := range t.All() {
		entries = append(entries, Entry{Name: name, Count: count})
	}
	return entries
}

// Len returns the number of distinct items.
func (t *Table) Len() int {
	return len(t.keys)
}

// Total returns the number of tokens read from the input.
func (t *Table) Total() int {
	return t.total
}
