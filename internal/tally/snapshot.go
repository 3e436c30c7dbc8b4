// This file provides the backup snapshot format: one "<name> <count>" line
// per entry, sorted by name, written with atomic persistence.
package tally

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// snapshotPerm is the mode of a freshly written snapshot file.
const snapshotPerm = 0o644

// WriteSnapshot writes every entry to w as "<name> <count>\n" in the order
// of All.
func (t *Table) WriteSnapshot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for name, count := range t.All() {
		if _, err := fmt.Fprintf(bw, "%s %d\n", name, count); err != nil {
			return fmt.Errorf("writing entry %q: %w", name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot replaces the file at path with a snapshot of the table using
// the temp-file, fsync, rename pattern. Any previous content is discarded.
// All failures wrap ErrBackupWriteFailed.
func (t *Table) SaveSnapshot(path string) error {
	if err := saveSnapshot(t, path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBackupWriteFailed, path, err)
	}
	return nil
}

func saveSnapshot(t *Table, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := t.WriteSnapshot(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, snapshotPerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting snapshot mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ParseSnapshot reads a snapshot written by WriteSnapshot back into entries.
// Empty lines are skipped; any other line that is not "<name> <count>"
// returns ErrMalformedSnapshot.
func ParseSnapshot(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, countStr, ok := strings.Cut(line, " ")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedSnapshot, lineNo, line)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: line %d: bad count %q", ErrMalformedSnapshot, lineNo, countStr)
		}
		entries = append(entries, Entry{Name: name, Count: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	return entries, nil
}
