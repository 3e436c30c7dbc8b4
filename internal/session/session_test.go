package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/internal/tally"
)

func groceryTable(t *testing.T) *tally.Table {
	t.Helper()
	tbl, err := tally.Load(strings.NewReader("apple banana apple apple banana"))
	require.NoError(t, err)
	return tbl
}

// runSession feeds input to a session over tbl and returns everything it wrote.
func runSession(t *testing.T, tbl *tally.Table, input string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	s := New(tbl, strings.NewReader(input), &out, opts...)
	require.NoError(t, s.Run())
	return out.String()
}

func TestRun_ExitImmediately(t *testing.T) {
	out := runSession(t, groceryTable(t), "4\n")

	assert.Equal(t, 1, strings.Count(out, "Corner Grocer Menu"))
	assert.Contains(t, out, "Exiting program. Goodbye!")
	assert.True(t, strings.HasSuffix(out, msgGoodbye+"\n"))
}

func TestRun_Lookup(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"present item", "apple", "apple appeared 3 time(s).\n"},
		{"second item", "banana", "banana appeared 2 time(s).\n"},
		{"absent item", "cherry", "cherry appeared 0 time(s).\n"},
		{"case differs", "Apple", "Apple appeared 0 time(s).\n"},
		{"multi-word line", "apple banana", "apple banana appeared 0 time(s).\n"},
		{"surrounding spaces kept", " apple", " apple appeared 0 time(s).\n"},
		{"windows line ending", "apple\r", "apple appeared 3 time(s).\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runSession(t, groceryTable(t), "1\n"+tt.query+"\n4\n")
			assert.Contains(t, out, promptLookup)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRun_ListAll(t *testing.T) {
	out := runSession(t, groceryTable(t), "2\n4\n")
	assert.Contains(t, out, listHeader+"apple 3\nbanana 2\n"+listFooter)
}

func TestRun_ListAllEmptyTable(t *testing.T) {
	tbl, err := tally.Load(strings.NewReader(""))
	require.NoError(t, err)

	out := runSession(t, tbl, "2\n4\n")
	assert.Contains(t, out, listHeader+listFooter)
}

func TestRun_Histogram(t *testing.T) {
	out := runSession(t, groceryTable(t), "3\n4\n")
	assert.Contains(t, out, histHeader+"apple ***\nbanana **\n"+histFooter)
}

func TestRun_HistogramMarkerCountMatchesCount(t *testing.T) {
	tbl, err := tally.Load(strings.NewReader("a b b c c c d d d d d d d d d d d d"))
	require.NoError(t, err)

	out := runSession(t, tbl, "3\n4\n", WithMarker("#"))
	for name, count := range tbl.All() {
		assert.Contains(t, out, "\n"+name+" "+strings.Repeat("#", count)+"\n")
	}
}

func TestRun_NonNumericThenExit(t *testing.T) {
	out := runSession(t, groceryTable(t), "x\n4\n")

	assert.Equal(t, 1, strings.Count(out, promptRetry))
	assert.Equal(t, 1, strings.Count(out, "Corner Grocer Menu"))
	assert.Contains(t, out, "Goodbye!")
}

func TestRun_MenuTitleLine(t *testing.T) {
	out := runSession(t, groceryTable(t), "4\n")
	assert.True(t, strings.HasPrefix(out,
		"----------------------------------------\n           Corner Grocer Menu           \n"))
}

func TestRun_GarbageLineDiscardedWhole(t *testing.T) {
	// Trailing characters after the bad token must not be read as a choice.
	out := runSession(t, groceryTable(t), "abc 2 3\n4\n")

	assert.Equal(t, 1, strings.Count(out, promptRetry))
	assert.NotContains(t, out, listHeader)
	assert.NotContains(t, out, histHeader)
}

func TestRun_TrailingCharactersAfterChoiceIgnored(t *testing.T) {
	out := runSession(t, groceryTable(t), "2 junk\n4\n")

	assert.Contains(t, out, listHeader)
	assert.NotContains(t, out, promptRetry)
}

func TestRun_OutOfRangeChoice(t *testing.T) {
	out := runSession(t, groceryTable(t), "7\n0\n-1\n4\n")

	assert.Equal(t, 3, strings.Count(out, msgBadChoice))
	assert.Equal(t, 4, strings.Count(out, "Corner Grocer Menu"))
}

func TestRun_BlankLinesSkipped(t *testing.T) {
	out := runSession(t, groceryTable(t), "\n\n   \n4\n")

	assert.NotContains(t, out, promptRetry)
	assert.NotContains(t, out, msgBadChoice)
	assert.Contains(t, out, "Goodbye!")
}

func TestRun_RecoveryLeavesTableIntact(t *testing.T) {
	out := runSession(t, groceryTable(t), "oops\n99\n1\napple\n4\n")
	assert.Contains(t, out, "apple appeared 3 time(s).\n")
}

func TestRun_EndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no input", "", ""},
		{"after a choice", "2\n", listHeader},
		{"at lookup prompt", "1\n", promptLookup},
		{"unterminated lookup", "1\nbanana", "banana appeared 2 time(s).\n"},
		{"unterminated exit", "4", "Goodbye!"},
		{"after bad input", "x", promptRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runSession(t, groceryTable(t), tt.input)
			assert.Contains(t, out, tt.want)
		})
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRun_WriteFailuresDoNotStopTheLoop(t *testing.T) {
	s := New(groceryTable(t), strings.NewReader("2\n4\n"), errWriter{})
	assert.NoError(t, s.Run())
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		line    string
		want    Choice
		wantErr error
	}{
		{"1", ChoiceLookup, nil},
		{"  3  ", ChoiceHistogram, nil},
		{"4 now", ChoiceExit, nil},
		{"12", Choice(12), nil},
		{"x", 0, ErrInvalidMenuInput},
		{"1.5", 0, ErrInvalidMenuInput},
		{"99999999999999999999999", 0, ErrInvalidMenuInput},
		{"", 0, errBlankLine},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseChoice(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
