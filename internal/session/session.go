// Package session drives the interactive menu over a tally.Table: item
// lookup, a full listing, a histogram, and exit.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tally/internal/tally"
)

// ErrInvalidMenuInput marks a menu line that does not start with an integer.
var ErrInvalidMenuInput = errors.New("invalid menu input")

// Choice is a menu selection.
type Choice int

// Menu choices in the order they are listed.
const (
	ChoiceLookup Choice = iota + 1
	ChoiceListAll
	ChoiceHistogram
	ChoiceExit
)

// DefaultMarker is the histogram bar character.
const DefaultMarker = "*"

const menuText = "----------------------------------------\n" +
	"           Corner Grocer Menu           \n" +
	`----------------------------------------
1. Look up an item's frequency
2. Print all item frequencies
3. Print item frequencies as a histogram
4. Exit program
----------------------------------------
Enter your choice: `

const (
	promptRetry  = "Invalid input. Please enter a number (1-4): "
	promptLookup = "\nEnter the item you wish to look for: "
	msgBadChoice = "Invalid choice. Please enter a number between 1 and 4.\n\n"
	msgGoodbye   = "Exiting program. Goodbye!\n\n"
	listHeader   = "\n--- Item Frequencies ---\n"
	listFooter   = "------------------------\n\n"
	histHeader   = "\n--- Item Frequency Histogram ---\n"
	histFooter   = "--------------------------------\n\n"
)

// Session owns a Table for the lifetime of the menu loop. It reads operator
// input from in and writes all feedback to out.
type Session struct {
	table  *tally.Table
	in     *bufio.Reader
	out    io.Writer
	marker string
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithMarker sets the histogram bar character. An empty marker is ignored.
func WithMarker(marker string) Option {
	return func(s *Session) {
		if marker != "" {
			s.marker = marker
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Session over t.
func New(t *tally.Table, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		table:  t,
		in:     bufio.NewReader(in),
		out:    out,
		marker: DefaultMarker,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run shows the menu and dispatches choices until the operator exits or the
// input ends. End of input is not an error.
func (s *Session) Run() error {
	for {
		s.print(menuText)

		choice, err := s.readChoice()
		if errors.Is(err, io.EOF) {
			s.logger.Debug("input closed at menu prompt")
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case ChoiceLookup:
			if err := s.lookup(); err != nil {
				if errors.Is(err, io.EOF) {
					s.logger.Debug("input closed at lookup prompt")
					return nil
				}
				return err
			}
		case ChoiceListAll:
			s.listAll()
		case ChoiceHistogram:
			s.histogram()
		case ChoiceExit:
			s.print(msgGoodbye)
		default:
			s.logger.Debug("menu choice out of range", "choice", int(choice))
			s.print(msgBadChoice)
		}
		s.print("\n")

		if choice == ChoiceExit {
			return nil
		}
	}
}

// readChoice reads menu lines until one starts with an integer. Blank lines
// are skipped without comment; any other bad line is reported and discarded
// in full before the operator is asked again, even when input ends there.
func (s *Session) readChoice() (Choice, error) {
	for {
		line, err := s.readLine()
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return 0, err
		}

		choice, perr := parseChoice(line)
		switch {
		case perr == nil:
			return choice, nil
		case errors.Is(perr, errBlankLine):
			if err != nil {
				return 0, err
			}
			continue
		default:
			s.logger.Debug("discarding menu input", "error", perr)
			s.print(promptRetry)
			if err != nil {
				return 0, err
			}
		}
	}
}

var errBlankLine = errors.New("blank line")

// parseChoice returns the integer at the start of line. Anything after the
// first token is ignored.
func parseChoice(line string) (Choice, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, errBlankLine
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMenuInput, fields[0])
	}
	return Choice(n), nil
}

func (s *Session) lookup() error {
	s.print(promptLookup)
	name, err := s.readLine()
	if err != nil && (name == "" || !errors.Is(err, io.EOF)) {
		return err
	}
	s.printf("%s appeared %d time(s).\n", name, s.table.FrequencyOf(name))
	return nil
}

func (s *Session) listAll() {
	s.print(listHeader)
	for name, count := range s.table.All() {
		s.printf("%s %d\n", name, count)
	}
	s.print(listFooter)
}

func (s *Session) histogram() {
	s.print(histHeader)
	for name, count := range s.table.All() {
		s.printf("%s %s\n", name, strings.Repeat(s.marker, count))
	}
	s.print(histFooter)
}

// readLine returns the next input line without its terminator. A final line
// with no terminator is returned together with io.EOF.
func (s *Session) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

func (s *Session) print(text string) {
	if _, err := io.WriteString(s.out, text); err != nil {
		s.logger.Error("write to terminal failed", "error", err)
	}
}

func (s *Session) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		s.logger.Error("write to terminal failed", "error", err)
	}
}
