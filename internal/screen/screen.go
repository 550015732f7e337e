// Package screen renders raw interactive-shell output into the plain text a
// terminal would have shown. Only the sequences the REPL line editor emits
// are modelled: cursor-to-column (CSI G), erase below (CSI J), CR and LF.
package screen

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const esc = '\x1b'

// MaxColumn caps cursor-to-column moves. Larger or overflowing parameters
// land on the last column.
const MaxColumn = 1 << 16

// Kind identifies an escape command.
type Kind int

const (
	Unknown Kind = iota
	CursorColumn
	EraseToEndOfScreen
)

func (k Kind) String() string {
	switch k {
	case CursorColumn:
		return "CursorColumn"
	case EraseToEndOfScreen:
		return "EraseToEndOfScreen"
	default:
		return "Unknown"
	}
}

// Command is a decoded CSI sequence. N is the 1-based column for
// CursorColumn and unused otherwise.
type Command struct {
	Kind Kind
	N    int
}

// Emulator holds the screen rows and the write cursor. The zero value is
// not ready for use; call New.
type Emulator struct {
	rows [][]rune
	row  int
	col  int

	parser *ansi.Parser
}

// New returns an emulator with a single empty row and the cursor at 0,0.
func New() *Emulator {
	return &Emulator{
		rows:   [][]rune{{}},
		parser: ansi.NewParser(),
	}
}

// Clean renders text and returns the final screen content.
func Clean(text string) string {
	e := New()
	e.Write(text)
	return e.String()
}

// Cursor returns the current zero-based row and column.
func (e *Emulator) Cursor() (row, col int) {
	return e.row, e.col
}

// Write feeds text through the emulator.
func (e *Emulator) Write(text string) {
	rs := []rune(text)
	for i := 0; i < len(rs); {
		switch r := rs[i]; r {
		case esc:
			n, cmd, ok := e.readCSI(rs[i:])
			if !ok {
				// lone or unterminated introducer: drop the ESC only
				i++
				continue
			}
			e.Apply(cmd)
			i += n
		case '\r':
			e.col = 0
			i++
		case '\n':
			e.lineFeed()
			i++
		default:
			e.put(r)
			i++
		}
	}
}

// readCSI reads `ESC [ ... letter` from the start of rs. It returns the
// number of runes consumed and the decoded command.
func (e *Emulator) readCSI(rs []rune) (int, Command, bool) {
	if len(rs) < 2 || rs[1] != '[' {
		return 0, Command{}, false
	}
	for j := 2; j < len(rs); j++ {
		if isLetter(rs[j]) {
			return j + 1, e.decode(string(rs[:j+1])), true
		}
	}
	return 0, Command{}, false
}

func (e *Emulator) decode(seq string) Command {
	params := seq[2 : len(seq)-1]
	if strings.Trim(params, "0123456789;") != "" {
		return Command{Kind: Unknown}
	}
	e.parser.Reset()
	_, _, _, _ = ansi.DecodeSequence(seq, ansi.NormalState, e.parser)
	cmd := ansi.Cmd(e.parser.Command())
	if cmd.Prefix() != 0 || cmd.Intermediate() != 0 {
		return Command{Kind: Unknown}
	}
	switch cmd.Final() {
	case 'G':
		n, _ := e.parser.Param(0, 1)
		first, _, _ := strings.Cut(params, ";")
		if n < 0 || n > MaxColumn || len(strings.TrimLeft(first, "0")) > 9 {
			n = MaxColumn
		}
		return Command{Kind: CursorColumn, N: n}
	case 'J':
		return Command{Kind: EraseToEndOfScreen}
	}
	return Command{Kind: Unknown}
}

// Apply executes a decoded command against the screen.
func (e *Emulator) Apply(c Command) {
	switch c.Kind {
	case CursorColumn:
		e.col = min(max(c.N-1, 0), MaxColumn-1)
	case EraseToEndOfScreen:
		e.rows = e.rows[:e.row+1]
		if line := e.rows[e.row]; e.col < len(line) {
			e.rows[e.row] = line[:e.col]
		}
	}
}

func (e *Emulator) lineFeed() {
	e.row++
	for len(e.rows) <= e.row {
		e.rows = append(e.rows, []rune{})
	}
}

func (e *Emulator) put(r rune) {
	for len(e.rows) <= e.row {
		e.rows = append(e.rows, []rune{})
	}
	line := e.rows[e.row]
	for len(line) < e.col {
		line = append(line, ' ')
	}
	if e.col < len(line) {
		line[e.col] = r
	} else {
		line = append(line, r)
	}
	e.rows[e.row] = line
	e.col++
}

// String returns the rows joined by newlines with surrounding whitespace
// trimmed.
func (e *Emulator) String() string {
	lines := make([]string, len(e.rows))
	for i, r := range e.rows {
		lines[i] = string(r)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
