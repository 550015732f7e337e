package code

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"replctl/internal/system"
)

// ErrNotSplittable is returned by Block.Split when CanSplit is false.
var ErrNotSplittable = errors.New("block cannot be split")

var (
	callRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*\s*\(`)
	loopRe = regexp.MustCompile(`^(for|while)\b`)
	ifRe   = regexp.MustCompile(`^if\b`)
	elseRe = regexp.MustCompile(`^(\}\s*)?else\b`)
)

// Block is a grouping-balanced span of source lines. StartLine and EndLine
// are 0-based and inclusive, relative to the top-level input of Extract.
type Block struct {
	Lines     []string
	StartLine int
	EndLine   int
}

// Text joins the block lines with newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Len returns the number of lines in the block.
func (b Block) Len() int {
	return len(b.Lines)
}

func (b Block) firstLine() string {
	if len(b.Lines) == 0 {
		return ""
	}
	return strings.TrimSpace(b.Lines[0])
}

// IsCommentBlock reports whether every line is a `//` comment.
func (b Block) IsCommentBlock() bool {
	if len(b.Lines) == 0 {
		return false
	}
	for _, ln := range b.Lines {
		if !strings.HasPrefix(strings.TrimSpace(ln), "//") {
			return false
		}
	}
	return true
}

// IsFunctionCallBlock reports whether the block starts like a call
// expression, e.g. `results.append(Result(` spread over several lines.
func (b Block) IsFunctionCallBlock() bool {
	first := b.firstLine()
	return callRe.MatchString(first) && !loopRe.MatchString(first)
}

// IsIfElseBlock reports whether the block is an if statement with an else
// branch. Such blocks are kept whole.
func (b Block) IsIfElseBlock() bool {
	if !ifRe.MatchString(b.firstLine()) {
		return false
	}
	for _, ln := range b.Lines[1:] {
		if elseRe.MatchString(strings.TrimSpace(ln)) {
			return true
		}
	}
	return false
}

// CanSplit reports whether Split may be called on the block.
func (b Block) CanSplit() bool {
	if len(b.Lines) <= 1 || b.IsCommentBlock() || b.IsFunctionCallBlock() {
		return false
	}
	return !b.IsIfElseBlock()
}

// Split segments the lines between the block's first and last line. The
// returned blocks keep their indices relative to the top-level input.
// Refusing an if/else block logs a warning, since its branches are then
// handled as one unit.
func (b Block) Split() ([]Block, error) {
	if !b.CanSplit() {
		if len(b.Lines) > 1 && b.IsIfElseBlock() {
			system.Logger.Warn("if/else blocks are not split, handling the whole block",
				"line", b.StartLine+1, "header", b.firstLine())
		}
		return nil, fmt.Errorf("%w: lines %d-%d", ErrNotSplittable, b.StartLine, b.EndLine)
	}
	inner := segment(b.Lines[1:len(b.Lines)-1], false)
	for i := range inner {
		inner[i].StartLine += b.StartLine + 1
		inner[i].EndLine += b.StartLine + 1
	}
	return inner, nil
}

// Extract splits lines into minimal grouping-balanced statement blocks.
// A trailing unbalanced block is returned as is. Blocks that contain only
// whitespace are dropped.
func Extract(lines []string) []Block {
	return segment(lines, true)
}

func segment(lines []string, dropBlank bool) []Block {
	var (
		blocks []Block
		total  Balance
		start  int
	)
	emit := func(end int) {
		blk := Block{
			Lines:     append([]string(nil), lines[start:end+1]...),
			StartLine: start,
			EndLine:   end,
		}
		if dropBlank && strings.TrimSpace(blk.Text()) == "" {
			return
		}
		blocks = append(blocks, blk)
	}
	for i, ln := range lines {
		total = total.Add(LineDelta(ln))
		if total.Zero() {
			emit(i)
			start = i + 1
		}
	}
	if start < len(lines) {
		emit(len(lines) - 1)
	}
	return blocks
}
