package code

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFunctionNotFound is returned when a function declaration cannot be
// located or its braces never balance.
var ErrFunctionNotFound = errors.New("function not found")

var (
	returnRe    = regexp.MustCompile(`^return\b`)
	statementRe = regexp.MustCompile(`^(\}|(for|while|if|guard|switch|let|var|do|repeat|defer|throw|func|struct|class|enum|import)\b)`)
	assignRe    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\[\]]*\s*[-+*/%]?=[^=]`)
)

// Function is a located function declaration. All line numbers are 0-based
// indices into the source the function was found in.
type Function struct {
	Name   string
	Header string
	Body   string

	HeaderStartLine int
	HeaderEndLine   int
	BodyStartLine   int
	BodyEndLine     int
	CodeStartLine   int
	CodeEndLine     int
}

// NumLines returns the number of lines spanned by the whole declaration.
func (f Function) NumLines() int {
	return f.CodeEndLine - f.CodeStartLine + 1
}

// BodyLines returns the body split into lines; an empty body yields nil.
func (f Function) BodyLines() []string {
	if f.BodyEndLine < f.BodyStartLine {
		return nil
	}
	return strings.Split(f.Body, "\n")
}

// FindFunction locates the first declaration of the function called name.
// The header runs from the line holding `func name` up to the line with the
// opening brace; the body ends where the brace count returns to zero.
func FindFunction(name, source string) (Function, error) {
	re := regexp.MustCompile(`\bfunc\s+` + regexp.QuoteMeta(name) + `\s*[<(]`)
	lines := strings.Split(source, "\n")
	for i, ln := range lines {
		if !re.MatchString(StripStrings(ln)) {
			continue
		}
		loc := re.FindStringIndex(ln)
		if loc == nil {
			continue
		}
		if fn, ok := locate(name, lines, i, loc[0]); ok {
			return fn, nil
		}
		break
	}
	return Function{}, fmt.Errorf("%w: %q (is it declared, and are there unmatched brackets inside comments or strings?)",
		ErrFunctionNotFound, name)
}

func locate(name string, lines []string, start, col int) (Function, bool) {
	headerEnd := -1
	depth := 0
	for j := start; j < len(lines); j++ {
		seg := lines[j]
		if j == start {
			seg = seg[col:]
		}
		if headerEnd < 0 {
			if !strings.Contains(StripStrings(seg), "{") {
				continue
			}
			headerEnd = j
		}
		depth += LineDelta(seg).Brace
		if depth < 0 {
			return Function{}, false
		}
		if depth == 0 {
			fn := Function{
				Name:            name,
				Header:          strings.Join(lines[start:headerEnd+1], "\n"),
				HeaderStartLine: start,
				HeaderEndLine:   headerEnd,
				BodyStartLine:   headerEnd + 1,
				BodyEndLine:     j - 1,
				CodeStartLine:   start,
				CodeEndLine:     j,
			}
			if j > headerEnd+1 {
				fn.Body = strings.Join(lines[headerEnd+1:j], "\n")
			}
			return fn, true
		}
	}
	return Function{}, false
}

// MakeBodyReturnVar makes sure the final statement of body is a return. An
// expression tail is bound to varName and returned. Bodies ending in a
// return, an assignment, or a keyword statement come back unchanged.
func MakeBodyReturnVar(body, varName string) string {
	lines := strings.Split(body, "\n")
	blocks := Extract(lines)
	var last *Block
	for k := len(blocks) - 1; k >= 0; k-- {
		if !blocks[k].IsCommentBlock() {
			last = &blocks[k]
			break
		}
	}
	if last == nil {
		return body
	}
	first := strings.TrimSpace(last.Lines[0])
	if returnRe.MatchString(first) || statementRe.MatchString(first) || assignRe.MatchString(first) {
		return body
	}
	indent := Indent(last.Lines[0])
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:last.StartLine]...)
	out = append(out, indent+"let "+varName+" = "+first)
	out = append(out, last.Lines[1:]...)
	out = append(out, indent+"return "+varName)
	out = append(out, lines[last.EndLine+1:]...)
	return strings.Join(out, "\n")
}

// Indent returns the leading whitespace of line.
func Indent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
