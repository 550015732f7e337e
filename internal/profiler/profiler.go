// Package profiler rewrites a Swift function so that running it prints a
// line-by-line timing report, and reads that report back.
package profiler

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"replctl/internal/code"
)

// MaxDepth bounds how deep nested statements are instrumented. Deeper
// blocks are timed as a whole.
const MaxDepth = 64

const resultVar = "__profiler_result"

var (
	// ErrEmptyBody is returned for functions without statements.
	ErrEmptyBody = errors.New("function body is empty")
	// ErrSingleLine is returned for functions whose body shares a line
	// with the header or the closing brace.
	ErrSingleLine = errors.New("single-line functions cannot be profiled; put the body on its own lines")
)

var (
	returnRe   = regexp.MustCompile(`^return\b`)
	compoundRe = regexp.MustCompile(`^(for|while|repeat|guard|if)\b`)
	escaper    = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

type instrumenter struct {
	fn       code.Function
	source   []string
	out      []string
	contents map[int]string
}

// InstrumentSource locates the function name in source and instruments it.
func InstrumentSource(name, source string) (string, error) {
	fn, err := code.FindFunction(name, source)
	if err != nil {
		return "", err
	}
	return Instrument(fn)
}

// Instrument returns the function source with timing around every statement
// block of its body, followed by a report printed before the function
// returns. Report line numbers are 1-based lines of the original file.
func Instrument(fn code.Function) (string, error) {
	if fn.CodeEndLine == fn.HeaderEndLine {
		return "", fmt.Errorf("%w: %s", ErrSingleLine, fn.Name)
	}
	body := code.MakeBodyReturnVar(fn.Body, resultVar)
	lines := strings.Split(body, "\n")
	blocks := code.Extract(lines)
	if len(blocks) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyBody, fn.Name)
	}

	// the final return runs after the report
	var tail []string
	if last := lastStatement(blocks); last >= 0 && returnRe.MatchString(strings.TrimSpace(blocks[last].Lines[0])) {
		tail = blocks[last].Lines
		blocks = blocks[:last]
	}

	ins := &instrumenter{
		fn:       fn,
		source:   fn.BodyLines(),
		contents: map[int]string{},
	}
	indent := code.Indent(firstLine(blocks, tail))
	ins.emit(indent, "var __line_times = [Int: UInt64]()")
	ins.emit(indent, "var __line_hits = [Int: Int]()")
	ins.emit(indent, "let __start_time_func = DispatchTime.now().uptimeNanoseconds")
	for _, b := range blocks {
		ins.block(b, 0)
	}
	ins.emit(indent, "let __end_time_func = DispatchTime.now().uptimeNanoseconds")
	ins.report(indent)
	ins.out = append(ins.out, tail...)

	header := strings.Split(fn.Header, "\n")
	res := make([]string, 0, len(header)+len(ins.out)+1)
	res = append(res, header...)
	res = append(res, ins.out...)
	res = append(res, code.Indent(header[0])+"}")
	return strings.Join(res, "\n"), nil
}

func lastStatement(blocks []code.Block) int {
	for i := len(blocks) - 1; i >= 0; i-- {
		if !blocks[i].IsCommentBlock() {
			return i
		}
	}
	return -1
}

// firstLine returns the line that sets the body indentation.
func firstLine(blocks []code.Block, tail []string) string {
	if len(blocks) > 0 {
		return blocks[0].Lines[0]
	}
	return tail[0]
}

func (ins *instrumenter) emit(indent, line string) {
	ins.out = append(ins.out, indent+line)
}

// lineNo maps a body-relative index to a 1-based file line.
func (ins *instrumenter) lineNo(rel int) int {
	return ins.fn.BodyStartLine + rel + 1
}

func (ins *instrumenter) record(rel int, fallback string) {
	text := fallback
	if rel >= 0 && rel < len(ins.source) {
		text = ins.source[rel]
	}
	ins.contents[ins.lineNo(rel)] = escaper.Replace(strings.TrimRight(text, " \t"))
}

func (ins *instrumenter) block(b code.Block, depth int) {
	if strings.TrimSpace(b.Text()) == "" || b.IsCommentBlock() {
		ins.out = append(ins.out, b.Lines...)
		return
	}
	n := ins.lineNo(b.StartLine)
	indent := code.Indent(b.Lines[0])
	start := fmt.Sprintf("__start_time_%d", n)
	end := fmt.Sprintf("__end_time_%d", n)

	ins.emit(indent, "let "+start+" = DispatchTime.now().uptimeNanoseconds")
	if depth < MaxDepth && compound(b) {
		children, err := b.Split()
		if err == nil {
			ins.out = append(ins.out, b.Lines[0])
			ins.record(b.StartLine, b.Lines[0])
			for _, c := range children {
				ins.block(c, depth+1)
			}
			ins.out = append(ins.out, b.Lines[len(b.Lines)-1])
			ins.record(b.EndLine, b.Lines[len(b.Lines)-1])
			ins.stamp(indent, n, start, end)
			return
		}
	}
	for i, ln := range b.Lines {
		ins.out = append(ins.out, ln)
		ins.record(b.StartLine+i, ln)
	}
	ins.stamp(indent, n, start, end)
}

func (ins *instrumenter) stamp(indent string, n int, start, end string) {
	ins.emit(indent, "let "+end+" = DispatchTime.now().uptimeNanoseconds")
	ins.emit(indent, fmt.Sprintf("__line_times[%d] = (__line_times[%d] ?? 0) + (%s - %s)", n, n, end, start))
	ins.emit(indent, fmt.Sprintf("__line_hits[%d] = (__line_hits[%d] ?? 0) + 1", n, n))
}

// compound reports whether b is a control statement whose braces can take
// timing statements of their own.
func compound(b code.Block) bool {
	if len(b.Lines) < 3 {
		return false
	}
	first := strings.TrimSpace(b.Lines[0])
	last := strings.TrimSpace(b.Lines[len(b.Lines)-1])
	return strings.HasSuffix(first, "{") && strings.HasPrefix(last, "}") && compoundRe.MatchString(first)
}

func (ins *instrumenter) report(indent string) {
	ins.emit(indent, `print("Timer unit: 1 ns")`)
	ins.emit(indent, "let __total_time = __end_time_func - __start_time_func")
	ins.emit(indent, `print(String(format: "\nTotal time: %.3f s", Double(__total_time)/1_000_000_000))`)
	ins.emit(indent, fmt.Sprintf(`print("Function: %s at line %d")`, ins.fn.Name, ins.fn.HeaderStartLine+1))
	ins.emit(indent, `print("")`)
	ins.emit(indent, `print("`+Header+`")`)
	ins.emit(indent, `print("`+strings.Repeat("=", len(Header))+`")`)
	keys := make([]int, 0, len(ins.contents))
	for k := range ins.contents {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) == 0 {
		ins.emit(indent, "let __line_contents: [Int: String] = [:]")
	} else {
		ins.emit(indent, "let __line_contents: [Int: String] = [")
		for _, k := range keys {
			ins.emit(indent, fmt.Sprintf(`    %d: "%s",`, k, ins.contents[k]))
		}
		ins.emit(indent, "]")
	}
	ins.emit(indent, "for line in __line_times.keys.sorted() {")
	ins.emit(indent, "    let hits = __line_hits[line] ?? 0")
	ins.emit(indent, "    let time = __line_times[line] ?? 0")
	ins.emit(indent, "    let per_hit = hits > 0 ? Double(time) / Double(hits) : 0")
	ins.emit(indent, "    let percent_time = __total_time > 0 ? (Double(time) / Double(__total_time)) * 100 : 0")
	ins.emit(indent, `    let contents = __line_contents[line] ?? ""`)
	ins.emit(indent, `    print(String(format: "%6d %10d %12.6f %9.6f %8.1f%%  %@", line, hits, Double(time)/1_000_000_000, per_hit/1_000_000_000, percent_time, contents))`)
	ins.emit(indent, "}")
}
