package code

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"replctl/internal/system"
)

func loadGeometry(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/geometry.swift")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func TestExtract_SimpleFunction(t *testing.T) {
	fn, err := FindFunction("translate", loadGeometry(t))
	if err != nil {
		t.Fatalf("FindFunction error: %v", err)
	}
	blocks := Extract(strings.Split(fn.Body, "\n"))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if got := strings.TrimSpace(blocks[0].Text()); got != "return Point(x: x + dx, y: y + dy)" {
		t.Fatalf("unexpected block text: %q", got)
	}
}

func TestExtract_MultilineFunction(t *testing.T) {
	fn, err := FindFunction("nearest", loadGeometry(t))
	if err != nil {
		t.Fatalf("FindFunction error: %v", err)
	}
	blocks := Extract(strings.Split(fn.Body, "\n"))
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %+v", len(blocks), blocks)
	}
	if got := strings.TrimSpace(blocks[0].Text()); got != "var results: [[Point<T>]] = []" {
		t.Fatalf("unexpected first block: %q", got)
	}
	if got := strings.TrimSpace(blocks[1].Lines[0]); got != "for q in query {" {
		t.Fatalf("unexpected loop header: %q", got)
	}
	if blocks[1].StartLine != 2 || blocks[1].EndLine != 16 {
		t.Fatalf("unexpected loop range: %d-%d", blocks[1].StartLine, blocks[1].EndLine)
	}
	if got := strings.TrimSpace(blocks[2].Text()); got != "return results" {
		t.Fatalf("unexpected last block: %q", got)
	}

	if _, err := blocks[0].Split(); !errors.Is(err, ErrNotSplittable) {
		t.Fatalf("expected ErrNotSplittable, got %v", err)
	}
}

func TestExtract_StringWithBrackets(t *testing.T) {
	fn, err := FindFunction("removeBrackets", loadGeometry(t))
	if err != nil {
		t.Fatalf("FindFunction error: %v", err)
	}
	blocks := Extract(strings.Split(fn.Body, "\n"))
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if got := strings.TrimSpace(blocks[0].Text()); got != `let brackets = ["[", "]"]` {
		t.Fatalf("unexpected first block: %q", got)
	}
	if got := strings.TrimSpace(blocks[1].Text()); got != "return text.filter { !brackets.contains(String($0)) }" {
		t.Fatalf("unexpected second block: %q", got)
	}
}

func TestExtract_ReconstructsInput(t *testing.T) {
	lines := strings.Split(loadGeometry(t), "\n")
	var got []string
	for _, b := range Extract(lines) {
		got = append(got, b.Lines...)
	}
	var want []string
	for _, ln := range lines {
		if strings.TrimSpace(ln) != "" {
			want = append(want, ln)
		}
	}
	var kept []string
	for _, ln := range got {
		if strings.TrimSpace(ln) != "" {
			kept = append(kept, ln)
		}
	}
	if diff := cmp.Diff(want, kept); diff != "" {
		t.Fatalf("blocks do not reconstruct input (-want +got):\n%s", diff)
	}
}

func TestExtract_TrailingUnbalanced(t *testing.T) {
	blocks := Extract([]string{"let a = 1", "if a > 0 {", "  print(a)"})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].StartLine != 1 || blocks[1].EndLine != 2 {
		t.Fatalf("unexpected trailing range: %d-%d", blocks[1].StartLine, blocks[1].EndLine)
	}
}

func TestSplit_RebasesChildren(t *testing.T) {
	fn, err := FindFunction("nearest", loadGeometry(t))
	if err != nil {
		t.Fatalf("FindFunction error: %v", err)
	}
	loop := Extract(strings.Split(fn.Body, "\n"))[1]
	if !loop.CanSplit() {
		t.Fatalf("expected loop block to be splittable")
	}
	children, err := loop.Split()
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	type span struct{ Start, End int }
	var got []span
	for _, c := range children {
		got = append(got, span{c.StartLine, c.EndLine})
	}
	want := []span{{3, 3}, {4, 4}, {5, 5}, {6, 10}, {11, 11}, {12, 12}, {13, 15}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected child spans (-want +got):\n%s", diff)
	}
	// children tile the parent minus its first and last line
	if children[0].StartLine != loop.StartLine+1 || children[len(children)-1].EndLine != loop.EndLine-1 {
		t.Fatalf("children do not cover parent interior")
	}
	for i := 1; i < len(children); i++ {
		if children[i].StartLine != children[i-1].EndLine+1 {
			t.Fatalf("gap between child %d and %d", i-1, i)
		}
	}

	if !children[2].IsCommentBlock() || children[2].CanSplit() {
		t.Fatalf("expected comment block to be unsplittable")
	}
	if !children[6].IsFunctionCallBlock() || children[6].CanSplit() {
		t.Fatalf("expected call block to be unsplittable")
	}

	inner, err := children[3].Split()
	if err != nil {
		t.Fatalf("nested Split error: %v", err)
	}
	if len(inner) != 3 || inner[0].StartLine != 7 || inner[2].EndLine != 9 {
		t.Fatalf("unexpected nested split: %+v", inner)
	}
	if got := strings.TrimSpace(inner[1].Text()); got != "let dy = q.y - p.y" {
		t.Fatalf("unexpected nested block: %q", got)
	}
}

func TestCanSplit_IfElse(t *testing.T) {
	fn, err := FindFunction("classify", loadGeometry(t))
	if err != nil {
		t.Fatalf("FindFunction error: %v", err)
	}
	blocks := Extract(strings.Split(fn.Body, "\n"))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if !blocks[0].IsIfElseBlock() {
		t.Fatalf("expected if/else block")
	}
	if blocks[0].CanSplit() {
		t.Fatalf("if/else block must not be splittable")
	}

	plain := Extract([]string{"if ok {", "  run()", "}"})[0]
	if plain.IsIfElseBlock() || !plain.CanSplit() {
		t.Fatalf("if without else should split")
	}
}

func TestSplit_IfElseWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	system.Logger.SetOutput(&buf)
	defer system.Logger.SetOutput(os.Stderr)

	b := Extract([]string{"if ok {", "  a()", "} else {", "  b()", "}"})[0]
	for i := 0; i < 3; i++ {
		if b.CanSplit() {
			t.Fatalf("if/else block must not be splittable")
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("CanSplit should not log: %q", buf.String())
	}
	if _, err := b.Split(); !errors.Is(err, ErrNotSplittable) {
		t.Fatalf("expected ErrNotSplittable, got %v", err)
	}
	if got := strings.Count(buf.String(), "if/else blocks are not split"); got != 1 {
		t.Fatalf("expected one warning, got %d: %q", got, buf.String())
	}

	buf.Reset()
	if _, err := Extract([]string{"// note", "// more"})[0].Split(); !errors.Is(err, ErrNotSplittable) {
		t.Fatalf("expected ErrNotSplittable for comments, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("only if/else refusals warn: %q", buf.String())
	}
}

func TestIsFunctionCallBlock_Loops(t *testing.T) {
	b := Block{Lines: []string{"while(i < 3) {", "  i += 1", "}"}}
	if b.IsFunctionCallBlock() {
		t.Fatalf("while header is not a call")
	}
	b = Block{Lines: []string{"  print(", `    "x"`, "  )"}}
	if !b.IsFunctionCallBlock() {
		t.Fatalf("expected call block")
	}
}
