package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"replctl/internal/output"
	tu "replctl/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// script answers like the REPL: echo, reply, then a fresh prompt.
func script(reply func(in string) string) func(string) string {
	n := 1
	return func(in string) string {
		if in == ":quit\n" {
			return ""
		}
		r := reply(in)
		if r == "\x00" {
			return ""
		}
		n++
		return tu.Echo(in, n) + r + tu.Prompt(n)
	}
}

func newTestSession(t *testing.T, o Options, reply func(in string) string) (*Session, *tu.FakeREPL) {
	t.Helper()
	fake := tu.NewFakeREPL(script(reply))
	o.ReadTimeout = 10 * time.Millisecond
	s, err := NewWithProcess(context.Background(), fake, o)
	if err != nil {
		t.Fatalf("NewWithProcess error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, fake
}

func noReply(string) string { return "" }

func TestRun_Variables(t *testing.T) {
	var stdout bytes.Buffer
	s, fake := newTestSession(t, Options{Stdout: &stdout, Render: output.RenderOptions{HideInputs: true}}, func(in string) string {
		switch {
		case strings.HasPrefix(in, "var point"):
			return "point: Point<Float> = {\r\n  x = 1\r\n  y = 2\r\n}\r\n"
		case strings.HasPrefix(in, "1 + 1"):
			return "$R0: Int = 2\r\n"
		}
		return ""
	})
	if inputs := fake.Inputs(); len(inputs) != 1 || !strings.Contains(inputs[0], "func _serializeObject") {
		t.Fatalf("expected init commands to be sent first, got %q", inputs)
	}

	res, err := s.Run(context.Background(), "var point = Point<Float>(x: 1, y: 2)", RunOptions{Verbose: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := output.Binding{Name: "point", Type: "Point<Float>", Value: "{\n  x = 1\n  y = 2\n}"}
	if diff := cmp.Diff(want, res.Variables["point"]); diff != "" {
		t.Fatalf("binding mismatch (-want +got):\n%s", diff)
	}
	if got, ok := s.Variables().Lookup("point"); !ok || got != want {
		t.Fatalf("registry not updated: %+v", got)
	}
	if !strings.HasPrefix(stdout.String(), "point: Point<Float> = {") {
		t.Fatalf("unexpected verbose output: %q", stdout.String())
	}
	if s.Output() != res.Output {
		t.Fatalf("Output should return the last cleaned output")
	}

	res, err = s.Run(context.Background(), "1 + 1", RunOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if _, ok := res.Variables["$R0"]; !ok {
		t.Fatalf("result slot should be reported")
	}
	if diff := cmp.Diff([]string{"point"}, s.Variables().Names()); diff != "" {
		t.Fatalf("result slots must not be registered (-want +got):\n%s", diff)
	}
}

func TestRun_Error(t *testing.T) {
	s, _ := newTestSession(t, Options{}, func(in string) string {
		if strings.HasPrefix(in, "foo()") {
			return "error: repl.swift:3:1: cannot find 'foo' in scope\r\nfoo()\r\n^~~\r\n"
		}
		return ""
	})
	_, err := s.Run(context.Background(), "foo()", RunOptions{})
	var re *ReplError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReplError, got %v", err)
	}
	if re.Line != "error: repl.swift:3:1: cannot find 'foo' in scope" {
		t.Fatalf("unexpected error line: %q", re.Line)
	}
}

func TestRun_Crash(t *testing.T) {
	var fake *tu.FakeREPL
	fake = tu.NewFakeREPL(script(func(in string) string {
		if strings.HasPrefix(in, "await") {
			fake.Crash()
			return "\x00"
		}
		return ""
	}))
	s, err := NewWithProcess(context.Background(), fake, Options{ReadTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWithProcess error: %v", err)
	}
	defer s.Close()
	if _, err := s.Run(context.Background(), "await work()", RunOptions{}); !errors.Is(err, ErrCrashed) {
		t.Fatalf("expected ErrCrashed, got %v", err)
	}
}

func TestRun_Batches(t *testing.T) {
	s, fake := newTestSession(t, Options{BatchSize: 2}, noReply)
	before := len(fake.Inputs())
	if before != len(BatchPrompt(InitCommands, 2)) {
		t.Fatalf("init commands sent in %d batches", before)
	}
	prompt := "let a = 1\n// skipped\n\nlet b = 2\nfor i in 0..<3 {\n    print(i)\n}"
	if _, err := s.Run(context.Background(), prompt, RunOptions{}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	got := fake.Inputs()[before:]
	want := []string{"let a = 1\nlet b = 2\n", "for i in 0..<3 {\n    print(i)\n}\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected batches (-want +got):\n%s", diff)
	}
}

func TestRun_InterruptedRunOutputDiscarded(t *testing.T) {
	s, _ := newTestSession(t, Options{}, func(in string) string {
		switch {
		case strings.HasPrefix(in, "slow()"):
			time.Sleep(150 * time.Millisecond)
			return "slowResult: Int = 1\r\nerror: repl.swift:3:1: late failure\r\n"
		case strings.HasPrefix(in, "let b"):
			return "b: Int = 2\r\n"
		}
		return ""
	})
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if _, err := s.Run(ctx, "slow()", RunOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	res, err := s.Run(context.Background(), "let b = 2", RunOptions{})
	if err != nil {
		t.Fatalf("Run after interrupted run: %v", err)
	}
	if strings.Contains(res.Output, "slow") || strings.Contains(res.Output, "late failure") {
		t.Fatalf("output of the interrupted run leaked: %q", res.Output)
	}
	want := map[string]output.Binding{"b": {Name: "b", Type: "Int", Value: "2"}}
	if diff := cmp.Diff(want, res.Variables); diff != "" {
		t.Fatalf("variables (-want +got):\n%s", diff)
	}
	if _, ok := s.Variables().Lookup("slowResult"); ok {
		t.Fatalf("binding of the interrupted run was registered")
	}
}

func TestRun_InterruptedRunNeverSettles(t *testing.T) {
	s, _ := newTestSession(t, Options{ResyncTimeout: 50 * time.Millisecond}, func(in string) string {
		if strings.HasPrefix(in, "hang()") {
			return "\x00"
		}
		return ""
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := s.Run(ctx, "hang()", RunOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if _, err := s.Run(context.Background(), "let c = 3", RunOptions{}); !errors.Is(err, ErrOutOfSync) {
		t.Fatalf("expected ErrOutOfSync, got %v", err)
	}
}

func TestRun_Autoreload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.swift")
	if err := os.WriteFile(src, []byte("struct A {}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, fake := newTestSession(t, Options{}, noReply)
	if err := s.AddReloadFile(filepath.Join(dir, "missing.swift")); err == nil {
		t.Fatalf("expected error for missing reload file")
	}
	if err := s.AddReloadFile(src); err != nil {
		t.Fatalf("AddReloadFile error: %v", err)
	}
	_ = s.AddReloadFile(src)
	if diff := cmp.Diff([]string{src}, s.ReloadFiles()); diff != "" {
		t.Fatalf("reload files (-want +got):\n%s", diff)
	}

	res, err := s.Run(context.Background(), "let a = A()", RunOptions{Autoreload: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	inputs := fake.Inputs()
	if want := "struct A {}\n" + output.EndOfInclude + "\nlet a = A()\n"; inputs[len(inputs)-1] != want {
		t.Fatalf("unexpected prompt: %q", inputs[len(inputs)-1])
	}
	if strings.Contains(res.Rendered, "struct A") {
		t.Fatalf("reload echo must not be rendered: %q", res.Rendered)
	}

	s.ClearReloadFiles()
	if _, err := s.Run(context.Background(), "let b = 1", RunOptions{Autoreload: true}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	inputs = fake.Inputs()
	if inputs[len(inputs)-1] != "let b = 1\n" {
		t.Fatalf("cleared reload files still sent: %q", inputs[len(inputs)-1])
	}
}

var pathRe = regexp.MustCompile(`"([^"]+\.json)"`)

func TestVariables_GetSet(t *testing.T) {
	s, _ := newTestSession(t, Options{}, func(in string) string {
		switch {
		case strings.Contains(in, "_serializeObject(point"):
			m := pathRe.FindStringSubmatch(in)
			_ = os.WriteFile(m[1], []byte(`{"x": 1, "y": 2}`), 0o600)
		case strings.Contains(in, "var items"):
			return "items: [Int] = 2 values {\r\n  [0] = 1\r\n  [1] = 2\r\n}\r\n"
		}
		return ""
	})

	var got map[string]float64
	if err := s.Variables().Get(context.Background(), "point", &got); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"x": 1, "y": 2}, got); diff != "" {
		t.Fatalf("decoded value mismatch (-want +got):\n%s", diff)
	}

	if err := s.Variables().Set(context.Background(), "items", "[Int]", []int{1, 2}); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if b, ok := s.Variables().Lookup("items"); !ok || b.Type != "[Int]" || !strings.HasPrefix(b.Value, "2 values {") {
		t.Fatalf("unexpected binding after set: %+v", b)
	}
	if err := s.Variables().Set(context.Background(), "quiet", "String", "hi"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if b, _ := s.Variables().Lookup("quiet"); b.Value != `"hi"` {
		t.Fatalf("expected JSON value for silent set, got %+v", b)
	}

	if err := s.Variables().Set(context.Background(), "bad name", "Int", 1); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestSwiftString(t *testing.T) {
	cases := map[string]string{
		"/tmp/a.json":           `"/tmp/a.json"`,
		"/tmp/données/é.json":   `"/tmp/données/é.json"`,
		`C:\tmp\"q".json`:       `"C:\\tmp\\\"q\".json"`,
		"/tmp/line\nbreak.json": `"/tmp/line\nbreak.json"`,
	}
	for in, want := range cases {
		if got := swiftString(in); got != want {
			t.Fatalf("swiftString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestVariables_GetNonASCIITempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "données")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("TMPDIR", dir)
	var sent string
	s, _ := newTestSession(t, Options{}, func(in string) string {
		if strings.Contains(in, "_serializeObject(name") {
			sent = in
			m := pathRe.FindStringSubmatch(in)
			_ = os.WriteFile(m[1], []byte(`"ok"`), 0o600)
		}
		return ""
	})
	var got string
	if err := s.Variables().Get(context.Background(), "name", &got); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected value: %q", got)
	}
	if !strings.Contains(sent, "données") || strings.Contains(sent, `\u`) || strings.Contains(sent, `\x`) {
		t.Fatalf("path not written as a Swift literal: %q", sent)
	}
}

func TestLineProfile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "work.swift")
	code := "func work() -> Int {\n    let a = 1\n    return a\n}\n"
	if err := os.WriteFile(src, []byte(code), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, fake := newTestSession(t, Options{}, func(in string) string {
		if strings.Contains(in, "__line_times") {
			return "Timer unit: 1 ns\r\n\r\nTotal time: 0.001 s\r\nFunction: work at line 1\r\n\r\n" +
				"Line #      Hits         Time   Per Hit   % Time  Line Contents\r\n" +
				"===============================================================\r\n" +
				"     2          1     0.000500  0.000500     50.0%      let a = 1\r\n" +
				"$R0: Int = 1\r\n"
		}
		return ""
	})
	_, rep, err := s.LineProfile(context.Background(), "work()", "work", src, RunOptions{})
	if err != nil {
		t.Fatalf("LineProfile error: %v", err)
	}
	if rep.Function != "work" || len(rep.Lines) != 1 || rep.Lines[0].Line != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	inputs := fake.Inputs()
	if last := inputs[len(inputs)-1]; !strings.HasPrefix(last, "func work() -> Int {") || !strings.HasSuffix(last, "work()\n") {
		t.Fatalf("unexpected profile prompt: %q", last)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	s, _ := newTestSession(t, Options{}, func(in string) string {
		if strings.HasPrefix(in, "sleep") {
			return "\x00"
		}
		return ""
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Run(ctx, "sleep()", RunOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestClose(t *testing.T) {
	s, fake := newTestSession(t, Options{}, noReply)
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	if _, err := s.Run(context.Background(), "let a = 1", RunOptions{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	inputs := fake.Inputs()
	if inputs[len(inputs)-1] != ":quit\n" {
		t.Fatalf("expected :quit to be sent, got %q", inputs[len(inputs)-1])
	}
}

func TestBatchPrompt(t *testing.T) {
	if diff := cmp.Diff([]string{"let x = 1"}, BatchPrompt("let x = 1", 0)); diff != "" {
		t.Fatalf("single line (-want +got):\n%s", diff)
	}
	prompt := "\nlet x = 1\n// comment\n\nlet y = 2\n"
	if diff := cmp.Diff([]string{"let x = 1\nlet y = 2"}, BatchPrompt(prompt, 100)); diff != "" {
		t.Fatalf("default size (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"let x = 1", "let y = 2"}, BatchPrompt(prompt, 1)); diff != "" {
		t.Fatalf("size 1 (-want +got):\n%s", diff)
	}
	// statements are never cut and the sentinel survives comment removal
	prompt = "struct A {\n    let v = 1\n}\n" + output.EndOfInclude + "\nlet a = A()"
	want := []string{"struct A {\n    let v = 1\n}", output.EndOfInclude + "\nlet a = A()"}
	if diff := cmp.Diff(want, BatchPrompt(prompt, 2)); diff != "" {
		t.Fatalf("balanced batches (-want +got):\n%s", diff)
	}
}
