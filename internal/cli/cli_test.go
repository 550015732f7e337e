package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"replctl/internal/output"
	"replctl/internal/system"
	tu "replctl/internal/testutil"
	appver "replctl/internal/version"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	tu.ConfigDir(t)
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestClean(t *testing.T) {
	out, err := execute(t, "abc\x1b[1GX\r\nnext", "clean")
	if err != nil {
		t.Fatalf("clean error: %v", err)
	}
	if out != "Xbc\nnext\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	raw := " 3. let i = 1\r\ni: Int = 1\r\n 4> "
	out, err = execute(t, raw, "clean", "--render")
	if err != nil {
		t.Fatalf("clean --render error: %v", err)
	}
	if out != "i: Int = 1\n" {
		t.Fatalf("unexpected rendered output: %q", out)
	}
}

func TestErrors(t *testing.T) {
	out, err := execute(t, "ok\r\nerror: repl.swift:2:1: boom\r\n", "errors")
	if !errors.Is(err, errReplOutput) {
		t.Fatalf("expected errReplOutput, got %v", err)
	}
	if out != "error: repl.swift:2:1: boom\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := execute(t, "all good", "errors"); err != nil {
		t.Fatalf("clean output should pass: %v", err)
	}
}

func TestVars(t *testing.T) {
	raw := "p: Point = {\r\n  x = 1\r\n}\r\n$R0: Int = 2\r\nn: Int = 3\r\n"
	out, err := execute(t, raw, "vars", "--json")
	if err != nil {
		t.Fatalf("vars error: %v", err)
	}
	var got []output.Binding
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := []output.Binding{
		{Name: "n", Type: "Int", Value: "3"},
		{Name: "p", Type: "Point", Value: "{\n  x = 1\n}"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("vars (-want +got):\n%s", diff)
	}

	out, err = execute(t, raw, "vars", "--slots")
	if err != nil {
		t.Fatalf("vars error: %v", err)
	}
	for _, s := range []string{"Name", "$R0", "Point"} {
		if !strings.Contains(out, s) {
			t.Fatalf("table missing %q:\n%s", s, out)
		}
	}
}

func TestBlocks(t *testing.T) {
	src := "let a = 1\nfor i in 0..<2 {\n    print(i)\n    print(a)\n}\n"
	out, err := execute(t, src, "blocks", "--json", "--split")
	if err != nil {
		t.Fatalf("blocks error: %v", err)
	}
	var got []blockOut
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := []blockOut{
		{Start: 1, End: 1, Text: "let a = 1"},
		{Start: 2, End: 5, Text: "for i in 0..<2 {\n    print(i)\n    print(a)\n}", Inner: []blockOut{
			{Start: 3, End: 3, Text: "    print(i)"},
			{Start: 4, End: 4, Text: "    print(a)"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("blocks (-want +got):\n%s", diff)
	}
}

func TestFunc(t *testing.T) {
	src := filepath.Join("..", "code", "testdata", "geometry.swift")
	out, err := execute(t, "", "func", "nearest", src)
	if err != nil {
		t.Fatalf("func error: %v", err)
	}
	if !strings.Contains(out, "func nearest<T: FloatingPoint>") || !strings.Contains(out, "return results") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "", "func", "nearest", src, "--instrument")
	if err != nil {
		t.Fatalf("func --instrument error: %v", err)
	}
	if !strings.Contains(out, "__line_times") {
		t.Fatalf("expected instrumented source:\n%s", out)
	}

	if _, err := execute(t, "", "func", "missing", src); err == nil {
		t.Fatalf("expected error for unknown function")
	}
}

func TestReloadCommands(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.swift")
	if err := os.WriteFile(src, []byte("struct A {}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dir := tu.ConfigDir(t)
	run := func(args ...string) string {
		t.Helper()
		resetFlags(rootCmd)
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if out := run("reload", "add", src); !strings.Contains(out, src) {
		t.Fatalf("add output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "reload.json")); err != nil {
		t.Fatalf("reload list not persisted: %v", err)
	}
	if out := run("reload", "ls"); out != src+"\n" {
		t.Fatalf("ls output: %q", out)
	}
	run("reload", "rm", src)
	if out := run("reload", "ls"); !strings.Contains(out, "no reload files") {
		t.Fatalf("ls after rm: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Cleanup(func() { _ = system.SetLevel("info") })
	out, err := execute(t, "", "config", "schema")
	if err != nil {
		t.Fatalf("config schema error: %v", err)
	}
	if !strings.Contains(out, `"replctl config"`) {
		t.Fatalf("unexpected schema:\n%s", out)
	}

	out, err = execute(t, "", "config", "show", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(out, "level: debug") || !strings.Contains(out, "batch_size: 100") {
		t.Fatalf("unexpected config:\n%s", out)
	}

	if _, err := execute(t, "", "version", "--log-level", "loud"); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if out != appver.AppVersion+"\n" {
		t.Fatalf("unexpected version output: %q", out)
	}
}
