package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"replctl/internal/config"
	"replctl/internal/session"
	"replctl/internal/store"
)

// readInput returns the content of the file named by the first argument,
// or stdin when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// snippet resolves --run / --run-file.
func snippet(cmd *cobra.Command) (string, error) {
	code, _ := cmd.Flags().GetString("run")
	file, _ := cmd.Flags().GetString("run-file")
	switch {
	case code != "" && file != "":
		return "", fmt.Errorf("use either --run or --run-file")
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return code, nil
}

func sessionOptions(c config.Config, stdout io.Writer) session.Options {
	return session.Options{
		Command:     c.Swift.Command,
		PackageDir:  c.Swift.PackageDir,
		Cols:        c.REPL.Cols,
		Rows:        c.REPL.Rows,
		ReadTimeout: c.REPL.ReadTimeout,
		BatchSize:   c.REPL.BatchSize,
		Render:      c.Output,
		Stdout:      stdout,
	}
}

// startSession starts a REPL and registers the persisted reload files.
func startSession(ctx context.Context, stdout io.Writer) (*session.Session, error) {
	s, err := session.New(ctx, sessionOptions(conf, stdout))
	if err != nil {
		return nil, err
	}
	files, err := reloadList().Load()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	for _, f := range files {
		if err := s.AddReloadFile(f); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func reloadList() store.ReloadList {
	p, err := config.ReloadListPath()
	if err != nil {
		p = "reload.json"
	}
	return store.ReloadList{Path: p}
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
