package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"replctl/internal/code"
	"replctl/internal/session"
)

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().Bool("autoreload", true, "prepend the reload files to every snippet")
}

const shellHelp = `Enter Swift statements; input continues until brackets balance.
Commands:
  :vars              list recorded variables
  :get NAME          print a variable as JSON (type must be Encodable)
  :reload FILE       add a reload file for this shell
  :reload clear      forget the reload files
  :help              show this help
  :quit              exit`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive line-oriented REPL with interpreted output",
	RunE: func(cmd *cobra.Command, args []string) error {
		autoreload, _ := cmd.Flags().GetBool("autoreload")
		s, err := startSession(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.Close()
		return runShell(cmd, s, session.RunOptions{Autoreload: autoreload, Verbose: true})
	},
}

func runShell(cmd *cobra.Command, s *session.Session, ro session.RunOptions) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 64*1024), 4<<20)
	w := cmd.OutOrStdout()
	var (
		buf []string
		bal code.Balance
	)
	prompt := func() {
		if len(buf) == 0 {
			fmt.Fprint(w, okStyle.Render("swift> "))
		} else {
			fmt.Fprint(w, mutedStyle.Render("  ...> "))
		}
	}
	prompt()
	for in.Scan() {
		line := in.Text()
		if len(buf) == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			quit, err := shellCommand(cmd, s, strings.Fields(strings.TrimSpace(line)))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			prompt()
			continue
		}
		buf = append(buf, line)
		bal = bal.Add(code.LineDelta(line))
		if bal.Paren > 0 || bal.Brace > 0 || bal.Bracket > 0 {
			prompt()
			continue
		}
		src := strings.Join(buf, "\n")
		buf, bal = nil, code.Balance{}
		if strings.TrimSpace(src) != "" {
			if _, err := s.Run(cmd.Context(), src, ro); err != nil {
				var re *session.ReplError
				if !errors.As(err, &re) {
					return err
				}
			}
		}
		prompt()
	}
	fmt.Fprintln(w)
	return in.Err()
}

func shellCommand(cmd *cobra.Command, s *session.Session, f []string) (quit bool, err error) {
	w := cmd.OutOrStdout()
	switch f[0] {
	case ":quit", ":q", ":exit":
		return true, nil
	case ":help", ":h":
		fmt.Fprintln(w, shellHelp)
	case ":vars":
		vars := s.Variables().All()
		if len(vars) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("no variables"))
			return false, nil
		}
		fmt.Fprintln(w, varsTable(vars))
	case ":get":
		if len(f) != 2 {
			return false, errors.New("usage: :get NAME")
		}
		var v any
		if err := s.Variables().Get(cmd.Context(), f[1], &v); err != nil {
			return false, err
		}
		return false, printJSON(w, v)
	case ":reload":
		if len(f) != 2 {
			return false, errors.New("usage: :reload FILE | :reload clear")
		}
		if f[1] == "clear" {
			s.ClearReloadFiles()
			return false, nil
		}
		return false, s.AddReloadFile(f[1])
	default:
		return false, fmt.Errorf("unknown command %s (try :help)", f[0])
	}
	return false, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
