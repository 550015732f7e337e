package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"replctl/internal/session"
	"replctl/internal/system"
	"replctl/internal/watch"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("run", "r", "", "Swift code to run after every change")
	watchCmd.Flags().String("run-file", "", "file with Swift code to run after every change")
	watchCmd.Flags().Duration("debounce", 0, "quiet period before rerunning, default from config")
}

var watchCmd = &cobra.Command{
	Use:   "watch [FILE...]",
	Short: "Rerun code whenever reload files change",
	Long: "Watches FILE... (default: the reload list), prepends them to the --run code and reruns it " +
		"in one REPL session after every change.",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := snippet(cmd)
		if err != nil {
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		if debounce <= 0 {
			debounce = conf.Watch.Debounce
		}
		if debounce <= 0 {
			debounce = 200 * time.Millisecond
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		s, err := startSession(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.Close()
		for _, f := range args {
			if err := s.AddReloadFile(f); err != nil {
				return err
			}
		}
		files := s.ReloadFiles()
		if len(files) == 0 {
			return errors.New("nothing to watch: pass files or use `replctl reload add`")
		}

		ro := session.RunOptions{Autoreload: true, Verbose: true}
		rerun := func(changed []string) {
			system.Logger.Info("running", "changed", changed)
			if _, err := s.Run(ctx, prompt, ro); err != nil {
				var re *session.ReplError
				if errors.As(err, &re) {
					system.Logger.Warn("swift error", "line", re.Line)
					return
				}
				system.Logger.Error("run failed", "err", err)
				cancel()
			}
		}
		rerun(nil)
		system.Logger.Info("watching", "files", len(files), "debounce", debounce)
		return watch.Watch(ctx, files, debounce, rerun)
	},
}
