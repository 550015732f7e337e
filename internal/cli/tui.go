package cli

import (
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"replctl/internal/app"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().Bool("autoreload", false, "prepend the reload files to every snippet (default from config)")
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive full-screen REPL with a variables panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
		defer cancel()

		autoreload := conf.REPL.Autoreload
		if cmd.Flags().Changed("autoreload") {
			autoreload, _ = cmd.Flags().GetBool("autoreload")
		}
		s, err := startSession(ctx, io.Discard)
		if err != nil {
			return err
		}
		defer s.Close()
		return app.Start(ctx, s, autoreload)
	},
}
