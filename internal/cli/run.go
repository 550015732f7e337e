package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"replctl/internal/session"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("autoreload", false, "prepend the reload files")
	runCmd.Flags().Bool("json", false, "print the result as JSON")
}

var runCmd = &cobra.Command{
	Use:   "run [FILE]",
	Short: "Run Swift code (FILE or stdin) in a fresh REPL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		autoreload, _ := cmd.Flags().GetBool("autoreload")
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := startSession(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.Run(cmd.Context(), src, session.RunOptions{Autoreload: autoreload, Verbose: !asJSON})
		if err != nil {
			// verbose runs already printed the failing output
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return nil
	},
}
