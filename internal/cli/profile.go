package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"replctl/internal/session"
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringP("run", "r", "", "Swift code that calls the function")
	profileCmd.Flags().String("run-file", "", "file with Swift code that calls the function")
	profileCmd.Flags().Bool("autoreload", true, "prepend the reload files")
	profileCmd.Flags().Bool("json", false, "print the report as JSON")
}

var profileCmd = &cobra.Command{
	Use:   "profile NAME FILE",
	Short: "Line-profile a Swift function in the REPL",
	Long: "Instruments function NAME from FILE with per-line timers, runs it in a fresh REPL together " +
		"with the --run code and prints the timing report.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := snippet(cmd)
		if err != nil {
			return err
		}
		if prompt == "" {
			return errors.New("nothing calls the function: pass --run or --run-file")
		}
		autoreload, _ := cmd.Flags().GetBool("autoreload")

		s, err := startSession(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.Close()

		_, rep, err := s.LineProfile(cmd.Context(), prompt, args[0], args[1], session.RunOptions{Autoreload: autoreload})
		if err != nil {
			var re *session.ReplError
			if errors.As(err, &re) {
				fmt.Fprintln(cmd.ErrOrStderr(), re.Output)
			}
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		fmt.Fprintln(cmd.OutOrStdout(), profileTable(rep))
		return nil
	},
}
