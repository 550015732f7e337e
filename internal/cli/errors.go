package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"replctl/internal/output"
	"replctl/internal/screen"
)

// errReplOutput makes `replctl errors` exit non-zero when an error is found.
var errReplOutput = errors.New("repl output contains an error")

func init() { rootCmd.AddCommand(errorsCmd) }

var errorsCmd = &cobra.Command{
	Use:   "errors [FILE]",
	Short: "Print the first REPL error line of captured output",
	Long:  "Cleans captured REPL output and prints the first line carrying an error marker. Exits with status 1 when one is found.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		line, ok := output.SearchForError(screen.Clean(raw))
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("no errors"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return errReplOutput
	},
}
