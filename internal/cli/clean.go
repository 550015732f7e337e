package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"replctl/internal/output"
	"replctl/internal/screen"
)

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("render", false, "apply the output options from config (hide inputs, variables, stop pattern)")
}

var cleanCmd = &cobra.Command{
	Use:   "clean [FILE]",
	Short: "Replay raw REPL output and print the final screen text",
	Long:  "Reads captured terminal output (FILE or stdin), applies cursor and erase control sequences and prints the resulting text.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		text := screen.Clean(raw)
		if render, _ := cmd.Flags().GetBool("render"); render {
			if text, err = output.Render(text, conf.Output); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
