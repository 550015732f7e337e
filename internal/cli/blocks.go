package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"replctl/internal/code"
)

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Bool("json", false, "print JSON")
	blocksCmd.Flags().Bool("split", false, "also split every splittable block one level down")
}

// blockOut uses 1-based line numbers.
type blockOut struct {
	Start int        `json:"start_line"`
	End   int        `json:"end_line"`
	Text  string     `json:"text"`
	Inner []blockOut `json:"inner,omitempty"`
}

var blocksCmd = &cobra.Command{
	Use:   "blocks [FILE]",
	Short: "Segment Swift source into balanced statement blocks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		split, _ := cmd.Flags().GetBool("split")
		var out []blockOut
		for _, b := range code.Extract(strings.Split(src, "\n")) {
			bo := blockOut{Start: b.StartLine + 1, End: b.EndLine + 1, Text: b.Text()}
			if split {
				inner, err := b.Split()
				if errors.Is(err, code.ErrNotSplittable) {
					out = append(out, bo)
					continue
				}
				if err != nil {
					return err
				}
				for _, ib := range inner {
					bo.Inner = append(bo.Inner, blockOut{Start: ib.StartLine + 1, End: ib.EndLine + 1, Text: ib.Text()})
				}
			}
			out = append(out, bo)
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		for _, b := range out {
			fmt.Fprintln(w, headerStyle.UnsetPadding().Render(fmt.Sprintf("── lines %d-%d", b.Start, b.End)))
			fmt.Fprintln(w, b.Text)
			for _, ib := range b.Inner {
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("   ── lines %d-%d", ib.Start, ib.End)))
				fmt.Fprintln(w, indentLines(ib.Text, "   "))
			}
		}
		return nil
	},
}
