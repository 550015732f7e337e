package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"replctl/internal/output"
	"replctl/internal/screen"
)

func init() {
	rootCmd.AddCommand(varsCmd)
	varsCmd.Flags().Bool("json", false, "print JSON instead of a table")
	varsCmd.Flags().Bool("slots", false, "include anonymous result slots such as $R0")
}

var varsCmd = &cobra.Command{
	Use:   "vars [FILE]",
	Short: "List the variables reported in captured REPL output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		slots, _ := cmd.Flags().GetBool("slots")
		found := output.FindVariables(screen.Clean(raw))
		list := make([]output.Binding, 0, len(found))
		for name, b := range found {
			if !slots && output.IsResultSlot(name) {
				continue
			}
			list = append(list, b)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no variables"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), varsTable(list))
		return nil
	},
}
