package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"replctl/internal/code"
	"replctl/internal/profiler"
)

func init() {
	rootCmd.AddCommand(funcCmd)
	funcCmd.Flags().Bool("json", false, "print the located function as JSON")
	funcCmd.Flags().Bool("instrument", false, "print the line-profiling version of the function")
}

var funcCmd = &cobra.Command{
	Use:   "func NAME FILE",
	Short: "Locate a function declaration in a Swift source file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		src, err := code.FileContent(args[1])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if inst, _ := cmd.Flags().GetBool("instrument"); inst {
			out, err := profiler.InstrumentSource(name, src)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)
			return nil
		}
		fn, err := code.FindFunction(name, src)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(fn)
		}
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s: lines %d-%d (header %d-%d, body %d-%d)",
			fn.Name, fn.CodeStartLine+1, fn.CodeEndLine+1,
			fn.HeaderStartLine+1, fn.HeaderEndLine+1, fn.BodyStartLine+1, fn.BodyEndLine+1)))
		fmt.Fprintln(w, fn.Header)
		if fn.Body != "" {
			fmt.Fprintln(w, fn.Body)
		}
		fmt.Fprintln(w, code.Indent(fn.Header)+"}")
		return nil
	},
}
