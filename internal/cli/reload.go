package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reloadCmd)
	reloadCmd.AddCommand(reloadAddCmd, reloadLsCmd, reloadRmCmd, reloadClearCmd)
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Manage the source files prepended to autoreload runs",
}

var reloadAddCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Add Swift source files to the reload list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		added, existed, err := reloadList().Add(args)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, p := range added {
			fmt.Fprintln(w, okStyle.Render("✓ added ")+p)
		}
		for _, p := range existed {
			fmt.Fprintln(w, mutedStyle.Render("• already listed ")+p)
		}
		return nil
	},
}

var reloadLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the reload files",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := reloadList().Load()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no reload files"))
			return nil
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

var reloadRmCmd = &cobra.Command{
	Use:     "rm FILE...",
	Aliases: []string{"remove"},
	Short:   "Remove files from the reload list",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, missing, err := reloadList().Remove(args)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, p := range removed {
			fmt.Fprintln(w, okStyle.Render("✓ removed ")+p)
		}
		for _, p := range missing {
			fmt.Fprintln(w, warnStyle.Render("• not listed ")+p)
		}
		return nil
	},
}

var reloadClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the reload list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reloadList().Clear()
	},
}
