package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"replctl/internal/config"
	"replctl/internal/system"
)

// conf is loaded before every command runs.
var conf = config.Default()

var rootCmd = &cobra.Command{
	Use:   "replctl",
	Short: "replctl – drive the Swift REPL from scripts and tools",
	Long: "replctl runs Swift snippets in a persistent REPL, interprets what the REPL prints " +
		"(errors, variables, prompts) and line-profiles Swift functions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			c   config.Config
			err error
		)
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			c, err = config.LoadFile(p)
		} else {
			c, err = config.Load()
		}
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("package") {
			c.Swift.PackageDir, _ = cmd.Flags().GetString("package")
		}
		if err := system.SetLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		conf = c
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is config.yaml in the replctl config dir)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("package", "", "run the REPL inside this Swift package directory")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
