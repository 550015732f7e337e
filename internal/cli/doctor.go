package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"replctl/internal/config"
	"replctl/internal/tools"
)

func init() { rootCmd.AddCommand(doctorCmd) }

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the Swift toolchain and replctl configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		results := checkTools(cmd.Context())
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, toolsTable(results))

		if p, err := config.Path(); err == nil {
			if _, err := os.Stat(p); err == nil {
				fmt.Fprintln(w, okStyle.Render("✓ config ")+p)
			} else {
				fmt.Fprintln(w, mutedStyle.Render("• no config file, using defaults (run `replctl config`)"))
			}
		}
		files, err := reloadList().Load()
		if err != nil {
			return err
		}
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				fmt.Fprintln(w, warnStyle.Render("• reload file missing ")+f)
			}
		}
		if conf.Swift.PackageDir != "" {
			if _, err := os.Stat(filepath.Join(conf.Swift.PackageDir, "Package.swift")); err != nil {
				fmt.Fprintln(w, warnStyle.Render("• no Package.swift in ")+conf.Swift.PackageDir)
			}
		}

		for _, r := range results {
			if r.Tool.Required && !r.OK() {
				return errors.New("required tools are missing or outdated")
			}
		}
		return nil
	},
}

// checkTools probes every tool concurrently, keeping registry order.
func checkTools(ctx context.Context) []tools.CheckResult {
	results := make([]tools.CheckResult, len(tools.Tools))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tools.Tools {
		i, t := i, t
		g.Go(func() error {
			results[i] = tools.CheckTool(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
