package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"replctl/internal/config"
	"replctl/internal/settings"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSchemaCmd)
	configCmd.Flags().Bool("force", false, "overwrite an existing config.yaml with the defaults")
	configCmd.Flags().Bool("wizard", false, "edit the configuration interactively and save it")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create config.yaml when missing and print its location",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		if wizard, _ := cmd.Flags().GetBool("wizard"); wizard {
			edited, err := settings.Run(cmd.Context(), conf)
			if err != nil {
				return err
			}
			if err := config.SaveFile(p, edited); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ saved config: %s\n", p)
			return nil
		}
		force, _ := cmd.Flags().GetBool("force")
		_, statErr := os.Stat(p)
		switch {
		case statErr == nil && !force:
			fmt.Fprintf(cmd.OutOrStdout(), "• keeping existing config: %s\n", p)
			return nil
		case statErr != nil && !errors.Is(statErr, os.ErrNotExist):
			return statErr
		}
		if err := config.SaveFile(p, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote config: %s\n", p)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(conf)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := config.MarshalSchema(config.Schema())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}
