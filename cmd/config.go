package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/connects/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file: %s\n", c.configPath)
			fmt.Fprintf(out, "data file:   %s\n", c.dataFile())
			fmt.Fprintf(out, "backend:     %s\n", c.cfg.Storage.Backend)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file, replacing the existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteDefaultConfig(c.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", c.configPath)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Set one value, e.g. storage.backend sqlite",
		Example: "  connects config set storage.backend sqlite\n  connects config set flags.snapshot-history false",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetValue(c.configPath, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], c.configPath)
			return nil
		},
	}

	cmd.AddCommand(initCmd, setCmd)
	return cmd
}
