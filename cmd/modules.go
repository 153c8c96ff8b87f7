package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/connects/internal/contacts/application"
	"github.com/zjrosen/connects/internal/ui/styles"
)

func (c *cli) deleteModuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delmod MODULE",
		Short:   "Delete a module and all its tutorial groups from every person",
		Example: "  connects delmod CS2103",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := parseModule(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				removed, updated, err := svc.DeleteModule(ctx, module)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(removed))
				for _, g := range removed {
					names = append(names, g.String())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted module %s (%s); %d persons updated.\n",
					module, strings.Join(names, ", "), updated)
				return nil
			})
		},
	}
}

func (c *cli) deleteGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delmodtut GROUP",
		Short:   "Delete one module-tutorial group from every person",
		Example: "  connects delmodtut CS2103-T01",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := parseGroup(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				updated, err := svc.DeleteModTutGroup(ctx, g)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %s; %d persons updated.\n", g, updated)
				return nil
			})
		},
	}
}

func (c *cli) modulesCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Show every module with the number of persons in each tutorial group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				if rebuild {
					if err := svc.RebuildIndex(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Module index rebuilt.")
				}
				summary, err := svc.Summary(ctx)
				if err != nil {
					return err
				}
				if summary.Len() == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No modules.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), summaryTable(summary))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "recompute the module index from the person list first")
	return cmd
}

func summaryTable(summary application.Summary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)).
		Headers("Module", "Tutorial", "Persons")
	for _, m := range summary.Modules {
		for _, tut := range m.Tutorials {
			t.Row(m.Module, tut.Tutorial, strconv.Itoa(tut.Count))
		}
	}
	return t.String()
}
