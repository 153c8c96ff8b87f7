package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/connects/internal/contacts/application"
	"github.com/zjrosen/connects/internal/infrastructure/xlsx"
	"github.com/zjrosen/connects/internal/log"
)

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Add persons from the first sheet of a spreadsheet",
		Long: `Add persons from the first sheet of an .xlsx workbook. The first row is a header;
the columns are Name, Email, Telegram and Groups (groups separated by commas or spaces).
Invalid rows and persons that already exist are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := xlsx.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, rowErr := range parsed.Rejected {
				fmt.Fprintf(out, "Skipped %v\n", rowErr)
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				result, err := svc.Import(ctx, parsed.Persons)
				if err != nil {
					return err
				}
				for _, skipped := range result.Skipped {
					fmt.Fprintf(out, "Skipped %v\n", skipped)
				}
				log.Info(log.CatImport, "Spreadsheet imported", "file", args[0],
					"added", result.Added, "rejected", len(parsed.Rejected), "skipped", len(result.Skipped))
				fmt.Fprintf(out, "Imported %d persons (%d skipped).\n",
					result.Added, len(parsed.Rejected)+len(result.Skipped))
				return nil
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE.xlsx",
		Short: "Write every person to a spreadsheet in the import layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(_ context.Context, svc *application.Service) error {
				persons := svc.Persons()
				if err := xlsx.WriteFile(args[0], persons); err != nil {
					return fmt.Errorf("writing %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d persons to %s.\n", len(persons), args[0])
				return nil
			})
		},
	}
}

// errNoHistory is returned by history for backends that keep only one snapshot.
var errNoHistory = errors.New("snapshot history needs the sqlite backend (storage.backend: sqlite)")

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			if s.sqlite == nil {
				return errNoHistory
			}
			infos, err := s.sqlite.History(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, info := range infos {
				fmt.Fprintf(out, "%d. %s  %s  %d persons\n",
					i+1, info.SavedAt.Format("2006-01-02 15:04:05"), info.ID, info.PersonCount)
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No snapshots.")
			}
			return nil
		},
	}
}
