package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/connects/internal/log"
	"github.com/zjrosen/connects/internal/ui/contactlist"
	"github.com/zjrosen/connects/internal/watcher"
)

func (c *cli) viewCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the contact viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noWatch {
				c.cfg.Watch.Enabled = false
			}
			return c.runView(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the data file changes on disk")
	return cmd
}

// runView opens the viewer until the user quits.
func (c *cli) runView(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var opts []contactlist.Option
	if c.logCleanup != nil {
		opts = append(opts, contactlist.WithLogTail())
	}
	if c.cfg.Watch.Enabled {
		w, err := watcher.New(watcher.Config{Path: c.dataFile(), DebounceDur: c.cfg.Watch.Debounce})
		if err == nil {
			changes, startErr := w.Start()
			if startErr == nil {
				opts = append(opts, contactlist.WithChanges(changes))
				defer func() { _ = w.Stop() }()
			} else {
				log.Warn(log.CatWatcher, "Viewer runs without reload", "error", startErr)
				_ = w.Stop()
			}
		} else {
			log.Warn(log.CatWatcher, "Viewer runs without reload", "error", err)
		}
	}

	model := contactlist.New(s.svc, opts...)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
