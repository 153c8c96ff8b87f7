package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/connects/internal/contacts/application"
	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/ui/styles"
)

// errNothingToEdit is returned by edit when no field flag was given.
var errNothingToEdit = errors.New("at least one field to edit must be provided")

func (c *cli) addCmd() *cobra.Command {
	var f personFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		Example: `  connects add --name "Alex Yeoh" --email alexyeoh@example.com --handle @alexyeoh --group CS2103-T01
  connects add -n "Bernice Yu" -e berniceyu@example.com -t @berniceyu -g cs2103-t01,cs2101-t05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.build()
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				if err := svc.Add(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "New person added: %s\n", describe(p))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "name (required)")
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&f.handle, "handle", "t", "", "Telegram handle starting with @ (required)")
	cmd.Flags().StringArrayVarP(&f.groups, "group", "g", nil, "module-tutorial group, e.g. CS2103-T01 (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("handle")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var (
		f            personFields
		addGroups    []string
		removeGroups []string
	)
	cmd := &cobra.Command{
		Use:   "edit INDEX",
		Short: "Edit the person at INDEX",
		Long: `Edit the person at INDEX. Fields that are not given keep their value.
--group replaces every group; --add-group and --remove-group change single groups.`,
		Example: `  connects edit 2 --email bernice@example.com
  connects edit 1 --add-group CS2101-T05 --remove-group CS2103-T01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			if !changed("name") && !changed("email") && !changed("handle") &&
				!changed("group") && !changed("add-group") && !changed("remove-group") {
				return errNothingToEdit
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				target, err := svc.PersonAt(index)
				if err != nil {
					return err
				}
				edited, err := applyEdits(cmd, target, f, addGroups, removeGroups)
				if err != nil {
					return err
				}
				if err := svc.Edit(ctx, target, edited); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited person: %s\n", describe(edited))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "new email address")
	cmd.Flags().StringVarP(&f.handle, "handle", "t", "", "new Telegram handle")
	cmd.Flags().StringArrayVarP(&f.groups, "group", "g", nil, "replace all groups (repeatable; empty clears)")
	cmd.Flags().StringArrayVar(&addGroups, "add-group", nil, "add one group (repeatable)")
	cmd.Flags().StringArrayVar(&removeGroups, "remove-group", nil, "remove one group (repeatable)")
	return cmd
}

// applyEdits returns target with every changed field replaced.
func applyEdits(cmd *cobra.Command, target *domain.Person, f personFields, add, remove []string) (*domain.Person, error) {
	edited := target
	changed := cmd.Flags().Changed
	if changed("name") {
		name, err := domain.NewName(f.name)
		if err != nil {
			return nil, err
		}
		edited = edited.WithName(name)
	}
	if changed("email") {
		email, err := domain.NewEmail(f.email)
		if err != nil {
			return nil, err
		}
		edited = edited.WithEmail(email)
	}
	if changed("handle") {
		handle, err := domain.NewTelegramHandle(f.handle)
		if err != nil {
			return nil, err
		}
		edited = edited.WithHandle(handle)
	}
	if changed("group") {
		groups, err := parseGroups(f.groups)
		if err != nil {
			return nil, err
		}
		edited = edited.WithGroups(groups...)
	}
	if changed("add-group") {
		groups, err := parseGroups(add)
		if err != nil {
			return nil, err
		}
		edited = edited.WithAddedGroups(groups...)
	}
	if changed("remove-group") {
		groups, err := parseGroups(remove)
		if err != nil {
			return nil, err
		}
		edited = edited.WithoutGroups(groups...)
	}
	return edited, nil
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete INDEX",
		Aliases: []string{"rm"},
		Short:   "Delete the person at INDEX",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				target, err := svc.PersonAt(index)
				if err != nil {
					return err
				}
				if err := svc.Delete(ctx, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted person: %s\n", describe(target))
				return nil
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var module string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List persons in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if module != "" {
				var err error
				if module, err = parseModule(module); err != nil {
					return err
				}
			}
			return c.withService(cmd, func(_ context.Context, svc *application.Service) error {
				persons := svc.Persons()
				if len(persons) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No contacts.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), personTable(persons, module))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&module, "module", "m", "", "only show persons taking this module")
	return cmd
}

func (c *cli) pinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin INDEX",
		Short: "Pin the person at INDEX to the top of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				target, err := svc.PersonAt(index)
				if err != nil {
					return err
				}
				pinned, err := svc.Pin(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pinned person: %s\n", pinned.Name())
				return nil
			})
		},
	}
}

func (c *cli) unpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin INDEX",
		Short: "Unpin the person at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				target, err := svc.PersonAt(index)
				if err != nil {
					return err
				}
				unpinned, err := svc.Unpin(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unpinned person: %s\n", unpinned.Name())
				return nil
			})
		},
	}
}

func (c *cli) sortCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sort [name|email]",
		Short:     "Sort the unpinned persons (default: by name)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(application.SortByName), string(application.SortByEmail)},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := application.SortByName
			if len(args) == 1 {
				key = application.SortKey(strings.ToLower(args[0]))
			}
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				if err := svc.Sort(ctx, key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sorted contacts by %s.\n", key)
				return nil
			})
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *application.Service) error {
				if err := svc.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Contact list has been cleared!")
				return nil
			})
		},
	}
}

// describe renders a person on one line.
func describe(p *domain.Person) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s; Email: %s; Telegram: %s", p.Name(), p.Email(), p.Handle())
	if groups := groupList(p); groups != "" {
		fmt.Fprintf(&b, "; Groups: %s", groups)
	}
	if p.Pinned() {
		b.WriteString(" (pinned)")
	}
	return b.String()
}

func groupList(p *domain.Person) string {
	names := make([]string, 0, len(p.Groups()))
	for _, g := range p.Groups() {
		names = append(names, g.String())
	}
	return strings.Join(names, " ")
}

// personTable renders persons with their 1-based display index. A non-empty module keeps only
// persons taking it, still numbered by their position in the full list.
func personTable(persons []*domain.Person, module string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)).
		Headers("#", "", "Name", "Email", "Telegram", "Groups")
	for i, p := range persons {
		if module != "" && !p.HasModule(module) {
			continue
		}
		t.Row(strconv.Itoa(i+1), styles.FormatPinned(p.Pinned()),
			p.Name().String(), p.Email().String(), p.Handle().String(), groupList(p))
	}
	return t.String()
}
