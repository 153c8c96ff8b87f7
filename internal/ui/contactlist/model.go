// Package contactlist implements the contact viewer: a table of the current person list that
// follows every change published by the service.
package contactlist

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/connects/internal/contacts/application"
	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/log"
	"github.com/zjrosen/connects/internal/pubsub"
	"github.com/zjrosen/connects/internal/ui/styles"
	"github.com/zjrosen/connects/internal/ui/toaster"
)

const (
	toastDuration = 3 * time.Second

	indexWidth  = 4
	pinWidth    = 3
	nameWidth   = 24
	emailWidth  = 28
	handleWidth = 18
	minGroups   = 12

	// title, status, help and log lines around the table
	chromeHeight = 5
)

// Service is the part of the application service the viewer drives.
type Service interface {
	Snapshot() application.Snapshot
	Broker() *pubsub.Broker[application.Snapshot]
	Pin(ctx context.Context, target *domain.Person) (*domain.Person, error)
	Unpin(ctx context.Context, target *domain.Person) (*domain.Person, error)
	Sort(ctx context.Context, key application.SortKey) error
	Reload(ctx context.Context) error
}

type (
	fileChangedMsg struct{}

	actionDoneMsg struct {
		selected *domain.Person
		message  string
		err      error
	}
)

// Option configures a Model.
type Option func(*Model)

// WithChanges reloads the book whenever changes fires. The channel usually comes from
// watcher.Watcher.Start.
func WithChanges(changes <-chan struct{}) Option {
	return func(m *Model) { m.changes = changes }
}

// WithLogTail shows the most recent debug log line below the help.
func WithLogTail() Option {
	return func(m *Model) { m.showLogs = true }
}

// Model is the contact viewer.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    Service

	listener *pubsub.ContinuousListener[application.Snapshot]
	changes  <-chan struct{}
	logs     *log.LogListener
	showLogs bool
	lastLog  string

	snapshot application.Snapshot
	sortKey  application.SortKey
	table    table.Model
	help     help.Model
	toaster  toaster.Model

	width  int
	height int
}

// New creates a viewer over svc. The first snapshot arrives through the broker's replay.
func New(svc Service, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		svc:     svc,
		sortKey: application.SortByName,
		help:    help.New(),
		toaster: toaster.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.listener = pubsub.NewContinuousListener(ctx, svc.Broker())
	if m.showLogs {
		m.logs = log.NewListener(ctx)
	}

	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderDefaultColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimaryColor).
		Background(styles.BorderFocusColor).
		Bold(false)
	t.SetStyles(s)
	m.table = t

	m.applySnapshot(svc.Snapshot(), nil)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listener.Listen()}
	if m.changes != nil {
		cmds = append(cmds, m.waitForChange())
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.help.Width = msg.Width
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		return m, nil

	case pubsub.Event[application.Snapshot]:
		m.applySnapshot(msg.Payload, m.selected())
		log.Debug(log.CatUI, "Snapshot received", "type", msg.Type, "persons", len(msg.Payload.Persons))
		return m, m.listener.Listen()

	case fileChangedMsg:
		log.Debug(log.CatUI, "Data file changed, reloading")
		return m, tea.Batch(m.reload(), m.waitForChange())

	case log.LogEvent:
		m.lastLog = strings.TrimSpace(msg.Payload)
		return m, m.logs.Listen()

	case actionDoneMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "Viewer action failed", msg.err)
			m.toaster = m.toaster.Show(msg.err.Error(), toaster.StyleError)
			return m, toaster.ScheduleDismiss(toastDuration)
		}
		m.applySnapshot(m.svc.Snapshot(), msg.selected)
		m.toaster = m.toaster.Show(msg.message, toaster.StyleSuccess)
		return m, toaster.ScheduleDismiss(toastDuration)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, keys.Pin):
			return m, m.togglePin()
		case key.Matches(msg, keys.Sort):
			return m, m.sort()
		case key.Matches(msg, keys.Reload):
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	title := styles.TitleStyle.Render("connects")

	var body string
	if len(m.snapshot.Persons) == 0 {
		body = styles.FooterStyle.Render("No contacts yet. Add one with `connects add`.")
	} else {
		body = m.table.View()
	}

	parts := []string{title, body, styles.StatusBarStyle.Render(m.status()), styles.FooterStyle.Render(m.help.View(keys))}
	if m.showLogs && m.lastLog != "" {
		parts = append(parts, styles.FooterStyle.Render(styles.TruncateString(m.lastLog, max(m.width-2, 10))))
	}
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	return view
}

// Close stops listening for snapshots, file changes and log lines.
func (m Model) Close() {
	m.cancel()
}

func (m Model) status() string {
	pinned := styles.PinnedStyle.Render(strconv.Itoa(m.snapshot.Pinned) + " pinned")
	modules := styles.ModuleStyle.Render(strconv.Itoa(len(m.snapshot.Modules)) + " modules")
	return fmt.Sprintf("%d persons · %s · %s · sort: %s",
		len(m.snapshot.Persons), pinned, modules, m.sortKey)
}

// applySnapshot replaces the rows and keeps the cursor on follow when it is still listed.
func (m *Model) applySnapshot(snapshot application.Snapshot, follow *domain.Person) {
	m.snapshot = snapshot
	rows := make([]table.Row, 0, len(snapshot.Persons))
	cursor := -1
	for i, p := range snapshot.Persons {
		rows = append(rows, toRow(i, p))
		if follow != nil && p.IsSamePerson(follow) {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	switch {
	case cursor >= 0:
		m.table.SetCursor(cursor)
	case m.table.Cursor() >= len(rows):
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) selected() *domain.Person {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snapshot.Persons) {
		return nil
	}
	return m.snapshot.Persons[i]
}

func (m Model) togglePin() tea.Cmd {
	target := m.selected()
	if target == nil {
		return nil
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if target.Pinned() {
			p, err := svc.Unpin(ctx, target)
			return actionDoneMsg{selected: p, message: "Unpinned " + target.Name().String(), err: err}
		}
		p, err := svc.Pin(ctx, target)
		return actionDoneMsg{selected: p, message: "Pinned " + target.Name().String(), err: err}
	}
}

func (m *Model) sort() tea.Cmd {
	next := application.SortByEmail
	if m.sortKey == application.SortByEmail {
		next = application.SortByName
	}
	m.sortKey = next
	follow := m.selected()
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		err := svc.Sort(ctx, next)
		return actionDoneMsg{selected: follow, message: "Sorted by " + string(next), err: err}
	}
}

func (m Model) reload() tea.Cmd {
	follow := m.selected()
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		err := svc.Reload(ctx)
		return actionDoneMsg{selected: follow, message: "Reloaded from disk", err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ctx, changes := m.ctx, m.changes
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		}
	}
}

func columns(width int) []table.Column {
	groups := max(width-indexWidth-pinWidth-nameWidth-emailWidth-handleWidth-12, minGroups)
	return []table.Column{
		{Title: "#", Width: indexWidth},
		{Title: "", Width: pinWidth},
		{Title: "Name", Width: nameWidth},
		{Title: "Email", Width: emailWidth},
		{Title: "Telegram", Width: handleWidth},
		{Title: "Groups", Width: groups},
	}
}

func toRow(i int, p *domain.Person) table.Row {
	groups := make([]string, 0, len(p.Groups()))
	for _, g := range p.Groups() {
		groups = append(groups, g.String())
	}
	return table.Row{
		strconv.Itoa(i + 1),
		styles.FormatPinned(p.Pinned()),
		p.Name().String(),
		p.Email().String(),
		p.Handle().String(),
		strings.Join(groups, " "),
	}
}
