// Package tui browses a validation result and the effective rules.
package tui

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/validate"
)

var (
	focusedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	normalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555")).
			Bold(true)
)

type item struct {
	title, desc string
	detail      string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

// Model shows violations and rules side by side with a detail pane below.
type Model struct {
	lists    []list.Model
	focused  int
	viewport viewport.Model

	ready  bool
	width  int
	height int
}

// NewModel builds the lists from a finished run and the rules of the browsed directory.
func NewModel(res *validate.Result, set *rule.Set) Model {
	validate.Sort(res.Violations, validate.ByFile)
	violations := make([]list.Item, 0, len(res.Violations))
	for _, v := range res.Violations {
		violations = append(violations, item{
			title:  location(v),
			desc:   v.Label + ": " + v.Message,
			detail: violationDetails(v),
		})
	}

	rules := make([]list.Item, 0, len(set.Rules)+len(set.Guidelines))
	for _, r := range set.Rules {
		info := r.Info()
		rules = append(rules, item{
			title:  info.Label,
			desc:   string(info.Type) + " @ " + info.Dir,
			detail: ruleDetails(r),
		})
	}
	for _, g := range set.Guidelines {
		rules = append(rules, item{
			title:  "guideline",
			desc:   g.Message,
			detail: validate.FormatGuideline(g),
		})
	}

	titles := []string{fmt.Sprintf("Violations (%d)", len(violations)), fmt.Sprintf("Rules (%d)", len(set.Rules))}
	lists := make([]list.Model, len(titles))
	for i, items := range [][]list.Item{violations, rules} {
		lists[i] = list.New(items, list.NewDefaultDelegate(), 0, 0)
		lists[i].Title = titles[i]
		lists[i].SetShowHelp(false)
	}

	return Model{lists: lists}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "left", "right", "h", "l":
			m.focused = (m.focused + 1) % len(m.lists)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height/3)
			m.viewport.YPosition = msg.Height - msg.Height/3
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height / 3
		}

		colWidth := msg.Width / len(m.lists)
		listHeight := msg.Height - m.viewport.Height - 5
		for i := range m.lists {
			m.lists[i].SetSize(colWidth-2, listHeight)
		}
	}

	m.lists[m.focused], cmd = m.lists[m.focused].Update(msg)
	cmds = append(cmds, cmd)

	if selected := m.lists[m.focused].SelectedItem(); selected != nil {
		m.viewport.SetContent(selected.(item).detail)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	cols := make([]string, len(m.lists))
	for i, l := range m.lists {
		style := normalStyle
		if i == m.focused {
			style = focusedStyle
		}
		cols[i] = style.Render(l.View())
	}
	board := lipgloss.JoinHorizontal(lipgloss.Left, cols...)
	details := detailStyle.Width(m.width - 4).Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, board, details)
}

// Run starts the program on the terminal.
func Run(res *validate.Result, set *rule.Set) error {
	_, err := tea.NewProgram(NewModel(res, set), tea.WithAltScreen()).Run()
	return err
}

func location(v validate.Violation) string {
	if v.Line == 0 {
		return v.File
	}
	return fmt.Sprintf("%s:%d:%d", v.File, v.Line, v.Column)
}

func violationDetails(v validate.Violation) string {
	var sb strings.Builder
	sb.WriteString(violationStyle.Render(v.Message) + "\n\n")
	fmt.Fprintf(&sb, "Rule: %s\n", v.Label)
	fmt.Fprintf(&sb, "Kind: %s\n", v.Kind)
	fmt.Fprintf(&sb, "Location: %s\n", location(v))
	if v.Found != "" {
		fmt.Fprintf(&sb, "Found: %s\n", v.Found)
	}
	if v.Output != "" {
		sb.WriteString("\nOutput:\n" + v.Output + "\n")
	}
	return sb.String()
}

func ruleDetails(r rule.Rule) string {
	info := r.Info()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Label: %s\n", info.Label)
	fmt.Fprintf(&sb, "Type: %s\n", info.Type)
	fmt.Fprintf(&sb, "Declared in: %s\n", info.Dir)
	fmt.Fprintf(&sb, "Message: %s\n", info.Message)
	if kws := rule.Keywords(r); len(kws) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(kws, ", "))
	}
	if len(info.Match) > 0 {
		sb.WriteString("\nMatch:\n")
		for _, c := range info.Match {
			fmt.Fprintf(&sb, "- %s %s (%s)\n", c.Pattern, strings.Join(c.Keywords, ", "), cmp.Or(c.Cond, matcher.And))
		}
	}
	return sb.String()
}
