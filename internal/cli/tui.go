package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rostree/rostree/pkg/tree"
)

// Interactive browsing keeps trees small so navigation stays snappy.
const (
	tuiMaxDepth    = 6
	tuiMaxNodes    = 500
	tuiExpandDepth = 2
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// tuiCommand creates the "tui" command.
func (c *CLI) tuiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse packages and dependency trees interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			finder, err := c.newFinder(cfg)
			if err != nil {
				return err
			}

			all := finder.ListAll()
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			sort.Strings(names)
			if len(names) == 0 {
				printWarning("No packages found; check your workspace configuration")
				return nil
			}

			model := newBrowserModel(names, c.newBuilder(finder))
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	return cmd
}

// browserMode selects which pane the browser shows.
type browserMode int

const (
	modeList browserMode = iota
	modeTree
)

// treeRow is one visible line of the tree pane.
type treeRow struct {
	node  *tree.Node
	depth int
}

// browserModel is the bubbletea model for the package browser: a
// filterable package list and a collapsible tree view.
type browserModel struct {
	names   []string
	builder *tree.Builder

	mode   browserMode
	filter string

	cursor int
	offset int
	height int

	root     *tree.Node
	expanded map[*tree.Node]bool
	rows     []treeRow
}

func newBrowserModel(names []string, builder *tree.Builder) browserModel {
	return browserModel{
		names:   names,
		builder: builder,
		height:  15,
	}
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

// treeBuiltMsg delivers a finished tree build.
type treeBuiltMsg struct {
	root *tree.Node
}

func (m browserModel) buildTree(name string) tea.Cmd {
	builder := m.builder
	return func() tea.Msg {
		root := builder.Build(context.Background(), name, tree.Options{
			MaxDepth: tuiMaxDepth,
			MaxNodes: tuiMaxNodes,
		})
		return treeBuiltMsg{root: root}
	}
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
		return m, nil
	case treeBuiltMsg:
		m.root = msg.root
		m.expanded = make(map[*tree.Node]bool)
		msg.root.Walk(func(n *tree.Node, depth int) {
			if depth < tuiExpandDepth && len(n.Children) > 0 {
				m.expanded[n] = true
			}
		})
		m.rows = flattenTree(m.root, m.expanded)
		m.mode = modeTree
		m.cursor, m.offset = 0, 0
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeTree {
			return m.updateTree(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m browserModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		if m.filter != "" {
			m.filter = ""
			m.cursor, m.offset = 0, 0
			return m, nil
		}
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "ctrl+n":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "backspace":
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.cursor, m.offset = 0, 0
		}
	case "enter":
		visible := m.visible()
		if len(visible) > 0 {
			return m, m.buildTree(visible[m.cursor])
		}
	default:
		if len(msg.String()) == 1 {
			m.filter += msg.String()
			m.cursor, m.offset = 0, 0
		}
	}
	return m, nil
}

func (m browserModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.mode = modeList
		m.cursor, m.offset = 0, 0
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "right", "l", "enter":
		n := m.rows[m.cursor].node
		if len(n.Children) > 0 && !m.expanded[n] {
			m.expanded[n] = true
			m.rows = flattenTree(m.root, m.expanded)
		}
	case "left", "h":
		n := m.rows[m.cursor].node
		if m.expanded[n] {
			delete(m.expanded, n)
			m.rows = flattenTree(m.root, m.expanded)
		}
	}
	return m, nil
}

// visible returns the filtered package names.
func (m browserModel) visible() []string {
	if m.filter == "" {
		return m.names
	}
	out := make([]string, 0, len(m.names))
	for _, n := range m.names {
		if strings.Contains(n, m.filter) {
			out = append(out, n)
		}
	}
	return out
}

func (m browserModel) View() string {
	if m.mode == modeTree {
		return m.viewTree()
	}
	return m.viewList()
}

func (m browserModel) viewList() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Package"))
	b.WriteString("\n")
	help := "↑/↓ navigate  ⏎ open tree  type to filter  q quit"
	if m.filter != "" {
		help = "filter: " + m.filter + "  (esc clears)"
	}
	b.WriteString(listDimStyle.Render(help))
	b.WriteString("\n\n")

	visible := m.visible()
	end := m.offset + m.height
	if end > len(visible) {
		end = len(visible)
	}
	for i := m.offset; i < end; i++ {
		line := "  " + listNormalStyle.Render(visible[i])
		if i == m.cursor {
			line = "▸ " + listSelectedStyle.Render(visible[i])
		}
		b.WriteString(line + "\n")
	}
	if len(visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches") + "\n")
	}
	return b.String()
}

func (m browserModel) viewTree() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.root.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  →/← expand/collapse  esc back  ctrl+c quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		marker := "  "
		if len(row.node.Children) > 0 {
			if m.expanded[row.node] {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}
		line := strings.Repeat("  ", row.depth) + marker + nodeLine(row.node)
		if i == m.cursor {
			line = listSelectedStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	resolved := 0
	m.root.Walk(func(n *tree.Node, _ int) {
		if n.Status == tree.StatusResolved {
			resolved++
		}
	})
	b.WriteString("\n")
	b.WriteString(StyleSuccess.Render(fmt.Sprintf("%d resolved", resolved)))
	b.WriteString(listDimStyle.Render(fmt.Sprintf(" · %d nodes", m.root.Count())))
	b.WriteString("\n")
	return b.String()
}

// flattenTree lists the rows visible under the current expansion
// state, depth-first in declaration order.
func flattenTree(root *tree.Node, expanded map[*tree.Node]bool) []treeRow {
	var rows []treeRow
	var visit func(n *tree.Node, depth int)
	visit = func(n *tree.Node, depth int) {
		rows = append(rows, treeRow{node: n, depth: depth})
		if expanded[n] {
			for _, c := range n.Children {
				visit(c, depth+1)
			}
		}
	}
	visit(root, 0)
	return rows
}
