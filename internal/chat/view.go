package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/types"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	creatorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stampStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	reactionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const helpLine = "^p/^n select · ^r reply · ^g pin · ^a/^l/^f/^e react · ^y copy · esc quit"

// layout sizes the viewport and compose box to the terminal.
func (m *Model) layout() {
	inputHeight := m.input.Height() + 1
	bodyHeight := m.height - inputHeight - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = bodyHeight
	}
	m.input.SetWidth(m.width - 2)
}

// refreshViewport re-renders the tree into the viewport, keeping the
// selection visible.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	line := 0
	selectedLine := 0
	engine := m.session.Engine()

	writeSection := func(title string, roots []*posts.Node) {
		if len(roots) == 0 {
			return
		}
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		line++
		for _, root := range roots {
			line = m.writeNode(&b, root, 0, line, &selectedLine)
		}
	}
	writeSection("Pinned", engine.PinnedRoots())
	writeSection("Posts", engine.GeneralRoots())

	m.viewport.SetContent(b.String())
	if selectedLine < m.viewport.YOffset {
		m.viewport.SetYOffset(selectedLine)
	} else if selectedLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selectedLine - m.viewport.Height + 1)
	}
}

func (m *Model) writeNode(b *strings.Builder, node *posts.Node, depth, line int, selectedLine *int) int {
	post := node.Post
	indent := strings.Repeat("  ", depth)
	stamp := time.UnixMilli(post.CreatedAt).Format("15:04")

	text := fmt.Sprintf("%s%s %s %s", indent,
		creatorStyle.Render(post.Creator),
		stampStyle.Render(stamp),
		post.Message)
	if badges := reactionBadges(post, m.username); badges != "" {
		text += " " + reactionStyle.Render(badges)
	}
	if m.selectedNode() == node {
		*selectedLine = line
		text = selectedStyle.Render(text)
	}
	b.WriteString(text)
	b.WriteString("\n")
	line++
	for _, child := range node.Children {
		line = m.writeNode(b, child, depth+1, line, selectedLine)
	}
	return line
}

// reactionBadges renders the reaction and pin counts on one post, marking
// kinds the viewer has joined with a star.
func reactionBadges(post types.Post, viewer string) string {
	var parts []string
	for _, kind := range types.ReactionKinds() {
		set := post.ReactionSet(kind)
		if len(set) == 0 {
			continue
		}
		marker := ""
		if post.HasReacted(kind, viewer) {
			marker = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%d%s", kind, len(set), marker))
	}
	if len(post.PinnedBy) > 0 {
		parts = append(parts, fmt.Sprintf("pinned:%d", len(post.PinnedBy)))
	}
	return strings.Join(parts, " ")
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	header := headerStyle.Render(fmt.Sprintf("%s/%s", m.workspace, m.channel)) +
		stampStyle.Render(fmt.Sprintf("  %s", m.username))

	footer := helpStyle.Render(helpLine)
	if m.replyTo != "" || m.status != "" {
		status := m.status
		if status == "" {
			status = "replying to " + m.replyTo
		}
		footer = statusStyle.Render(status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		footer,
	)
}
