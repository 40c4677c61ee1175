package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ss303/m3ssag1n8/internal/owldb"
	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/session"
	"github.com/ss303/m3ssag1n8/internal/types"
)

// Options configure the chat view.
type Options struct {
	Session   *session.Session
	Workspace string
	Channel   string
	Username  string
}

// Run opens a channel and starts the chat UI. The session's stream is
// canceled when the view closes.
func Run(opts Options) error {
	if err := opts.Session.Open(context.Background(), opts.Workspace, opts.Channel); err != nil {
		return err
	}
	defer opts.Session.Unsubscribe()

	model := NewModel(opts)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Model implements the chat UI. Every engine mutation happens inside
// Update, so the tree store is only ever touched from the one bubbletea
// event loop.
type Model struct {
	session   *session.Session
	workspace string
	channel   string
	username  string

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	ready    bool

	visible  []*posts.Node
	selected int
	replyTo  string
	status   string
}

// NewModel builds the chat model for an already-opened session.
func NewModel(opts Options) *Model {
	input := textarea.New()
	input.Placeholder = "Message (enter to send)"
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	model := &Model{
		session:   opts.Session,
		workspace: opts.Workspace,
		channel:   opts.Channel,
		username:  opts.Username,
		input:     input,
	}
	model.refresh()
	return model
}

type deliveryMsg struct {
	event owldb.Event
}

type streamClosedMsg struct{}

// waitForDelivery blocks on the live stream and hands the next delivery to
// Update.
func (m *Model) waitForDelivery() tea.Cmd {
	events := m.session.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return deliveryMsg{event: event}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForDelivery())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case deliveryMsg:
		if m.session.ApplyDelivery(msg.event) {
			m.refresh()
		}
		return m, m.waitForDelivery()

	case streamClosedMsg:
		m.status = "stream closed"
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.replyTo != "" {
			m.replyTo = ""
			m.status = ""
			m.refresh()
			return m, nil
		}
		return m, tea.Quit
	case "enter":
		m.submit()
		m.refresh()
		return m, nil
	case "ctrl+p":
		m.moveSelection(-1)
		return m, nil
	case "ctrl+n":
		m.moveSelection(1)
		return m, nil
	case "ctrl+r":
		if node := m.selectedNode(); node != nil {
			m.replyTo = node.Post.Path
			m.status = "replying to " + node.Post.Path
			m.refresh()
		}
		return m, nil
	case "ctrl+g":
		m.togglePin()
		m.refresh()
		return m, nil
	case "ctrl+y":
		if node := m.selectedNode(); node != nil {
			if err := clipboard.WriteAll(node.Post.Message); err != nil {
				m.status = fmt.Sprintf("copy failed: %v", err)
			} else {
				m.status = "copied"
			}
		}
		return m, nil
	case "ctrl+a", "ctrl+l", "ctrl+f", "ctrl+e":
		m.react(reactionForKey(msg.String()))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func reactionForKey(key string) types.ReactionKind {
	switch key {
	case "ctrl+a":
		return types.ReactionSmile
	case "ctrl+l":
		return types.ReactionLike
	case "ctrl+f":
		return types.ReactionFrown
	default:
		return types.ReactionCelebrate
	}
}

// submit posts the composed message, as a reply when a reply target is set.
func (m *Model) submit() {
	body := strings.TrimSpace(m.input.Value())
	if body == "" {
		return
	}
	if _, err := m.session.CreatePost(context.Background(), body, m.replyTo); err != nil {
		m.status = fmt.Sprintf("post failed: %v", err)
		return
	}
	m.input.Reset()
	m.replyTo = ""
	m.status = ""
}

func (m *Model) react(kind types.ReactionKind) {
	node := m.selectedNode()
	if node == nil {
		return
	}
	if err := m.session.ToggleReaction(context.Background(), node.Post.Path, kind); err != nil {
		m.status = fmt.Sprintf("react failed: %v", err)
		return
	}
	m.status = ""
}

func (m *Model) togglePin() {
	node := m.selectedNode()
	if node == nil {
		return
	}
	if err := m.session.TogglePin(context.Background(), node.Post.Path); err != nil {
		m.status = fmt.Sprintf("pin failed: %v", err)
		return
	}
	m.status = ""
}

func (m *Model) selectedNode() *posts.Node {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return nil
	}
	return m.visible[m.selected]
}

func (m *Model) moveSelection(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	m.refreshViewport()
}

// refresh rebuilds the flattened visible node list from the engine and
// re-renders the viewport.
func (m *Model) refresh() {
	engine := m.session.Engine()
	m.visible = m.visible[:0]
	for _, root := range engine.PinnedRoots() {
		m.collect(root)
	}
	for _, root := range engine.GeneralRoots() {
		m.collect(root)
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 && len(m.visible) > 0 {
		m.selected = 0
	}
	m.refreshViewport()
}

func (m *Model) collect(node *posts.Node) {
	m.visible = append(m.visible, node)
	for _, child := range node.Children {
		m.collect(child)
	}
}
