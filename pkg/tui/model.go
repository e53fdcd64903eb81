// Package tui is the interactive farm guide: a menu of topics, the selected
// topic's guidance, and an optional chat with Farm Guru whose replies stream
// in as they are generated.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/content"
	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/render"
)

const (
	sidebarWidth  = 30
	chatToggleKey = "chat"
	streamCursor  = "▌"
)

type focus int

const (
	focusMenu focus = iota
	focusSections
	focusInput
)

// Messages delivered from a streaming exchange. seq identifies the exchange so
// events of an abandoned one are dropped.
type (
	fragmentMsg struct {
		seq     int
		partial string
	}
	completeMsg struct {
		seq   int
		final string
	}
	replyErrMsg struct {
		seq int
		err error
	}
	// streamClosedMsg is delivered when the event channel closes.
	streamClosedMsg struct {
		seq int
	}
)

// Options configures a Model.
type Options struct {
	Manager   *chat.Manager
	Navigator *content.Navigator
	Logger    *zap.Logger

	// Render configures markdown output; Width is set from the window.
	Render render.Options
}

// Model is the bubbletea model of the farm guide.
type Model struct {
	manager   *chat.Manager
	navigator *content.Navigator
	logger    *zap.Logger
	renderOpt render.Options

	topics  []content.Topic
	cursor  int // Menu position; len(topics) is the chat toggle
	topic   content.Topic
	section int

	chatOn    bool
	session   *chat.Session
	events    chan tea.Msg
	cancel    context.CancelFunc
	seq       int
	streaming bool
	partial   string
	err       error

	content  viewport.Model
	chatView viewport.Model
	textarea textarea.Model
	focus    focus

	width  int
	height int
	ready  bool
}

// New creates the guide model showing the first topic.
func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Farm Guru a question..."
	ta.CharLimit = 2000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle = ta.FocusedStyle

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		manager:   opts.Manager,
		navigator: opts.Navigator,
		logger:    logger,
		renderOpt: opts.Render,
		topics:    opts.Navigator.Topics(),
		textarea:  ta,
		content:   viewport.New(0, 0),
		chatView:  viewport.New(0, 0),
	}
	if len(m.topics) > 0 {
		m.topic = m.topics[0]
	}
	return m
}

// Run starts the guide full screen and ends the chat session on exit.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.endChat()
	}
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case fragmentMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.partial = msg.partial
		m.refreshChat()
		return m, m.waitForEvent()

	case completeMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.finishExchange()
		m.refreshChat()
		return m, nil

	case replyErrMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.finishExchange()
		m.err = msg.err
		m.logger.Warn("reply failed", zap.Error(msg.err))
		m.refreshChat()
		return m, nil

	case streamClosedMsg:
		// A reply that never settled is reported as failed
		if msg.seq != m.seq || !m.streaming {
			return m, nil
		}
		m.finishExchange()
		m.err = errStreamClosed
		m.logger.Warn("reply stream closed before settling")
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.endChat()
		return m, tea.Quit

	case "ctrl+t":
		m.toggleChat()
		return m, nil

	case "tab":
		m.cycleFocus()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		if m.focus == focusInput {
			m.chatView, cmd = m.chatView.Update(msg)
		} else {
			m.content, cmd = m.content.Update(msg)
		}
		return m, cmd
	}

	switch m.focus {
	case focusMenu:
		switch msg.String() {
		case "q":
			m.endChat()
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "enter", " ":
			if m.cursor == len(m.topics) {
				m.toggleChat()
			}
		}
		return m, nil

	case focusSections:
		switch msg.String() {
		case "q":
			m.endChat()
			return m, tea.Quit
		case "up", "k", "left", "h":
			m.moveSection(-1)
		case "down", "j", "right", "l":
			m.moveSection(1)
		case "esc":
			m.setFocus(focusMenu)
		}
		return m, nil

	case focusInput:
		switch msg.String() {
		case "esc":
			if m.streaming {
				m.cancelExchange()
				m.refreshChat()
				return m, nil
			}
			m.setFocus(focusMenu)
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit starts an exchange with the text in the input. Rejections are shown
// on the error line and leave the input untouched.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()

	ctx, cancel := context.WithCancel(context.Background())
	ex, err := m.manager.Begin(ctx, m.session, text)
	if err != nil {
		cancel()
		m.err = err
		m.refreshChat()
		return m, nil
	}

	m.textarea.Reset()
	m.err = nil
	m.partial = ""
	m.streaming = true
	m.cancel = cancel
	m.seq++
	m.events = make(chan tea.Msg, 16)

	go runExchange(ctx, ex, m.seq, m.events)

	m.refreshChat()
	return m, m.waitForEvent()
}

// runExchange streams ex into events and closes it when the reply settles.
func runExchange(ctx context.Context, ex *chat.Exchange, seq int, events chan<- tea.Msg) {
	defer close(events)

	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	_, err := ex.Run(chat.HandlerFuncs{
		Fragment: func(partial string) { send(fragmentMsg{seq: seq, partial: partial}) },
		Complete: func(final string) { send(completeMsg{seq: seq, final: final}) },
	})
	if err != nil {
		send(replyErrMsg{seq: seq, err: err})
	}
}

func (m Model) waitForEvent() tea.Cmd {
	events, seq := m.events, m.seq
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return streamClosedMsg{seq: seq}
		}
		return msg
	}
}

func (m *Model) finishExchange() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.streaming = false
	m.partial = ""
}

// cancelExchange abandons the streaming reply. The user message stays in
// history and the failure is shown.
func (m *Model) cancelExchange() {
	if m.cancel != nil {
		m.cancel()
	}
	m.seq++
	m.finishExchange()
	m.err = context.Canceled
}

func (m *Model) toggleChat() {
	if m.chatOn {
		m.endChat()
		m.setFocus(focusMenu)
	} else {
		m.chatOn = true
		m.session = m.manager.NewSession()
		m.err = nil
		m.logger.Info("chat started", zap.String("session_id", m.session.ID()))
		m.setFocus(focusInput)
	}
	m.layout()
}

// endChat destroys the session and abandons any reply in flight.
func (m *Model) endChat() {
	if m.session == nil {
		return
	}

	if m.streaming {
		m.cancelExchange()
	}
	m.logger.Info("chat ended", zap.String("session_id", m.session.ID()))
	m.session.Close()
	m.session = nil
	m.chatOn = false
	m.err = nil
}

func (m *Model) cycleFocus() {
	order := []focus{focusMenu}
	if len(m.topic.Sections) > 0 {
		order = append(order, focusSections)
	}
	if m.chatOn {
		order = append(order, focusInput)
	}

	next := order[0]
	for i, f := range order {
		if f == m.focus {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.setFocus(next)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

func (m *Model) moveCursor(delta int) {
	entries := len(m.topics) + 1
	m.cursor = (m.cursor + delta + entries) % entries
	if m.cursor < len(m.topics) {
		m.topic = m.topics[m.cursor]
		m.section = 0
		m.refreshContent()
		m.content.GotoTop()
	}
}

func (m *Model) moveSection(delta int) {
	n := len(m.topic.Sections)
	if n == 0 {
		return
	}
	m.section = (m.section + delta + n) % n
	m.refreshContent()
	m.content.GotoTop()
}

func (m Model) sectionKey() string {
	if m.section < len(m.topic.Sections) {
		return m.topic.Sections[m.section].Key
	}
	return ""
}

// layout sizes the panes for the window and chat state.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	paneWidth := max(m.width-sidebarWidth-4, 20)
	available := max(m.height-4, 6) // Borders and status bar

	contentHeight := available
	if m.chatOn {
		contentHeight = available / 2
		chatHeight := available - contentHeight - 2 - m.textarea.Height() - 1
		m.chatView.Width = paneWidth
		m.chatView.Height = max(chatHeight, 3)
		m.textarea.SetWidth(paneWidth)
	}

	m.content.Width = paneWidth
	m.content.Height = contentHeight - m.selectorHeight()

	m.refreshContent()
	m.refreshChat()
}

func (m Model) selectorHeight() int {
	if len(m.topic.Sections) == 0 {
		return 0
	}
	return len(m.topic.Sections) + 2
}

func (m Model) renderOptions(width int) render.Options {
	opts := m.renderOpt
	if opts.Width == 0 && opts.Style == "" {
		opts = render.DefaultOptions()
	}
	return opts.WithWidth(width)
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}

	body := m.topic.Markdown(m.sectionKey())
	if m.topic.Empty() {
		body = fmt.Sprintf("# %s\n\n*Coming soon.*\n", m.topic.Title)
	}

	rendered, err := render.Markdown(body, m.renderOptions(m.content.Width))
	if err != nil {
		m.logger.Warn("failed to render topic", zap.String("topic", m.topic.Key), zap.Error(err))
		rendered = body
	}
	m.content.SetContent(rendered)
}

func (m *Model) refreshChat() {
	if !m.ready || m.session == nil {
		m.chatView.SetContent("")
		return
	}

	var b strings.Builder
	history := m.session.History()
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleUser:
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case llm.RoleAssistant:
			b.WriteString(assistantLabelStyle.Render("Farm Guru"))
			b.WriteString("\n")
			rendered, err := render.Markdown(msg.Content, m.renderOptions(m.chatView.Width))
			if err != nil {
				rendered = msg.Content
			}
			b.WriteString(strings.TrimRight(rendered, "\n"))
			b.WriteString("\n\n")
		}
	}

	if m.streaming {
		b.WriteString(assistantLabelStyle.Render("Farm Guru"))
		b.WriteString("\n")
		if m.partial == "" {
			b.WriteString(hintStyle.Render("thinking..."))
		} else {
			b.WriteString(m.partial + streamCursor)
		}
		b.WriteString("\n")
	}

	m.chatView.SetContent(b.String())
	m.chatView.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return hintStyle.Render("  Initializing...")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderMain())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Farm Guru"))
	b.WriteString("\n\n")

	inner := sidebarWidth - 4
	for i, t := range m.topics {
		b.WriteString(m.menuLine(i, t.Title, t.Key == m.topic.Key, inner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	toggle := "[ ] Chat with Farm Guru"
	if m.chatOn {
		toggle = "[x] Chat with Farm Guru"
	}
	b.WriteString(m.menuLine(len(m.topics), toggle, m.chatOn, inner))

	style := sidebarStyle
	if m.focus == focusMenu {
		style = sidebarFocusedStyle
	}
	return style.Width(sidebarWidth - 2).Height(max(m.height-4, 6)).Render(b.String())
}

func (m Model) menuLine(index int, label string, selected bool, width int) string {
	cursor := "  "
	if index == m.cursor {
		cursor = cursorStyle.Render("▸ ")
	}

	label = ansi.Truncate(label, width-2, "…")
	if selected {
		return cursor + menuSelectedStyle.Render(label)
	}
	return cursor + menuItemStyle.Render(label)
}

func (m Model) renderMain() string {
	var top strings.Builder
	if len(m.topic.Sections) > 0 {
		top.WriteString(promptStyle.Render(m.topic.Prompt))
		top.WriteString("\n")
		for i, s := range m.topic.Sections {
			mark := "( ) "
			if i == m.section {
				mark = "(•) "
			}
			line := ansi.Truncate(mark+s.Title, m.content.Width, "…")
			if i == m.section {
				line = menuSelectedStyle.Render(line)
			}
			top.WriteString(line)
			top.WriteString("\n")
		}
		top.WriteString("\n")
	}
	top.WriteString(m.content.View())

	style := paneStyle
	if m.focus == focusSections {
		style = paneFocusedStyle
	}
	contentPane := style.Width(m.content.Width).Render(top.String())

	if !m.chatOn {
		return contentPane
	}

	var chatBody strings.Builder
	chatBody.WriteString(m.chatView.View())
	chatBody.WriteString("\n")
	if m.err != nil {
		chatBody.WriteString(errorStyle.Render(ansi.Truncate("⚠ "+describeError(m.err), m.chatView.Width, "…")))
	}
	chatBody.WriteString("\n")
	chatBody.WriteString(m.textarea.View())

	style = paneStyle
	if m.focus == focusInput {
		style = paneFocusedStyle
	}
	chatPane := style.Width(m.chatView.Width).Render(chatBody.String())

	return lipgloss.JoinVertical(lipgloss.Left, contentPane, chatPane)
}

func (m Model) renderStatusBar() string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑↓", "Select"},
		{"Tab", "Focus"},
		{"Ctrl+T", "Chat"},
		{"PgUp/PgDn", "Scroll"},
	}
	if m.focus == focusInput {
		shortcuts = append(shortcuts, struct{ key, desc string }{"Enter", "Send"}, struct{ key, desc string }{"Esc", "Cancel"})
	} else {
		shortcuts = append(shortcuts, struct{ key, desc string }{"q", "Quit"})
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return " " + strings.Join(items, "  │  ")
}
