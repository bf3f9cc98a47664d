package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/malonaz/tchat/internal/history"
	"github.com/malonaz/tchat/internal/markdown"
	"github.com/malonaz/tchat/internal/session"
	"github.com/malonaz/tchat/internal/types"
)

// Layout constants
const (
	minTextareaHeight    = 3
	maxTextareaHeight    = 20
	defaultTextareaWidth = 80
	minViewportHeight    = 1
)

// Message types for Bubble Tea
type (
	// viewChangedMsg is sent by the session whenever the reconciled view
	// or the lifecycle state changed.
	viewChangedMsg struct{}
	submitErrorMsg struct{ err error }
)

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	session *session.Session
	model   string

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	renderer *markdown.Renderer

	// UI state
	width         int
	height        int
	ready         bool
	err           error
	quitting      bool
	windowFocused bool

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	history           *history.History
	historyNavigating bool
}

// NewModel creates the chat screen over a loaded session.
func NewModel(s *session.Session, modelName string) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Ctrl+J to send, Alt+P/N for history, Ctrl+C to quit)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(defaultTextareaWidth)
	ta.SetHeight(minTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	renderer, err := markdown.NewRenderer(defaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	m := &Model{
		session:       s,
		model:         modelName,
		textarea:      ta,
		spinner:       sp,
		renderer:      renderer,
		history:       history.New(),
		windowFocused: true,
	}
	s.SetOnChange(m.notifyViewChanged)
	return m, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// notifyViewChanged is invoked from session goroutines; it hops onto the
// program loop so all rendering happens there.
func (m *Model) notifyViewChanged() {
	if p := m.getProgram(); p != nil {
		p.Send(viewChangedMsg{})
	}
}

func (m *Model) streaming() bool {
	state := m.session.State()
	return state == session.StateSubmitted || state == session.StateStreaming
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.windowFocused = true
		m.textarea.Focus()
		cmds = append(cmds, textarea.Blink)
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, nil

	case tea.KeyMsg:
		// Handle history navigation (Alt)
		if msg.Alt && !m.streaming() {
			switch msg.String() {
			case "alt+p":
				if entry, ok := m.history.Previous(m.textarea.Value()); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			case "alt+n":
				if entry, ok := m.history.Next(); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			}
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			if m.streaming() {
				// Cancel streaming; the partial reply is discarded, the
				// sent message stays.
				m.session.Stop()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyCtrlJ:
			if !m.streaming() && strings.TrimSpace(m.textarea.Value()) != "" {
				return m, m.sendMessage()
			}

		case tea.KeyCtrlR:
			if !m.streaming() {
				return m, m.resume()
			}

		case tea.KeyEnter:
			// Reset history navigation on Enter (new line in textarea)
			if m.historyNavigating {
				m.history.Reset()
				m.historyNavigating = false
			}
		}

		// Reset history navigation on any other key press that modifies input
		if !m.streaming() && m.historyNavigating {
			switch msg.Type {
			case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
				m.history.Reset()
				m.historyNavigating = false
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case viewChangedMsg:
		m.err = m.session.Err()
		wasAtBottom := m.viewport.AtBottom()
		m.recalculateLayout()
		if wasAtBottom {
			m.viewport.GotoBottom()
		}
		return m, nil

	case submitErrorMsg:
		m.err = msg.err
		m.recalculateLayout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update textarea when not streaming
	if !m.streaming() {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	// Update viewport, but don't pass conflicting keys while typing
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.streaming() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			switch msg.String() {
			case "j", "k", "g", "G", "u", "d", "b", "ctrl+u", "ctrl+d", "f", " ":
			// Don't pass vim navigation keys to viewport while typing
			default:
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	b.WriteString(viewportStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.streaming() {
		b.WriteString(fmt.Sprintf("%s Generating...\n", m.spinner.View()))
	} else {
		b.WriteString(textAreaStyle.Render(m.textarea.View()))
		b.WriteString("\n")
	}

	if m.session.State() == session.StateError {
		b.WriteString(helpStyle.Render("Press Ctrl+R to retry"))
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return b.String()
}

func (m *Model) renderTitle() string {
	title := fmt.Sprintf(" 🤖 %s │ 💬 %s │ %s ", m.model, m.session.ChatID(), m.session.State())
	return titleStyle.Width(m.width).Render(title)
}

func (m *Model) renderMessages() string {
	var b strings.Builder

	streamingID := m.session.StreamingID()
	messages := m.session.Messages()
	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch message.Role {
		case types.RoleUser:
			rendered := m.renderer.Render(message.ID, message.Content)
			b.WriteString(userMessageStyle.Render(rendered))

		case types.RoleAssistant:
			var rendered string
			if message.ID == streamingID {
				rendered = m.renderer.RenderStreaming(message.ID, message.Content)
			} else {
				rendered = m.renderer.Render(message.ID, message.Content)
			}
			b.WriteString(assistantMessageStyle.Render(rendered))

		case types.RoleSystem:
			b.WriteString(systemMessageStyle.Render(fmt.Sprintf("System: %s", message.Content)))
		}
	}

	if m.streaming() {
		b.WriteString(spinnerStyle.Render("▋"))
	}

	return b.String()
}

func (m *Model) sendMessage() tea.Cmd {
	userInput := strings.TrimSpace(m.textarea.Value())
	if userInput == "" {
		return nil
	}

	m.history.Add(userInput)
	m.historyNavigating = false
	m.textarea.Reset()
	m.err = nil

	s := m.session
	go func() {
		if err := s.Submit(context.Background(), userInput, nil); err != nil {
			if p := m.getProgram(); p != nil {
				p.Send(submitErrorMsg{err: err})
			}
		}
	}()

	m.recalculateLayout()
	m.viewport.GotoBottom()
	return m.spinner.Tick
}

func (m *Model) resume() tea.Cmd {
	m.err = nil
	s := m.session
	go func() {
		if err := s.Resume(); err != nil {
			if p := m.getProgram(); p != nil {
				p.Send(submitErrorMsg{err: err})
			}
		}
	}()
	return m.spinner.Tick
}

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < minTextareaHeight {
		newHeight = minTextareaHeight
	}
	if newHeight > maxTextareaHeight {
		newHeight = maxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)
		heightDiff := newHeight - oldHeight
		m.recalculateLayout()
		// Compensate scroll so the content in view stays put.
		if heightDiff != 0 && m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

// recalculateLayout adjusts viewport and textarea dimensions.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := m.height - headerHeight
	viewportWidth := m.width
	viewportHeight -= m.textarea.Height() + inputBorderHeight
	if m.err != nil {
		viewportHeight -= 1
	}
	if viewportHeight < minViewportHeight {
		viewportHeight = minViewportHeight
	}
	m.renderer.SetWidth(viewportWidth - messageHorizontalFrameSize)

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - textAreaStyle.GetHorizontalPadding() - textAreaStyle.GetHorizontalBorderSize())
}
