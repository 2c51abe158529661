package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ---------- messages sent from the shell goroutine via program.Send() ----------

type readInputMsg struct{}

type inputResult struct {
	text string
	err  error
}

type userMsg struct{ text string }
type thinkingStartMsg struct{}
type thinkingDoneMsg struct{}
type responseMsg struct{ label, text string }
type systemMsg struct{ text string }
type warningMsg struct{ text string }
type successMsg struct{ text string }
type errorMsg struct{ text string }
type statusMsg struct{ mode, state string }
type shellDoneMsg struct{ err error }

// TUIConfig carries the values shown on the welcome line and status bar.
type TUIConfig struct {
	Version   string
	Provider  string
	Model     string
	SessionID string
}

// ---------- styles ----------

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	responseBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color("7")).
				PaddingLeft(1)
)

// ---------- Model ----------

const statusBarHeight = 1
const inputHeight = 1

// Model is the bubbletea model managing the full TUI state.
type Model struct {
	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	width     int
	height    int

	content   *strings.Builder // accumulated output
	inputMode bool             // text input is active (waiting for user)
	thinking  bool

	inputCh chan inputResult // send user input back to ReadInput()

	quitting bool

	// status bar
	mode  string
	state string

	cfg TUIConfig

	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int
}

// NewModel creates the initial bubbletea model.
func NewModel(inputCh chan inputResult, cfg TUIConfig) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 8192

	vp := viewport.New(80, 24)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		viewport:  vp,
		textinput: ti,
		spinner:   sp,
		content:   &strings.Builder{},
		inputCh:   inputCh,
		cfg:       cfg,
	}
	m.appendLine(renderWelcome(cfg))
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - statusBarHeight - inputHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
		m.textinput.Width = m.width - 4

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			if m.inputMode {
				m.inputCh <- inputResult{err: fmt.Errorf("interrupted")}
				m.inputMode = false
				m.textinput.Blur()
			}
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.inputMode {
				text := strings.TrimSpace(m.textinput.Value())
				m.textinput.SetValue("")
				m.inputCh <- inputResult{text: text}
				m.inputMode = false
				m.textinput.Blur()
			}
			return m, nil
		}

		if m.inputMode {
			var cmd tea.Cmd
			m.textinput, cmd = m.textinput.Update(msg)
			cmds = append(cmds, cmd)
		}

	// ---------- custom messages from the shell goroutine ----------

	case readInputMsg:
		m.inputMode = true
		m.textinput.Focus()
		cmds = append(cmds, textinput.Blink)

	case userMsg:
		m.appendLine(userStyle.Render("You: " + msg.text))

	case thinkingStartMsg:
		m.thinking = true

	case thinkingDoneMsg:
		m.thinking = false

	case responseMsg:
		m.thinking = false
		body := responseBorderStyle.Render(m.renderMarkdown(msg.text))
		m.appendLine(labelStyle.Render(msg.label) + "\n" + body)

	case systemMsg:
		m.appendLine(systemStyle.Render(msg.text))

	case warningMsg:
		m.appendLine(warningStyle.Render("Warning: " + msg.text))

	case successMsg:
		m.appendLine(successStyle.Render("✓ " + msg.text))

	case errorMsg:
		m.thinking = false
		m.appendLine(errorStyle.Render("Error: " + msg.text))

	case statusMsg:
		m.mode = msg.mode
		m.state = msg.state

	case shellDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoBottom()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var input string
	if m.inputMode {
		input = m.textinput.View()
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + input
}

func (m *Model) renderStatusBar() string {
	status := " " + m.cfg.Provider
	if m.cfg.Model != "" {
		status += "/" + m.cfg.Model
	}
	if m.mode != "" {
		status += " │ mode: " + m.mode
	}
	if m.state != "" {
		status += " │ key: " + m.state
	}
	return statusBarStyle.Width(m.width).Render(status)
}

// renderContent returns the viewport content plus the spinner line while a
// generation call is in flight.
func (m *Model) renderContent() string {
	base := m.content.String()
	if m.thinking {
		return base + "\n" + m.spinner.View() + " Thinking..."
	}
	return base
}

func renderWelcome(cfg TUIConfig) string {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	lines := []string{
		labelStyle.Render("fr3kai " + version),
		systemStyle.Render(fmt.Sprintf("provider: %s  model: %s  session: %s", cfg.Provider, cfg.Model, cfg.SessionID)),
		systemStyle.Render("/help for commands, pgup/pgdn to scroll"),
	}
	return strings.Join(lines, "\n")
}

// ---------- markdown rendering ----------

func (m *Model) getMarkdownRenderer() *glamour.TermRenderer {
	width := m.width
	if width <= 0 {
		width = 80
	}
	wrapWidth := width - 4
	if m.mdRenderer != nil && m.mdRendererWidth == wrapWidth {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdRendererWidth = wrapWidth
	return r
}

func (m *Model) renderMarkdown(text string) string {
	r := m.getMarkdownRenderer()
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func (m *Model) appendLine(text string) {
	m.content.WriteString(text)
	m.content.WriteString("\n")
}
