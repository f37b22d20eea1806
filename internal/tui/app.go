// internal/tui/app.go
//
// App is the root bubbletea model the host runs. It frames a component's
// main view, forwards every message to it, and quits once the host reports
// the component finished.
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(1, 2)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// AppOption customizes App construction for tests and alternate hosts.
type AppOption func(*App)

// WithFooter replaces the hint rendered under the frame.
func WithFooter(text string) AppOption {
	return func(a *App) {
		a.footer = text
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	title  string
	body   tea.Model
	done   func() bool
	footer string

	aborted bool
	quit    bool

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp frames body under title. done is polled after every message; when
// it reports true the program quits.
func NewApp(title string, body tea.Model, done func() bool, opts ...AppOption) *App {
	app := &App{
		title:  strings.TrimSpace(title),
		body:   body,
		done:   done,
		footer: "ctrl+c to pause the session",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Aborted reports whether the operator interrupted the session.
func (a *App) Aborted() bool {
	return a.aborted
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.body == nil {
		return nil
	}
	return a.body.Init()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.quit {
		return a, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.aborted = true
			a.quit = true
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	if a.body != nil {
		var next tea.Model
		next, cmd = a.body.Update(msg)
		if next != nil {
			a.body = next
		}
	}
	if a.done != nil && a.done() {
		a.quit = true
		return a, tea.Batch(cmd, tea.Quit)
	}
	return a, cmd
}

// View renders the framed component view.
func (a *App) View() string {
	body := ""
	if a.body != nil {
		body = a.body.View()
	}
	frame := frameStyle
	if a.width > 4 {
		frame = frame.Width(a.width - 4)
	}
	sections := []string{}
	if a.title != "" {
		sections = append(sections, titleStyle.Render(a.title))
	}
	sections = append(sections, frame.Render(body))
	if a.footer != "" && !a.quit {
		sections = append(sections, footerStyle.Render(a.footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
