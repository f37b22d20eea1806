package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/rrfars/internal/survey"
)

// noSelection means no radio option is highlighted yet.
const noSelection = -1

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EEEEEE")).MarginBottom(1)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).PaddingRight(3)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).PaddingRight(3)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Survey is what the view needs from the component driving it.
type Survey interface {
	TaskName() string
	CurrentQuestion() (survey.Question, bool)
	Progress() (position, total int)
	Adjective(idx int) (string, error)
	SubjectDidRespond(selection int)
	IsComplete() bool
}

type surveyKeyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Confirm key.Binding
	Pick    key.Binding
}

func (k surveyKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Pick, k.Confirm}
}

func (k surveyKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultSurveyKeys() surveyKeyMap {
	return surveyKeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "up", "h", "k"),
			key.WithHelp("←", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "down", "l", "j"),
			key.WithHelp("→", "next"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "confirm"),
		),
		Pick: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "choose"),
		),
	}
}

// SurveyView renders the current question with a five-point radio control.
type SurveyView struct {
	survey   Survey
	keys     surveyKeyMap
	help     help.Model
	cursor   int
	question string
	width    int
}

// NewSurveyView binds a view to s.
func NewSurveyView(s Survey) *SurveyView {
	return &SurveyView{
		survey: s,
		keys:   defaultSurveyKeys(),
		help:   help.New(),
		cursor: noSelection,
	}
}

// Init implements tea.Model.
func (v *SurveyView) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (v *SurveyView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	v.syncQuestion()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.help.Width = msg.Width
	case tea.KeyMsg:
		if v.survey.IsComplete() {
			return v, nil
		}
		switch {
		case key.Matches(msg, v.keys.Prev):
			if v.cursor <= 0 {
				v.cursor = 0
			} else {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Next):
			if v.cursor < survey.ScalePoints-1 {
				v.cursor++
			}
		case key.Matches(msg, v.keys.Pick):
			v.cursor = int(msg.String()[0] - '1')
			v.respond()
		case key.Matches(msg, v.keys.Confirm):
			v.respond()
		}
	}
	return v, nil
}

func (v *SurveyView) respond() {
	if v.cursor == noSelection {
		return
	}
	v.survey.SubjectDidRespond(v.cursor)
	v.syncQuestion()
}

// syncQuestion clears the selection whenever a different question is shown.
func (v *SurveyView) syncQuestion() {
	q, ok := v.survey.CurrentQuestion()
	id := ""
	if ok {
		id = q.ID
	}
	if id != v.question {
		v.question = id
		v.cursor = noSelection
	}
}

// Selection returns the highlighted option, or -1.
func (v *SurveyView) Selection() int {
	return v.cursor
}

// View implements tea.Model.
func (v *SurveyView) View() string {
	if v.survey.IsComplete() {
		return doneStyle.Render("Thank you. This part of the session is complete.")
	}
	q, ok := v.survey.CurrentQuestion()
	if !ok {
		return progressStyle.Render("Waiting for the session to begin...")
	}
	position, total := v.survey.Progress()
	lines := []string{
		progressStyle.Render(fmt.Sprintf("%s · %d of %d", v.survey.TaskName(), position, total)),
		questionStyle.Render(q.Text),
		v.renderOptions(),
		"",
		v.help.View(v.keys),
	}
	return strings.Join(lines, "\n")
}

func (v *SurveyView) renderOptions() string {
	options := make([]string, 0, survey.ScalePoints)
	for i := 0; i < survey.ScalePoints; i++ {
		label, err := v.survey.Adjective(i)
		if err != nil {
			return warnStyle.Render(err.Error())
		}
		mark := "( )"
		style := optionStyle
		if i == v.cursor {
			mark = "(•)"
			style = selectedStyle
		}
		options = append(options, style.Render(fmt.Sprintf("%s %d %s", mark, i+1, label)))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, options...)
	if v.width > 0 && lipgloss.Width(row) > v.width {
		return lipgloss.JoinVertical(lipgloss.Left, options...)
	}
	return row
}
