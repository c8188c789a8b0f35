package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codeauditor/codeauditor/internal/engine"
)

// watchModel is the Bubble Tea model backing the "watch" command: a
// spinner and progress bar tracking the in-flight audit, plus the last
// completed review's headline.
type watchModel struct {
	path     string
	spin     spinner.Model
	bar      progress.Model
	stage    string
	percent  float64
	active   bool
	lastLine string
	lastErr  error
}

func newWatchModel(path string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return watchModel{
		path: path,
		spin: s,
		bar:  progress.New(progress.WithDefaultGradient()),
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case watchMsg:
		if msg.progress != nil {
			m.active = true
			m.stage = msg.progress.Stage
			m.percent = float64(msg.progress.Percentage) / 100
		}
		if msg.result != nil {
			m.active = false
			m.percent = 1
			m.lastLine = summarizeResult(*msg.result)
		}
		if msg.err != nil {
			m.lastErr = msg.err
		}
		return m, nil
	}
	return m, nil
}

func (m watchModel) View() string {
	var b string
	b += fmt.Sprintf("watching %s (ctrl+c to stop)\n\n", m.path)
	if m.active {
		b += fmt.Sprintf("%s auditing — %s\n%s\n", m.spin.View(), m.stage, m.bar.ViewAs(m.percent))
	} else {
		b += "idle, waiting for a write\n"
	}
	if m.lastLine != "" {
		b += "\n" + m.lastLine + "\n"
	}
	if m.lastErr != nil {
		b += "\nerror: " + m.lastErr.Error() + "\n"
	}
	return b
}

func summarizeResult(r engine.AuditResult) string {
	return fmt.Sprintf("last audit: %s  overall=%d  success=%v  duration=%.2fs",
		verdictBadge(r.Review.Verdict), r.Review.Overall, r.Success, r.Duration)
}
