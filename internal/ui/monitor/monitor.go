// # internal/ui/monitor/monitor.go
package monitor

import (
	"fmt"
	"path/filepath"
	"time"

	coreapp "transmile/internal/app"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	builtStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	failed      bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	report     *coreapp.Report
	changed    int
	lastErr    error
	lastUpdate time.Time
	rebuilds   int
}

type updateMsg struct {
	report  *coreapp.Report
	changed int
	err     error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.report = msg.report
		m.changed = msg.changed
		m.lastErr = msg.err
		m.lastUpdate = time.Now()
		m.rebuilds++
		m.list.SetItems(itemsFor(msg.report))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// itemsFor lists failures first, then files written in the pass. Fresh,
// skipped and ignored files are left out.
func itemsFor(report *coreapp.Report) []list.Item {
	items := []list.Item{}
	if report == nil {
		return items
	}
	for _, f := range report.Failures() {
		items = append(items, item{
			title:  "Failed: " + filepath.Base(f.Path),
			desc:   f.Err.Error(),
			failed: true,
		})
	}
	for _, f := range report.Files {
		switch f.Status {
		case coreapp.StatusTranspiled, coreapp.StatusCopied:
			items = append(items, item{
				title: fmt.Sprintf("%s: %s", statusLabel(f.Status), filepath.Base(f.Path)),
				desc:  fmt.Sprintf("%s in %v", f.Path, f.Duration.Round(time.Microsecond)),
			})
		}
	}
	return items
}

func statusLabel(s coreapp.Status) string {
	switch s {
	case coreapp.StatusTranspiled:
		return "Transpiled"
	case coreapp.StatusCopied:
		return "Copied"
	default:
		return string(s)
	}
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d rebuilds | %d changed",
		m.lastUpdate.Format("15:04:05"), m.rebuilds, m.changed))

	var summary string
	switch {
	case m.report == nil:
		summary = statusStyle.Render("waiting for first build")
	case m.report.Count(coreapp.StatusFailed) == 0:
		summary = successStyle.Render(fmt.Sprintf("✅ Up to date (%d transpiled, %d fresh)",
			m.report.Count(coreapp.StatusTranspiled), m.report.Count(coreapp.StatusFresh)))
	default:
		summary = fmt.Sprintf("⚠️  %s | %s",
			failedStyle.Render(fmt.Sprintf("%d Failed", m.report.Count(coreapp.StatusFailed))),
			builtStyle.Render(fmt.Sprintf("%d Transpiled", m.report.Count(coreapp.StatusTranspiled))))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Transmile Watch Monitor"), status, summary)
	if m.lastErr != nil && m.report != nil && m.report.Count(coreapp.StatusFailed) == 0 {
		header += failedStyle.Render(m.lastErr.Error()) + "\n"
	}
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Last Rebuild"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

// Run shows the monitor until the user quits. Updates from app are forwarded
// to the view; initial is shown first when non-nil.
func Run(app *coreapp.App, initial *coreapp.Report) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{report: update.Report, changed: len(update.Changed), err: update.Err})
	})

	if initial != nil {
		go p.Send(updateMsg{report: initial})
	}

	_, err := p.Run()
	return err
}
