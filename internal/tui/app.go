package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/shybar/internal/ipc"
)

const pollInterval = time.Second

type tickMsg time.Time

type statusMsg struct {
	status *ipc.StatusData
	err    error
}

// model is the root bubbletea model for the dashboard.
type model struct {
	client *ipc.Client

	// Last poll result. status is nil while the daemon is unreachable.
	status    *ipc.StatusData
	statusErr string

	// Terminal dimensions
	width  int
	height int
}

func newModel() model {
	return model{
		client: ipc.NewClient(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollStatus(client *ipc.Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return statusMsg{status: status, err: err}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.client), tickCmd())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m, pollStatus(m.client)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(pollStatus(m.client), tickCmd())

	case statusMsg:
		if msg.err != nil {
			m.status = nil
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		m.statusErr = ""
		return m, nil
	}

	return m, nil
}
