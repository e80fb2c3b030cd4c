package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	helpBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(18).
			Align(lipgloss.Right).
			PaddingRight(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	shownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	hiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	contentStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := m.renderStatusBar()
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		m.renderContent(contentHeight),
		helpBar,
	)
}

func (m model) renderStatusBar() string {
	var status string
	if m.status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		uptime := (time.Duration(m.status.UptimeSeconds) * time.Second).String()
		status = dot + " daemon connected  uptime:" + uptime
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}
	return statusBarStyle.Width(m.width).Render(status)
}

func (m model) renderContent(height int) string {
	if m.status == nil {
		msg := "waiting for daemon"
		if m.statusErr != "" {
			msg = m.statusErr
		}
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render(msg)
	}

	s := m.status

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	visibility := hiddenStyle.Render("hidden")
	if s.Visible {
		visibility = shownStyle.Render("visible")
	}

	panelClass := s.PanelClass
	if panelClass == "" {
		panelClass = "(any dock)"
	}

	lines := []string{
		"",
		labelStyle.Render("Panel") + visibility,
		row("Window", fmt.Sprintf("0x%08x", s.PanelWindow)),
		row("Class", panelClass),
		"",
		row("Super Held", yesNo(s.Held)),
		row("Overlay Active", yesNo(s.OverlayActive)),
		row("Within Grace", yesNo(s.WithinGrace)),
		"",
		row("Dropped Events", strconv.FormatUint(s.DroppedEvents, 10)),
		"",
		dimStyle.Render("  Hold Super to show the panel"),
	}

	content := strings.Join(lines, "\n")
	return contentStyle.Width(m.width).Height(height).Render(content)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func renderHelpBar(width int) string {
	help := "r: refresh now  q/ctrl-c: quit"
	return helpBarStyle.Width(width).Render(help)
}
