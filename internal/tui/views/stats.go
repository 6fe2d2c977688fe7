package views

import (
	"fmt"

	"modbridge/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Stats shows the backend's counts
type Stats struct {
	stats  domain.Stats
	width  int
	height int
}

// NewStats creates a new stats view
func NewStats(stats domain.Stats) Stats {
	return Stats{stats: stats, width: 80, height: 24}
}

// SetStats replaces the displayed counts
func (s Stats) SetStats(stats domain.Stats) Stats {
	s.stats = stats
	return s
}

// Init implements tea.Model
func (s Stats) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s Stats) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

// View implements tea.Model
func (s Stats) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("69")).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		PaddingLeft(2).
		Width(18)

	rows := []struct {
		label string
		value int
	}{
		{"Installed mods", s.stats.InstalledMods},
		{"Active", s.stats.ActiveMods},
		{"Inactive", s.stats.InactiveMods},
		{"Presets", s.stats.Presets},
	}

	output := titleStyle.Render("Stats") + "\n"
	for _, r := range rows {
		output += labelStyle.Render(r.label) + fmt.Sprintf("%d", r.value) + "\n"
	}
	return output
}
