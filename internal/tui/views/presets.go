package views

import (
	"fmt"

	"modbridge/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ApplyPresetMsg is sent to make a preset the active set
type ApplyPresetMsg struct {
	PresetID string
}

// DeletePresetMsg is sent to delete a preset
type DeletePresetMsg struct {
	PresetID string
}

// SavePresetMsg is sent to save the active mods as a new preset
type SavePresetMsg struct {
	Name string
}

// Presets is the preset management view
type Presets struct {
	presets   []domain.Preset
	applied   map[string]bool
	selected  int
	creating  bool
	nameInput textinput.Model
	width     int
	height    int
}

// NewPresets creates a new presets view. applied marks presets matching the active set.
func NewPresets(presets []domain.Preset, applied map[string]bool) Presets {
	ti := textinput.New()
	ti.Placeholder = "Preset name..."
	ti.CharLimit = domain.MaxPresetNameLen
	ti.Width = 30

	p := Presets{
		nameInput: ti,
		width:     80,
		height:    24,
	}
	return p.SetPresets(presets, applied)
}

// SetPresets replaces the listed presets
func (p Presets) SetPresets(presets []domain.Preset, applied map[string]bool) Presets {
	p.presets = presets
	p.applied = applied
	if p.selected >= len(presets) {
		p.selected = max(len(presets)-1, 0)
	}
	return p
}

// Selected returns the cursor index
func (p Presets) Selected() int {
	return p.selected
}

// PresetCount returns the number of presets
func (p Presets) PresetCount() int {
	return len(p.presets)
}

// IsCreating returns whether the name prompt is open
func (p Presets) IsCreating() bool {
	return p.creating
}

// SelectedPreset returns the preset under the cursor
func (p Presets) SelectedPreset() *domain.Preset {
	if len(p.presets) == 0 || p.selected >= len(p.presets) {
		return nil
	}
	return &p.presets[p.selected]
}

// Init implements tea.Model
func (p Presets) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p Presets) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.creating {
			return p.handleCreateMode(msg)
		}
		return p.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	}

	return p, nil
}

func (p Presets) handleCreateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, nil

	case tea.KeyEnter:
		name := p.nameInput.Value()
		if name == "" {
			return p, nil
		}
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, func() tea.Msg {
			return SavePresetMsg{Name: name}
		}
	}

	var cmd tea.Cmd
	p.nameInput, cmd = p.nameInput.Update(msg)
	return p, cmd
}

func (p Presets) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "n" {
		p.creating = true
		p.nameInput.Focus()
		return p, textinput.Blink
	}

	preset := p.SelectedPreset()
	if preset == nil {
		return p, nil
	}
	id := preset.ID

	switch msg.String() {
	case "up", "k":
		p.selected--
		if p.selected < 0 {
			p.selected = len(p.presets) - 1
		}

	case "down", "j":
		p.selected++
		if p.selected >= len(p.presets) {
			p.selected = 0
		}

	case "enter", " ":
		return p, func() tea.Msg {
			return ApplyPresetMsg{PresetID: id}
		}

	case "d", "delete":
		return p, func() tea.Msg {
			return DeletePresetMsg{PresetID: id}
		}

	case "home", "g":
		p.selected = 0

	case "end", "G":
		p.selected = len(p.presets) - 1
	}

	return p, nil
}

// View implements tea.Model
func (p Presets) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("69")).
		MarginBottom(1)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	itemStyle := lipgloss.NewStyle().
		PaddingLeft(2)

	selectedStyle := lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(lipgloss.Color("205")).
		Bold(true)

	appliedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("82"))

	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		PaddingLeft(4)

	output := titleStyle.Render("Presets") + "\n"

	if p.creating {
		output += "Save active mods as: " + p.nameInput.View() + "\n\n"
		output += infoStyle.Render("enter: save  esc: cancel")
		return output
	}

	if len(p.presets) == 0 {
		output += itemStyle.Render("No presets saved.") + "\n\n"
		output += infoStyle.Render("Press 'n' to save the active mods as a preset.") + "\n"
		return output
	}

	for i, preset := range p.presets {
		cursor := "  "
		style := itemStyle
		if i == p.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		status := ""
		if p.applied[preset.ID] {
			status = appliedStyle.Render(" [applied]")
		}

		output += style.Render(fmt.Sprintf("%s%s", cursor, preset.Name)) + status + "\n"

		if i == p.selected {
			output += detailStyle.Render(fmt.Sprintf("Mods: %d", len(preset.ModIDs))) + "\n"
			if !preset.CreatedAt.IsZero() {
				output += detailStyle.Render(fmt.Sprintf("Created: %s", preset.CreatedAt.Format("2006-01-02"))) + "\n"
			}
			output += "\n"
		}
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	output += helpStyle.Render("enter: apply  n: save active  d: delete")

	return output
}
