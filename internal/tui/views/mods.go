package views

import (
	"fmt"

	"modbridge/internal/core"
	"modbridge/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToggleModMsg is sent to flip a mod's active state
type ToggleModMsg struct {
	ModID string
}

// DeleteModMsg is sent to delete a mod
type DeleteModMsg struct {
	ModID string
}

// Mods is the mod list view
type Mods struct {
	all        []domain.Mod
	visible    []domain.Mod
	characters []string // "" means all characters
	charIndex  int
	sort       core.SortKey
	search     textinput.Model
	searching  bool
	selected   int
	width      int
	height     int
}

// NewMods creates a new mod list view
func NewMods(mods []domain.Mod) Mods {
	ti := textinput.New()
	ti.Placeholder = "Filter mods..."
	ti.CharLimit = 100
	ti.Width = 40

	m := Mods{
		sort:   core.SortByTitle,
		search: ti,
		width:  80,
		height: 24,
	}
	return m.SetMods(mods)
}

// SetMods replaces the listed mods, keeping the cursor on the same mod when it still exists
func (m Mods) SetMods(mods []domain.Mod) Mods {
	var selectedID string
	if mod := m.SelectedMod(); mod != nil {
		selectedID = mod.ID
	}

	m.all = mods
	m.characters = []string{""}
	for _, c := range core.Characters(mods) {
		m.characters = append(m.characters, c.Name)
	}
	if m.charIndex >= len(m.characters) {
		m.charIndex = 0
	}

	m.refilter()
	for i, mod := range m.visible {
		if mod.ID == selectedID {
			m.selected = i
		}
	}
	return m
}

func (m *Mods) refilter() {
	filter := core.ModFilter{
		Character: m.characters[m.charIndex],
		Query:     m.search.Value(),
	}
	m.visible = core.SortMods(core.FilterMods(m.all, filter), m.sort)
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

// Selected returns the cursor index
func (m Mods) Selected() int {
	return m.selected
}

// ModCount returns the number of visible mods
func (m Mods) ModCount() int {
	return len(m.visible)
}

// Character returns the character filter, empty for all
func (m Mods) Character() string {
	return m.characters[m.charIndex]
}

// SortKey returns the current sort order
func (m Mods) SortKey() core.SortKey {
	return m.sort
}

// IsSearching reports whether the filter input has focus
func (m Mods) IsSearching() bool {
	return m.searching
}

// SelectedMod returns the mod under the cursor
func (m Mods) SelectedMod() *domain.Mod {
	if len(m.visible) == 0 || m.selected >= len(m.visible) {
		return nil
	}
	return &m.visible[m.selected]
}

// Init implements tea.Model
func (m Mods) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Mods) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearch(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Mods) handleSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Reset()
		m.search.Blur()
		m.refilter()
		return m, nil

	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refilter()
	return m, cmd
}

func (m Mods) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "h", "left":
		m.charIndex--
		if m.charIndex < 0 {
			m.charIndex = len(m.characters) - 1
		}
		m.selected = 0
		m.refilter()
		return m, nil

	case "l", "right":
		m.charIndex = (m.charIndex + 1) % len(m.characters)
		m.selected = 0
		m.refilter()
		return m, nil

	case "s":
		m.sort = m.sort.Next()
		m.refilter()
		return m, nil
	}

	if len(m.visible) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.selected--
		if m.selected < 0 {
			m.selected = len(m.visible) - 1
		}

	case "down", "j":
		m.selected++
		if m.selected >= len(m.visible) {
			m.selected = 0
		}

	case " ":
		id := m.visible[m.selected].ID
		return m, func() tea.Msg {
			return ToggleModMsg{ModID: id}
		}

	case "d", "delete":
		id := m.visible[m.selected].ID
		return m, func() tea.Msg {
			return DeleteModMsg{ModID: id}
		}

	case "home", "g":
		m.selected = 0

	case "end", "G":
		m.selected = len(m.visible) - 1
	}

	return m, nil
}

// View implements tea.Model
func (m Mods) View() string {
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

	inactiveStyle := lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(lipgloss.Color("241"))

	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		PaddingLeft(4)

	output := titleStyle.Render("Mods") + "\n"

	character := m.Character()
	if character == "" {
		character = "all"
	}
	output += infoStyle.Render(fmt.Sprintf("Character: %s  Sort: %s", character, m.sort)) + "\n"
	if m.searching || m.search.Value() != "" {
		output += "Filter: " + m.search.View() + "\n"
	}
	output += "\n"

	if len(m.all) == 0 {
		output += itemStyle.Render("No mods installed.") + "\n"
		return output
	}
	if len(m.visible) == 0 {
		output += itemStyle.Render("No mods match the filter.") + "\n"
		return output
	}

	for i, mod := range m.visible {
		cursor := "  "
		style := itemStyle

		if i == m.selected {
			cursor = "▸ "
			style = selectedStyle
		} else if !mod.IsActive {
			style = inactiveStyle
		}

		status := "[✓]"
		if !mod.IsActive {
			status = "[ ]"
		}

		output += style.Render(fmt.Sprintf("%s%s %s", cursor, status, mod.Title)) + "\n"

		if i == m.selected {
			output += detailStyle.Render(fmt.Sprintf("Character: %s  ID: %s", mod.CharacterName(), mod.ID)) + "\n"
			output += detailStyle.Render(fmt.Sprintf("Added: %s", mod.DateAdded.Format("2006-01-02"))) + "\n\n"
		}
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	output += helpStyle.Render("space: toggle  d: delete  h/l: character  /: filter  s: sort")

	return output
}
