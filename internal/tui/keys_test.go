package tui_test

import (
	"testing"

	"modbridge/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeyMap_VimMode(t *testing.T) {
	km := tui.NewKeyMap("vim")

	assert.True(t, km.IsUp(runeKey('k')))
	assert.True(t, km.IsDown(runeKey('j')))
	assert.True(t, km.IsLeft(runeKey('h')))
	assert.True(t, km.IsRight(runeKey('l')))
	assert.True(t, km.IsCancel(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.True(t, km.IsQuit(runeKey('q')))
	assert.True(t, km.IsRefresh(runeKey('r')))
	assert.True(t, km.IsHelp(runeKey('?')))
}

func TestKeyMap_StandardMode(t *testing.T) {
	km := tui.NewKeyMap("standard")

	assert.True(t, km.IsUp(tea.KeyMsg{Type: tea.KeyUp}))
	assert.True(t, km.IsDown(tea.KeyMsg{Type: tea.KeyDown}))
	assert.True(t, km.IsLeft(tea.KeyMsg{Type: tea.KeyLeft}))
	assert.True(t, km.IsRight(tea.KeyMsg{Type: tea.KeyRight}))
	assert.True(t, km.IsRefresh(tea.KeyMsg{Type: tea.KeyF5}))

	assert.False(t, km.IsUp(runeKey('k')))
	assert.False(t, km.IsDown(runeKey('j')))
}

func TestKeyMap_Help(t *testing.T) {
	vimKm := tui.NewKeyMap("vim")
	stdKm := tui.NewKeyMap("standard")

	assert.Contains(t, vimKm.NavigationHelp(), "j/k")
	assert.Contains(t, stdKm.NavigationHelp(), "↑/↓")
	assert.Contains(t, vimKm.FullHelp(), "Toggle active")
	assert.Contains(t, stdKm.FullHelp(), "Home")
}

func TestKeyMap_DefaultsToVim(t *testing.T) {
	km := tui.NewKeyMap("")

	assert.Equal(t, "vim", km.Mode())
	assert.True(t, km.IsUp(runeKey('k')))
}
