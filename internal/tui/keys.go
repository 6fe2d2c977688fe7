package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the global keybindings for the TUI
type KeyMap struct {
	mode string
}

// NewKeyMap creates a new keymap for the given mode
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

// IsUp returns true if the key is an "up" navigation key
func (k *KeyMap) IsUp(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyUp || (k.mode == "vim" && msg.String() == "k")
}

// IsDown returns true if the key is a "down" navigation key
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyDown || (k.mode == "vim" && msg.String() == "j")
}

// IsLeft returns true if the key cycles the character filter back
func (k *KeyMap) IsLeft(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyLeft || (k.mode == "vim" && msg.String() == "h")
}

// IsRight returns true if the key cycles the character filter forward
func (k *KeyMap) IsRight(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyRight || (k.mode == "vim" && msg.String() == "l")
}

// IsCancel returns true if the key is a cancel/back key
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc
}

// IsQuit returns true if the key is a quit key
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsHelp returns true if the key should show help
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// IsRefresh returns true if the key reloads state from the backend
func (k *KeyMap) IsRefresh(msg tea.KeyMsg) bool {
	return msg.String() == "r" || msg.Type == tea.KeyF5
}

// NavigationHelp returns help text for navigation keys
func (k *KeyMap) NavigationHelp() string {
	if k.mode == "vim" {
		return "j/k: navigate  h/l: character"
	}
	return "↑/↓: navigate  ←/→: character"
}

// FullHelp returns complete help text
func (k *KeyMap) FullHelp() string {
	nav := `Navigation:
  j/k     Move down/up
  h/l     Previous/next character
  g/G     Go to first/last item`
	if k.mode != "vim" {
		nav = `Navigation:
  ↑/↓     Move up/down
  ←/→     Previous/next character
  Home    Go to first item
  End     Go to last item`
	}

	return nav + `

Mods:
  space   Toggle active
  d       Delete
  /       Filter
  s       Cycle sort order

Presets:
  enter   Apply
  n       Save active mods as preset
  d       Delete

Global:
  1/2/3   Mods/Presets/Stats
  r       Refresh
  ?       Help
  q       Quit`
}
