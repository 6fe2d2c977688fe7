package tui

import (
	"context"
	"fmt"
	"strings"

	"modbridge/internal/core"
	"modbridge/internal/domain"
	"modbridge/internal/store"
	"modbridge/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewMods ViewType = iota
	ViewPresets
	ViewStats
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// SnapshotMsg carries a store snapshot to the views
type SnapshotMsg struct {
	Snapshot store.Snapshot
}

// OpResultMsg reports the end of an operation started from the TUI
type OpResultMsg struct {
	Op  string
	Err error
}

// App is the main TUI application model
type App struct {
	ctx         context.Context
	controller  *core.Controller
	keys        *KeyMap
	snapshots   <-chan store.Snapshot
	currentView ViewType
	width       int
	height      int
	err         error // Cleared on the next keypress or successful operation
	showHelp    bool

	mods    views.Mods
	presets views.Presets
	stats   views.Stats
}

// NewApp creates a new TUI application. controller may be nil, in which case the
// app renders empty views and ignores operation requests.
func NewApp(ctx context.Context, controller *core.Controller, keybindings string) App {
	return App{
		ctx:         ctx,
		controller:  controller,
		keys:        NewKeyMap(keybindings),
		currentView: ViewMods,
		width:       80,
		height:      24,
		mods:        views.NewMods(nil),
		presets:     views.NewPresets(nil, nil),
		stats:       views.NewStats(domain.Stats{}),
	}
}

// Subscribe attaches the app to the controller's store and returns the cancel func
func (a *App) Subscribe() func() {
	if a.controller == nil {
		return func() {}
	}
	ch, cancel := a.controller.Store().Subscribe()
	a.snapshots = ch
	return cancel
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Err returns the error currently displayed
func (a App) Err() error {
	return a.err
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return tea.Batch(a.waitForSnapshot(), a.refresh(false))
}

func (a App) waitForSnapshot() tea.Cmd {
	ch := a.snapshots
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func (a App) refresh(silent bool) tea.Cmd {
	if a.controller == nil {
		return nil
	}
	ctrl, ctx := a.controller, a.ctx
	return func() tea.Msg {
		return OpResultMsg{Op: "refresh", Err: ctrl.Refresh(ctx, silent)}
	}
}

// operation runs fn off the update loop and reports its result
func (a App) operation(op string, fn func(ctx context.Context, ctrl *core.Controller) error) tea.Cmd {
	if a.controller == nil {
		return nil
	}
	ctrl, ctx := a.controller, a.ctx
	return func() tea.Msg {
		return OpResultMsg{Op: op, Err: fn(ctx, ctrl)}
	}
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		a.err = nil
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.updateAllViews(msg)

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case SnapshotMsg:
		a.applySnapshot(msg.Snapshot)
		return a, a.waitForSnapshot()

	case OpResultMsg:
		a.err = msg.Err
		return a, nil

	case views.ToggleModMsg:
		return a, a.operation("toggle", func(ctx context.Context, c *core.Controller) error {
			_, err := c.ToggleSingle(ctx, msg.ModID)
			return err
		})

	case views.DeleteModMsg:
		return a, a.operation("delete", func(ctx context.Context, c *core.Controller) error {
			return c.DeleteMod(ctx, msg.ModID)
		})

	case views.ApplyPresetMsg:
		return a, a.operation("apply", func(ctx context.Context, c *core.Controller) error {
			_, err := c.ApplyPreset(ctx, msg.PresetID)
			return err
		})

	case views.SavePresetMsg:
		return a, a.operation("save preset", func(ctx context.Context, c *core.Controller) error {
			_, err := c.SavePresetFromActive(ctx, msg.Name)
			return err
		})

	case views.DeletePresetMsg:
		return a, a.operation("delete preset", func(ctx context.Context, c *core.Controller) error {
			return c.DeletePreset(ctx, msg.PresetID)
		})
	}

	return a.updateCurrentView(msg)
}

func (a *App) applySnapshot(snap store.Snapshot) {
	applied := make(map[string]bool, len(snap.Presets))
	for _, p := range snap.Presets {
		applied[p.ID] = core.IsPresetApplied(p, snap.Mods)
	}
	a.mods = a.mods.SetMods(snap.Mods)
	a.presets = a.presets.SetPresets(snap.Presets, applied)
	a.stats = a.stats.SetStats(snap.Stats)
}

// editing reports whether the current view owns every keypress
func (a App) editing() bool {
	switch a.currentView {
	case ViewMods:
		return a.mods.IsSearching()
	case ViewPresets:
		return a.presets.IsCreating()
	}
	return false
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if a.editing() {
		return a.updateCurrentView(msg)
	}

	if a.showHelp {
		if a.keys.IsHelp(msg) || a.keys.IsCancel(msg) {
			a.showHelp = false
		}
		return a, nil
	}

	switch {
	case a.keys.IsQuit(msg):
		return a, tea.Quit
	case a.keys.IsHelp(msg):
		a.showHelp = true
		return a, nil
	case a.keys.IsRefresh(msg):
		return a, a.refresh(false)
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewMods
		return a, nil
	case "2":
		a.currentView = ViewPresets
		return a, nil
	case "3":
		a.currentView = ViewStats
		return a, nil
	}

	return a.updateCurrentView(msg)
}

func (a App) updateAllViews(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, _ := a.mods.Update(msg)
	a.mods = m.(views.Mods)
	p, _ := a.presets.Update(msg)
	a.presets = p.(views.Presets)
	s, _ := a.stats.Update(msg)
	a.stats = s.(views.Stats)
	return a, nil
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		model tea.Model
		cmd   tea.Cmd
	)

	switch a.currentView {
	case ViewMods:
		model, cmd = a.mods.Update(msg)
		a.mods = model.(views.Mods)
	case ViewPresets:
		model, cmd = a.presets.Update(msg)
		a.presets = model.(views.Presets)
	case ViewStats:
		model, cmd = a.stats.Update(msg)
		a.stats = model.(views.Stats)
	}

	return a, cmd
}

// busyClasses lists the operation classes whose slot is held
func (a App) busyClasses() []string {
	if a.controller == nil {
		return nil
	}
	status := a.controller.Status()
	var busy []string
	for _, class := range core.Classes {
		if status[class] {
			busy = append(busy, string(class))
		}
	}
	return busy
}

// View implements tea.Model
func (a App) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	busyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	header := titleStyle.Render("modbridge")
	if a.controller != nil && a.controller.Loading() {
		header += busyStyle.Render("  loading…")
	}
	if busy := a.busyClasses(); len(busy) > 0 {
		header += busyStyle.Render("  busy: " + strings.Join(busy, ", "))
	}

	tabs := []string{"[1]Mods", "[2]Presets", "[3]Stats"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	content := a.renderCurrentView()
	if a.showHelp {
		content = a.keys.FullHelp()
	}

	notice := ""
	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		notice = "\n" + errStyle.Render(fmt.Sprintf("Error: %v", a.err))
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render(a.keys.NavigationHelp() + "  r: refresh  q: quit  ?: help")

	return fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s", header, tabBar, content, notice, footer)
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewMods:
		return a.mods.View()
	case ViewPresets:
		return a.presets.View()
	case ViewStats:
		return a.stats.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(ctx context.Context, controller *core.Controller, keybindings string) error {
	app := NewApp(ctx, controller, keybindings)
	cancel := app.Subscribe()
	defer cancel()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
