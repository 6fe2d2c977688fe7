package core_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"modbridge/internal/domain"
)

// fakeGateway is an in-memory backend that records calls, can fail chosen
// operations and can hold an operation open until released.
type fakeGateway struct {
	mu      sync.Mutex
	mods    []domain.Mod
	presets []domain.Preset
	calls   []string
	nextID  int

	failOn     map[string]error
	toggleNoop bool // ToggleModActive reports success without changing anything

	block   map[string]chan struct{} // op -> release channel
	entered map[string]chan struct{} // op -> signalled when the op starts
}

func newFakeGateway(mods []domain.Mod, presets []domain.Preset) *fakeGateway {
	return &fakeGateway{
		mods:    mods,
		presets: presets,
		failOn:  make(map[string]error),
		block:   make(map[string]chan struct{}),
		entered: make(map[string]chan struct{}),
	}
}

// hold makes the next call of op block until the returned release func is called.
// Later calls run freely. Read ops capture their result before blocking, so a held
// read returns the state as of the call.
func (g *fakeGateway) hold(op string) (entered <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rel := make(chan struct{})
	ent := make(chan struct{}, 1)
	g.block[op] = rel
	g.entered[op] = ent
	var once sync.Once
	return ent, func() { once.Do(func() { close(rel) }) }
}

func (g *fakeGateway) fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failOn[op] = err
}

func (g *fakeGateway) callCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (g *fakeGateway) mutatingCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, c := range g.calls {
		switch c {
		case "ListMods", "ListPresets", "GetStats":
		default:
			out = append(out, c)
		}
	}
	return out
}

// enter records the call, waits if the op is held and returns the injected error
func (g *fakeGateway) enter(op string) error {
	g.mu.Lock()
	g.calls = append(g.calls, op)
	rel := g.block[op]
	ent := g.entered[op]
	err := g.failOn[op]
	delete(g.block, op)
	delete(g.entered, op)
	g.mu.Unlock()

	if ent != nil {
		select {
		case ent <- struct{}{}:
		default:
		}
	}
	if rel != nil {
		select {
		case <-rel:
		case <-time.After(5 * time.Second):
			return fmt.Errorf("%s held too long", op)
		}
	}
	return err
}

func (g *fakeGateway) ListMods(ctx context.Context) ([]domain.Mod, error) {
	g.mu.Lock()
	out := make([]domain.Mod, len(g.mods))
	copy(out, g.mods)
	g.mu.Unlock()

	if err := g.enter("ListMods"); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) ToggleModActive(ctx context.Context, modID string) (bool, error) {
	if err := g.enter("ToggleModActive"); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.mods {
		if g.mods[i].ID == modID {
			if !g.toggleNoop {
				g.mods[i].IsActive = !g.mods[i].IsActive
			}
			return g.mods[i].IsActive, nil
		}
	}
	return false, fmt.Errorf("%w: %s", domain.ErrModNotFound, modID)
}

func (g *fakeGateway) DeleteMod(ctx context.Context, modID string) error {
	if err := g.enter("DeleteMod"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.mods {
		if g.mods[i].ID == modID {
			g.mods = append(g.mods[:i], g.mods[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrModNotFound, modID)
}

func (g *fakeGateway) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	g.mu.Lock()
	out := make([]domain.Preset, len(g.presets))
	for i, p := range g.presets {
		p.ModIDs = append([]string(nil), p.ModIDs...)
		out[i] = p
	}
	g.mu.Unlock()

	if err := g.enter("ListPresets"); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error) {
	if err := g.enter("CreatePreset"); err != nil {
		return domain.Preset{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	p := domain.Preset{
		ID:        fmt.Sprintf("new-%d", g.nextID),
		Name:      name,
		ModIDs:    append([]string{}, modIDs...),
		CreatedAt: time.Now(),
	}
	g.presets = append(g.presets, p)
	return p, nil
}

func (g *fakeGateway) UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error {
	if err := g.enter("UpdatePreset"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.presets {
		if g.presets[i].ID == presetID {
			g.presets[i].Name = name
			g.presets[i].ModIDs = append([]string{}, modIDs...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, presetID)
}

func (g *fakeGateway) DeletePreset(ctx context.Context, presetID string) error {
	if err := g.enter("DeletePreset"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.presets {
		if g.presets[i].ID == presetID {
			g.presets = append(g.presets[:i], g.presets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, presetID)
}

func (g *fakeGateway) ApplyPreset(ctx context.Context, presetID string) error {
	if err := g.enter("ApplyPreset"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.presets {
		if p.ID != presetID {
			continue
		}
		want := p.IDSet()
		for i := range g.mods {
			_, ok := want[g.mods[i].ID]
			g.mods[i].IsActive = ok
		}
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrPresetNotFound, presetID)
}

func (g *fakeGateway) GetStats(ctx context.Context) (domain.Stats, error) {
	g.mu.Lock()
	stats := domain.Stats{InstalledMods: len(g.mods), Presets: len(g.presets)}
	for _, m := range g.mods {
		if m.IsActive {
			stats.ActiveMods++
		}
	}
	stats.InactiveMods = stats.InstalledMods - stats.ActiveMods
	g.mu.Unlock()

	if err := g.enter("GetStats"); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// modActive reads the backend's state for a mod
func (g *fakeGateway) modActive(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.mods {
		if m.ID == id {
			return m.IsActive
		}
	}
	return false
}

func (g *fakeGateway) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	if err := g.enter("AddMod"); err != nil {
		return domain.Mod{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	m := domain.Mod{ID: fmt.Sprintf("mod-%d", g.nextID), Title: title, Character: character, IsActive: active, DateAdded: time.Now()}
	g.mods = append(g.mods, m)
	return m, nil
}
