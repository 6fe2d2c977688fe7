// Package store holds the client's in-memory snapshot of mods, presets and stats.
package store

import (
	"fmt"
	"sync"

	"modbridge/internal/domain"
)

// Snapshot is an immutable view of the store at one version
type Snapshot struct {
	Mods    []domain.Mod
	Presets []domain.Preset
	Stats   domain.Stats
	Version uint64
}

// Mod returns the mod with the given id from the snapshot
func (s Snapshot) Mod(id string) (domain.Mod, bool) {
	for _, m := range s.Mods {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Mod{}, false
}

// Store is the single source of truth the engine reads and mutates.
// Mutations replace or patch state and publish the new snapshot to subscribers.
type Store struct {
	mu       sync.RWMutex
	mods     []domain.Mod
	modIndex map[string]int
	presets  []domain.Preset
	stats    domain.Stats
	version  uint64

	gen      Generation // Backend mutations confirmed so far
	modEpoch uint64     // Bumped whenever the mod list is replaced wholesale

	subMu  sync.Mutex
	subs   map[chan Snapshot]struct{}
	closed bool
}

// Generation counts the backend mutations the engine has seen confirmed. A refresh
// takes one before fetching and may only write what no later mutation has touched.
type Generation struct {
	Mods    uint64
	Presets uint64
}

// PendingPatch is an optimistic mod change the backend has not confirmed yet
type PendingPatch struct {
	ModID    string
	Previous domain.Mod
	Patched  domain.Mod
	epoch    uint64
}

// New creates an empty store
func New() *Store {
	return &Store{
		modIndex: make(map[string]int),
		subs:     make(map[chan Snapshot]struct{}),
	}
}

// Mods returns a copy of the current mods in gateway order
func (s *Store) Mods() []domain.Mod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMods(s.mods)
}

// Presets returns a copy of the current presets
func (s *Store) Presets() []domain.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPresets(s.presets)
}

// Stats returns the last stats reported by the backend
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Snapshot returns the full current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Mod retrieves a single mod by id
func (s *Store) Mod(id string) (domain.Mod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.modIndex[id]
	if !ok {
		return domain.Mod{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}
	return s.mods[i], nil
}

// Preset retrieves a single preset by id
func (s *Store) Preset(id string) (domain.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.presets {
		if p.ID == id {
			return copyPreset(p), nil
		}
	}
	return domain.Preset{}, fmt.Errorf("%w: %s", domain.ErrPresetNotFound, id)
}

// ReplaceMods atomically replaces all mods. A refresh is authoritative: no merging.
func (s *Store) ReplaceMods(mods []domain.Mod) error {
	index, err := indexMods(mods)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceModsLocked(mods, index)
	return nil
}

// ReplaceModsAt replaces mods fetched after gen was taken. It writes nothing and
// reports false when a mod mutation was confirmed in the meantime.
func (s *Store) ReplaceModsAt(gen Generation, mods []domain.Mod) (bool, error) {
	index, err := indexMods(mods)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Mods != gen.Mods {
		return false, nil
	}
	s.replaceModsLocked(mods, index)
	return true, nil
}

func indexMods(mods []domain.Mod) (map[string]int, error) {
	index := make(map[string]int, len(mods))
	for i, m := range mods {
		if _, dup := index[m.ID]; dup {
			return nil, fmt.Errorf("%w: mod %q", domain.ErrDuplicateID, m.ID)
		}
		index[m.ID] = i
	}
	return index, nil
}

func (s *Store) replaceModsLocked(mods []domain.Mod, index map[string]int) {
	s.mods = copyMods(mods)
	s.modIndex = index
	s.modEpoch++
	s.publishLocked()
}

// RemoveMod drops a mod the backend confirmed deleted. Unknown ids are ignored.
func (s *Store) RemoveMod(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modIndex[id]; !ok {
		return
	}
	kept := make([]domain.Mod, 0, len(s.mods))
	index := make(map[string]int, len(s.mods))
	for _, m := range s.mods {
		if m.ID == id {
			continue
		}
		index[m.ID] = len(kept)
		kept = append(kept, m)
	}
	s.replaceModsLocked(kept, index)
}

// ReplacePresets atomically replaces all presets
func (s *Store) ReplacePresets(presets []domain.Preset) error {
	if err := checkPresetIDs(presets); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = copyPresets(presets)
	s.publishLocked()
	return nil
}

// ReplacePresetsAt replaces presets fetched after gen was taken, unless a preset
// mutation was confirmed in the meantime
func (s *Store) ReplacePresetsAt(gen Generation, presets []domain.Preset) (bool, error) {
	if err := checkPresetIDs(presets); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Presets != gen.Presets {
		return false, nil
	}
	s.presets = copyPresets(presets)
	s.publishLocked()
	return true, nil
}

func checkPresetIDs(presets []domain.Preset) error {
	seen := make(map[string]struct{}, len(presets))
	for _, p := range presets {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: preset %q", domain.ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ReplaceStats stores backend-computed stats
func (s *Store) ReplaceStats(stats domain.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.publishLocked()
}

// ReplaceStatsAt stores stats fetched after gen was taken, unless any mutation
// was confirmed in the meantime
func (s *Store) ReplaceStatsAt(gen Generation, stats domain.Stats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.stats = stats
	s.publishLocked()
	return true
}

// Generation returns the current mutation generation
func (s *Store) Generation() Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// MarkModsChanged records a confirmed backend change to mods. Refreshes that
// started earlier will no longer write mods or stats.
func (s *Store) MarkModsChanged() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Mods++
	return s.gen
}

// MarkPresetsChanged records a confirmed backend change to presets
func (s *Store) MarkPresetsChanged() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Presets++
	return s.gen
}

// PatchMod applies a local, non-authoritative patch and returns the mod as it was before.
func (s *Store) PatchMod(id string, patch domain.ModPatch) (domain.Mod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.modIndex[id]
	if !ok {
		return domain.Mod{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}

	previous := s.mods[i]
	if patch.IsEmpty() {
		return previous, nil
	}
	s.mods[i] = patch.Apply(previous)
	s.publishLocked()
	return previous, nil
}

// PatchModPending applies an optimistic patch that can later be reverted or
// settled with RevertPatch and SettlePatch
func (s *Store) PatchModPending(id string, patch domain.ModPatch) (PendingPatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.modIndex[id]
	if !ok {
		return PendingPatch{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}

	p := PendingPatch{ModID: id, Previous: s.mods[i], Patched: patch.Apply(s.mods[i]), epoch: s.modEpoch}
	if !patch.IsEmpty() {
		s.mods[i] = p.Patched
		s.publishLocked()
	}
	return p, nil
}

// RevertPatch restores the mod as it was before p. It does nothing and reports
// false once the mod list has been replaced or the mod no longer holds p's value.
func (s *Store) RevertPatch(p PendingPatch) bool {
	return s.settle(p, domain.SetActive(p.Previous.IsActive))
}

// SettlePatch applies patch over p under the same conditions as RevertPatch
func (s *Store) SettlePatch(p PendingPatch, patch domain.ModPatch) bool {
	return s.settle(p, patch)
}

func (s *Store) settle(p PendingPatch, patch domain.ModPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.modEpoch != p.epoch {
		return false
	}
	i, ok := s.modIndex[p.ModID]
	if !ok || s.mods[i].IsActive != p.Patched.IsActive {
		return false
	}
	s.mods[i] = patch.Apply(s.mods[i])
	s.publishLocked()
	return true
}

// Subscribe registers an observer. The channel holds at most one pending snapshot;
// when a subscriber falls behind, the older snapshot is replaced by the newer one.
// The current snapshot is delivered immediately. Call cancel to unsubscribe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	// Same lock order as publishLocked, so no publish lands between the
	// initial snapshot and registration
	s.mu.RLock()
	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		s.mu.RUnlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.subMu.Unlock()
	s.mu.RUnlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active observers
func (s *Store) SubscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Close closes every subscriber channel. The store stays readable.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
}

// publishLocked bumps the version and fans the snapshot out. Caller holds s.mu.
func (s *Store) publishLocked() {
	s.version++
	snap := s.snapshotLocked()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Mods:    copyMods(s.mods),
		Presets: copyPresets(s.presets),
		Stats:   s.stats,
		Version: s.version,
	}
}

func copyMods(mods []domain.Mod) []domain.Mod {
	out := make([]domain.Mod, len(mods))
	copy(out, mods)
	return out
}

func copyPresets(presets []domain.Preset) []domain.Preset {
	out := make([]domain.Preset, len(presets))
	for i, p := range presets {
		out[i] = copyPreset(p)
	}
	return out
}

func copyPreset(p domain.Preset) domain.Preset {
	ids := make([]string, len(p.ModIDs))
	copy(ids, p.ModIDs)
	p.ModIDs = ids
	return p
}
