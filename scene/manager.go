package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"render-presets/preset"
)

// Manager owns all scenes and persists them to a JSON file.
type Manager struct {
	mu       sync.RWMutex
	filePath string
	defaults preset.Settings
	scenes   map[string]*record
	logger   *slog.Logger
	now      func() time.Time
}

type record struct {
	scene Scene
	watch *watch
}

// NewManager loads the scenes stored at filePath, or starts empty if the file
// does not exist. An empty filePath keeps scenes in memory only. defaults
// seeds the preset settings of new scenes.
func NewManager(filePath string, defaults preset.Settings, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scenes, err := loadStore(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		filePath: filePath,
		defaults: defaults,
		scenes:   make(map[string]*record, len(scenes)),
		logger:   logger.With(slog.String("component", "scene")),
		now:      time.Now,
	}
	for _, s := range scenes {
		m.scenes[s.ID] = &record{scene: s, watch: newWatch()}
	}
	return m, nil
}

// Create adds an empty scene. camera names the active camera and may be
// empty, in which case presets cannot be created until one is set.
func (m *Manager) Create(name, camera string) (Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.scenes {
		if r.scene.Name == name {
			return Scene{}, ErrNameTaken
		}
	}

	now := m.now()
	s := Scene{
		ID:              uuid.New().String(),
		Name:            name,
		Camera:          camera,
		Children:        []string{},
		Render:          preset.DefaultRenderState(),
		Settings:        m.defaults,
		RecentlyApplied: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.persistLocked(s); err != nil {
		return Scene{}, err
	}
	m.scenes[s.ID] = &record{scene: s, watch: newWatch()}
	m.logger.Info("scene created", slog.String("scene_id", s.ID), slog.String("scene", name))
	return s.clone(), nil
}

// List returns snapshots of all scenes, oldest first.
func (m *Manager) List() []Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Scene, 0, len(m.scenes))
	for _, r := range m.scenes {
		list = append(list, r.scene.clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Name < list[j].Name
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Get returns a snapshot of the scene with the given id.
func (m *Manager) Get(id string) (Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.scenes[id]
	if !ok {
		return Scene{}, false
	}
	return r.scene.clone(), true
}

// Delete removes a scene and ends its watcher.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.scenes[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.scenes, id)
	if err := m.persistLocked(); err != nil {
		m.scenes[id] = r
		return err
	}
	close(r.watch.done)
	m.logger.Info("scene deleted", slog.String("scene_id", id))
	return nil
}

// SetCamera changes the active camera.
func (m *Manager) SetCamera(id, camera string) (Scene, error) {
	return m.update(id, func(s *Scene) error {
		s.Camera = camera
		return nil
	})
}

// SetChildren replaces the labels of the camera's children. Labels are user
// editable, so nothing is validated here; malformed markers are ignored when
// presets are applied.
func (m *Manager) SetChildren(id string, children []string) (Scene, error) {
	return m.update(id, func(s *Scene) error {
		s.Children = append([]string{}, children...)
		return nil
	})
}

// CreatePresets replaces the camera's preset markers with the stock presets
// generated from settings, then applies HD. A nil settings seeds the values
// from the scene's current render state and stored cache paths.
func (m *Manager) CreatePresets(id string, settings *preset.Settings) (Scene, error) {
	return m.update(id, func(s *Scene) error {
		if s.Camera == "" {
			return ErrNoCamera
		}

		next := preset.SettingsFromState(s.Render, s.Settings)
		if settings != nil {
			next = *settings
		}
		next.Normalize()
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		s.Settings = next

		children := make([]string, 0, len(s.Children)+6)
		for _, c := range s.Children {
			if !preset.IsMarker(c) {
				children = append(children, c)
			}
		}
		for _, e := range preset.DefaultEntries(next) {
			children = append(children, e.Label())
		}
		s.Children = children

		if err := m.apply(s, preset.HD); err != nil {
			return err
		}
		m.logger.Info("presets created",
			slog.String("scene_id", s.ID),
			slog.String("camera", s.Camera),
			slog.Int("markers", len(preset.DefaultEntries(next))))
		return nil
	})
}

// ApplyPreset resolves the named preset from the camera's markers and updates
// the scene's render state.
func (m *Manager) ApplyPreset(id, name string) (Scene, error) {
	return m.update(id, func(s *Scene) error {
		if s.Camera == "" {
			return ErrNoCamera
		}
		return m.apply(s, name)
	})
}

// SetUseAbsolutePath toggles which folder template output paths use. The
// change takes effect on the next apply.
func (m *Manager) SetUseAbsolutePath(id string, absolute bool) (Scene, error) {
	return m.update(id, func(s *Scene) error {
		s.Settings.UseAbsolutePath = absolute
		return nil
	})
}

// Watch subscribes to updates of a scene. A previous watcher of the same
// scene is displaced.
func (m *Manager) Watch(id string) (*Subscription, error) {
	m.mu.RLock()
	r, ok := m.scenes[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	ch := make(chan Scene, 16)
	kick := r.watch.set(ch)
	return &Subscription{
		Updates: ch,
		Kicked:  kick,
		Done:    r.watch.done,
		w:       r.watch,
		ch:      ch,
	}, nil
}

// Watched reports whether a client is following the scene.
func (m *Manager) Watched(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.scenes[id]
	return ok && r.watch.connected()
}

func (m *Manager) apply(s *Scene, name string) error {
	set := preset.Collect(s.Children)
	state, err := preset.Apply(s.Render, name, set, preset.ApplyOptions{
		SceneName:       s.Name,
		UseAbsolutePath: s.Settings.UseAbsolutePath,
	})
	if err != nil {
		return err
	}
	key := preset.Key(name)
	s.Render = state
	s.Applied = key
	s.Children = withCurrent(s.Children, preset.CurrentLabel(preset.DisplayName(name), state, s.Settings.UseAbsolutePath))
	s.RecentlyApplied = markApplied(s.RecentlyApplied, key, set)

	m.logger.Info("preset applied",
		slog.String("scene_id", s.ID),
		slog.String("preset", key),
		slog.Int("resolution_x", state.ResolutionX),
		slog.Int("resolution_y", state.ResolutionY),
		slog.Int("resolution_percentage", state.ResolutionPercentage),
		slog.Int("samples", state.Samples),
		slog.Int("frame_start", state.FrameStart),
		slog.Int("frame_end", state.FrameEnd),
		slog.Int("frame_step", state.FrameStep),
		slog.String("filepath", state.FilePath))
	return nil
}

// withCurrent replaces every "Current" child with a single label.
func withCurrent(children []string, label string) []string {
	out := make([]string, 0, len(children)+1)
	for _, c := range children {
		if !strings.HasPrefix(c, preset.CurrentName) {
			out = append(out, c)
		}
	}
	return append(out, label)
}

// markApplied prepends key to the MRU list, dropping duplicates and presets
// that are no longer defined, and caps the list at maxRecentlyApplied.
func markApplied(existing []string, key string, set preset.Set) []string {
	seen := map[string]bool{key: true}
	list := []string{key}
	for _, k := range existing {
		if seen[k] {
			continue
		}
		if _, ok := set.Lookup(k); !ok {
			continue
		}
		seen[k] = true
		list = append(list, k)
		if len(list) == maxRecentlyApplied {
			break
		}
	}
	return list
}

// update runs fn on a copy of the scene, persists the result and publishes
// it to the scene's watcher. Nothing changes if fn or the write fails.
func (m *Manager) update(id string, fn func(*Scene) error) (Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.scenes[id]
	if !ok {
		return Scene{}, ErrNotFound
	}
	next := r.scene.clone()
	if err := fn(&next); err != nil {
		if !errors.Is(err, ErrNoCamera) {
			m.logger.Warn("scene update rejected", slog.String("scene_id", id), slog.Any("error", err))
		}
		return Scene{}, err
	}
	next.UpdatedAt = m.now()
	if err := m.persistLocked(next); err != nil {
		return Scene{}, err
	}
	r.scene = next
	r.watch.publish(next.clone())
	return next.clone(), nil
}

// persistLocked writes every scene to disk, with overrides taking the place
// of stored scenes with the same ID. Caller must hold m.mu.
func (m *Manager) persistLocked(overrides ...Scene) error {
	byID := make(map[string]Scene, len(m.scenes)+len(overrides))
	for id, r := range m.scenes {
		byID[id] = r.scene
	}
	for _, s := range overrides {
		byID[s.ID] = s
	}
	scenes := make([]Scene, 0, len(byID))
	for _, s := range byID {
		scenes = append(scenes, s)
	}
	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].CreatedAt.Equal(scenes[j].CreatedAt) {
			return scenes[i].ID < scenes[j].ID
		}
		return scenes[i].CreatedAt.Before(scenes[j].CreatedAt)
	})
	if err := writeStore(m.filePath, scenes); err != nil {
		m.logger.Error("scene store write failed", slog.String("path", m.filePath), slog.Any("error", err))
		return err
	}
	return nil
}
