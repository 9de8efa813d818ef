package scene_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"render-presets/preset"
	"render-presets/scene"
)

func newManager(t *testing.T) (*scene.Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenes.json")
	m, err := scene.NewManager(path, preset.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, path
}

func TestNewManagerMissingFile(t *testing.T) {
	m, err := scene.NewManager(filepath.Join(t.TempDir(), "nonexistent.json"), preset.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if n := len(m.List()); n != 0 {
		t.Fatalf("expected empty store, got %d scenes", n)
	}
}

func TestNewManagerCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := scene.NewManager(path, preset.DefaultSettings(), nil); err == nil {
		t.Fatal("expected error for corrupt store")
	}
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newManager(t)
	s, err := m.Create("Shot010", "Camera")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, ok := m.Get(s.ID)
	if !ok {
		t.Fatal("Get returned ok=false for existing scene")
	}
	if got.Name != "Shot010" || got.Camera != "Camera" {
		t.Fatalf("unexpected scene: %+v", got)
	}
	if got.Render != preset.DefaultRenderState() {
		t.Fatalf("expected default render state, got %+v", got.Render)
	}
}

func TestCreateNameUniqueness(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.Create("dup", "Camera"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := m.Create("dup", "Camera"); !errors.Is(err, scene.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("gone", "Camera")
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := m.Get(s.ID); ok {
		t.Fatal("scene still exists after Delete")
	}
	if err := m.Delete(s.ID); !errors.Is(err, scene.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePresets(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	s, err := m.SetChildren(s.ID, []string{"Light", "1. old:[xy=1x1]", "Current: old"})
	if err != nil {
		t.Fatalf("SetChildren: %v", err)
	}

	s, err = m.CreatePresets(s.ID, nil)
	if err != nil {
		t.Fatalf("CreatePresets: %v", err)
	}

	want := []string{
		"Light",
		"1. HD    :[xy=1920x1080, sp=1536, Rng=0-100@1]",
		"2. Style :[xy=100%, sp=100%, Rng=20-100@80]",
		"3. prev  :[xy=100%, sp=10%, Rng=0-100@1]",
		"4. demo  :[xy=50%, sp=30%, Rng=100%@1]",
		`5. folder:["//__Cache__\","F:\__Cache__\"]`,
		"Current: HD [xy=1920x1080@100%, sp=1536, Rng=0-100@1, Rel]",
	}
	if strings.Join(s.Children, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected children:\n%s", strings.Join(s.Children, "\n"))
	}
	if s.Render.FilePath != "//__Cache__/Render_hd/Shot_hd/Shot_hd_" {
		t.Fatalf("unexpected output path %q", s.Render.FilePath)
	}
	if s.Applied != "hd" {
		t.Fatalf("expected HD applied, got %q", s.Applied)
	}
}

func TestCreatePresetsCustomSettings(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	settings := preset.DefaultSettings()
	settings.ResolutionX, settings.ResolutionY = 1280, 720
	settings.Samples = 256
	settings.FrameStart, settings.FrameEnd, settings.FrameStep = 10, 20, 2
	settings.RelativePath = "renders"

	s, err := m.CreatePresets(s.ID, &settings)
	if err != nil {
		t.Fatalf("CreatePresets: %v", err)
	}
	if s.Settings.RelativePath != "//renders" {
		t.Fatalf("expected normalized relative path, got %q", s.Settings.RelativePath)
	}
	want := preset.RenderState{
		ResolutionX: 1280, ResolutionY: 720, ResolutionPercentage: 100,
		Samples: 256, FrameStart: 10, FrameEnd: 20, FrameStep: 2,
		FilePath: "//renders/Render_hd/Shot_hd/Shot_hd_",
	}
	if s.Render != want {
		t.Fatalf("expected %+v, got %+v", want, s.Render)
	}
}

func TestCreatePresetsRejectsInvalidSettings(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	settings := preset.DefaultSettings()
	settings.FrameStart, settings.FrameEnd = 90, 10

	if _, err := m.CreatePresets(s.ID, &settings); !errors.Is(err, scene.ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	got, _ := m.Get(s.ID)
	if len(got.Children) != 0 {
		t.Fatalf("rejected settings should leave scene untouched, got %v", got.Children)
	}
}

func TestCreatePresetsNoCamera(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "")
	if _, err := m.CreatePresets(s.ID, nil); !errors.Is(err, scene.ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
	if _, err := m.ApplyPreset(s.ID, "HD"); !errors.Is(err, scene.ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
}

func TestApplyPreset(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	if _, err := m.CreatePresets(s.ID, nil); err != nil {
		t.Fatalf("CreatePresets: %v", err)
	}
	if _, err := m.SetUseAbsolutePath(s.ID, true); err != nil {
		t.Fatalf("SetUseAbsolutePath: %v", err)
	}

	s, err := m.ApplyPreset(s.ID, "demo")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	want := preset.RenderState{
		ResolutionX: 1920, ResolutionY: 1080, ResolutionPercentage: 50,
		Samples: 461, FrameStart: 0, FrameEnd: 100, FrameStep: 1,
		FilePath: "F:/__Cache__/Render_demo/Shot_demo/Shot_demo_",
	}
	if s.Render != want {
		t.Fatalf("expected %+v, got %+v", want, s.Render)
	}
	if cur := s.Current(); cur != "Current: demo [xy=1920x1080@50%, sp=461, Rng=0-100@1, Abs]" {
		t.Fatalf("unexpected current label %q", cur)
	}

	again, err := m.ApplyPreset(s.ID, "demo")
	if err != nil {
		t.Fatalf("ApplyPreset again: %v", err)
	}
	if again.Render != s.Render {
		t.Fatalf("applying twice changed settings: %+v vs %+v", again.Render, s.Render)
	}
}

func TestApplyPresetUserEditedLabel(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	s, _ = m.SetChildren(s.ID, []string{
		"1. HD:[xy=2048x858, sp=1000, Rng=1-48]",
		"6. Draft:[sp=25%, Rng=12]",
		"7. broken:[sp=many]",
	})

	s, err := m.ApplyPreset(s.ID, "draft")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if s.Render.Samples != 250 || s.Render.FrameStart != 12 || s.Render.FrameEnd != 12 {
		t.Fatalf("unexpected render state %+v", s.Render)
	}

	before := s.Render
	s, err = m.ApplyPreset(s.ID, "broken")
	if err != nil {
		t.Fatalf("ApplyPreset broken: %v", err)
	}
	if s.Render.Samples != before.Samples {
		t.Fatalf("malformed samples should keep %d, got %d", before.Samples, s.Render.Samples)
	}
}

func TestApplyPresetNotFound(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	if _, err := m.ApplyPreset(s.ID, "Style"); !errors.Is(err, preset.ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}
	if _, err := m.ApplyPreset("missing", "Style"); !errors.Is(err, scene.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentlyApplied(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	m.CreatePresets(s.ID, nil)
	m.ApplyPreset(s.ID, "Style")
	m.ApplyPreset(s.ID, "prev")
	s, _ = m.ApplyPreset(s.ID, "Style")

	want := []string{"style", "prev", "hd"}
	if strings.Join(s.RecentlyApplied, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, s.RecentlyApplied)
	}

	// Dropping the prev marker removes it from the list on the next apply.
	var kept []string
	for _, c := range s.Children {
		if !strings.HasPrefix(c, "3. prev") {
			kept = append(kept, c)
		}
	}
	m.SetChildren(s.ID, kept)
	s, _ = m.ApplyPreset(s.ID, "demo")
	want = []string{"demo", "style", "hd"}
	if strings.Join(s.RecentlyApplied, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, s.RecentlyApplied)
	}
}

func TestSaveAndReload(t *testing.T) {
	m, path := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	if _, err := m.CreatePresets(s.ID, nil); err != nil {
		t.Fatalf("CreatePresets: %v", err)
	}
	applied, _ := m.ApplyPreset(s.ID, "prev")

	m2, err := scene.NewManager(path, preset.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("NewManager reload: %v", err)
	}
	got, ok := m2.Get(s.ID)
	if !ok {
		t.Fatal("scene missing after reload")
	}
	if got.Render != applied.Render || got.Current() != applied.Current() {
		t.Fatalf("reloaded scene differs: %+v vs %+v", got, applied)
	}
}

func TestWatchReceivesUpdates(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	sub, err := m.Watch(s.ID)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer sub.Close()
	if !m.Watched(s.ID) {
		t.Fatal("expected scene to be watched")
	}

	if _, err := m.CreatePresets(s.ID, nil); err != nil {
		t.Fatalf("CreatePresets: %v", err)
	}
	select {
	case got := <-sub.Updates:
		if got.Applied != "hd" {
			t.Fatalf("expected HD update, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
}

func TestWatchDisplacesPrevious(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	first, _ := m.Watch(s.ID)
	second, _ := m.Watch(s.ID)
	defer second.Close()

	select {
	case <-first.Kicked:
	default:
		t.Fatal("first watcher was not kicked")
	}
	first.Close()
	if !m.Watched(s.ID) {
		t.Fatal("closing a displaced watcher must not detach the current one")
	}
}

func TestWatchDoneOnDelete(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	sub, _ := m.Watch(s.ID)
	defer sub.Close()
	m.Delete(s.ID)

	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed after delete")
	}
	if _, err := m.Watch(s.ID); !errors.Is(err, scene.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentApply(t *testing.T) {
	m, _ := newManager(t)
	s, _ := m.Create("Shot", "Camera")
	m.CreatePresets(s.ID, nil)

	var wg sync.WaitGroup
	for _, name := range []string{"HD", "Style", "prev", "demo", "HD", "Style"} {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			if _, err := m.ApplyPreset(s.ID, n); err != nil {
				t.Errorf("ApplyPreset %s: %v", n, err)
			}
		}(name)
	}
	wg.Wait()
}
