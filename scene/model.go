package scene

import (
	"errors"
	"strings"
	"sync"
	"time"

	"render-presets/preset"
)

var (
	ErrNameTaken       = errors.New("scene name already in use")
	ErrNotFound        = errors.New("scene not found")
	ErrNoCamera        = errors.New("scene has no active camera")
	ErrInvalidSettings = errors.New("invalid preset settings")
)

const maxRecentlyApplied = 10

// Scene is the stored state of one scene: the labels of its camera's
// children, which carry the preset markers, and its render configuration.
type Scene struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Camera          string             `json:"camera"`
	Children        []string           `json:"children"`
	Render          preset.RenderState `json:"render"`
	Settings        preset.Settings    `json:"settings"`
	Applied         string             `json:"applied,omitempty"`
	RecentlyApplied []string           `json:"recently_applied"` // MRU order, max 10 preset keys
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Current returns the label of the "Current" settings display, if any.
func (s Scene) Current() string {
	for _, c := range s.Children {
		if strings.HasPrefix(c, preset.CurrentName) {
			return c
		}
	}
	return ""
}

func (s Scene) clone() Scene {
	c := s
	c.Children = append([]string{}, s.Children...)
	c.RecentlyApplied = append([]string{}, s.RecentlyApplied...)
	return c
}

// watch tracks the single client following a scene. A new client displaces
// the previous one.
type watch struct {
	mu   sync.Mutex
	out  chan Scene
	kick chan struct{}
	done chan struct{}
}

func newWatch() *watch {
	return &watch{done: make(chan struct{})}
}

// set registers ch to receive scene updates. If a previous client is
// connected its kick channel is closed. Returns the kick channel for ch.
func (w *watch) set(ch chan Scene) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.kick != nil {
		close(w.kick)
	}
	kick := make(chan struct{})
	w.kick = kick
	w.out = ch
	return kick
}

// clear detaches ch if it is still the current client and always closes it.
func (w *watch) clear(ch chan Scene) {
	w.mu.Lock()
	if w.out == ch {
		w.out = nil
		w.kick = nil
	}
	w.mu.Unlock()
	close(ch)
}

func (w *watch) publish(s Scene) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return
	}
	select {
	case w.out <- s:
	default:
	}
}

func (w *watch) connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out != nil
}

// Subscription delivers updates of one scene to a watcher.
type Subscription struct {
	// Updates receives a snapshot after every change. It is closed by Close.
	Updates <-chan Scene
	// Kicked is closed when a newer watcher displaces this one.
	Kicked <-chan struct{}
	// Done is closed when the scene is deleted.
	Done <-chan struct{}

	w  *watch
	ch chan Scene
}

// Close detaches the subscription and closes Updates.
func (s *Subscription) Close() {
	s.w.clear(s.ch)
}
