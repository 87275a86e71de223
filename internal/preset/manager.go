package preset

import (
	"context"
	"fmt"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

// Store lists the presets available to a session.
type Store interface {
	List(ctx context.Context) ([]compose.Preset, error)
}

// Manager implements compose.PresetManager. It owns the single active
// preset for the session it is handed to.
type Manager struct {
	store  Store
	active *compose.Preset
}

// NewManager returns a manager with no active preset.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Presets lists every preset from the store.
func (m *Manager) Presets(ctx context.Context) ([]compose.Preset, error) {
	return m.store.List(ctx)
}

// Set makes preset the active one.
func (m *Manager) Set(preset compose.Preset) {
	templates := make(map[string]string, len(preset.Templates))
	for k, v := range preset.Templates {
		templates[k] = v
	}
	m.active = &compose.Preset{Name: preset.Name, Templates: templates}
}

// Active returns the active preset, if any.
func (m *Manager) Active() (compose.Preset, bool) {
	if m.active == nil {
		return compose.Preset{}, false
	}
	return *m.active, true
}

// Get looks up a template on the active preset.
func (m *Manager) Get(key string) (string, error) {
	if m.active == nil {
		return "", compose.ErrNoActivePreset
	}
	value, ok := m.active.Templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in preset %q", compose.ErrTemplateMissing, key, m.active.Name)
	}
	return value, nil
}

// Activate selects the preset called name from the store.
func (m *Manager) Activate(ctx context.Context, name string) error {
	presets, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		if p.Name == name {
			m.Set(p)
			logutil.Debugf("preset %q activated", name)
			return nil
		}
	}
	return fmt.Errorf("preset %q not found", name)
}

// ActivateSole selects the only preset in the store when nothing is active
// yet, so a single-preset setup can generate without visiting the preset
// menu. It reports whether a preset was activated.
func (m *Manager) ActivateSole(ctx context.Context) (bool, error) {
	if m.active != nil {
		return false, nil
	}
	presets, err := m.store.List(ctx)
	if err != nil {
		return false, err
	}
	if len(presets) != 1 {
		return false, nil
	}
	m.Set(presets[0])
	logutil.Debugf("preset %q activated as the only one available", presets[0].Name)
	return true, nil
}

// StaticStore serves a fixed list of presets.
type StaticStore []compose.Preset

// List returns a copy of the presets.
func (s StaticStore) List(context.Context) ([]compose.Preset, error) {
	return append([]compose.Preset(nil), s...), nil
}

// Builtin is used when no preset file exists.
var Builtin = StaticStore{
	{
		Name: "general",
		Templates: map[string]string{
			compose.TemplateInstruction:     "Write a short, engaging social media caption about {topic}. Reply with the caption only.",
			compose.TemplateInstructionTags: "Suggest eight hashtags for the following post, separated by spaces, without explanations:\n\n{text}",
		},
	},
}
