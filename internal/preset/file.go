package preset

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/blacktop/postcraft/internal/compose"
)

// FileStore reads presets from a YAML file on every List, so edits to the
// file show up without restarting the session. The file is a YAML list of
// presets, each with a name and a templates map holding the instruction and
// instruction_tags prompts.
type FileStore struct {
	Path string
}

// List parses and validates the preset file.
func (s FileStore) List(context.Context) ([]compose.Preset, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML preset list and checks names are present and unique.
func Parse(data []byte) ([]compose.Preset, error) {
	var presets []compose.Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	seen := make(map[string]struct{}, len(presets))
	for i, p := range presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, compose.ValidationError{Provider: "presets", Reason: fmt.Sprintf("preset %d has no name", i+1)}
		}
		if _, ok := seen[name]; ok {
			return nil, compose.ValidationError{Provider: "presets", Reason: fmt.Sprintf("duplicate preset %q", name)}
		}
		seen[name] = struct{}{}
		presets[i].Name = name
	}
	return presets, nil
}
