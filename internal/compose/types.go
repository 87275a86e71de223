package compose

import (
	"context"
	"image"
)

// Template keys and placeholders understood by the post builder.
const (
	TemplateInstruction     = "instruction"
	TemplateInstructionTags = "instruction_tags"

	PlaceholderTopic = "{topic}"
	PlaceholderText  = "{text}"
)

// Post is one publishable unit: the final edited image, its caption, and
// zero or more tags.
type Post struct {
	Image   image.Image
	Caption string
	Tags    []string
}

// Preset is a named bundle of prompt templates.
type Preset struct {
	Name      string            `yaml:"name" json:"name"`
	Templates map[string]string `yaml:"templates" json:"templates"`
}

// TextGenerator returns a batch of candidate texts for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// ImageGenerator returns a batch of candidate images for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]image.Image, error)
}

// ImageEditor is the editing pipeline. Every step returns a new image and
// leaves its input untouched.
type ImageEditor interface {
	CropCenter(img image.Image) image.Image
	Blur(img image.Image) image.Image
	Fade(img image.Image) image.Image
	WriteText(img image.Image, text string) image.Image
	WriteCount(img image.Image, count int) image.Image
	WriteBrand(img image.Image) image.Image
}

// PresetManager lists presets and owns the active selection.
type PresetManager interface {
	Presets(ctx context.Context) ([]Preset, error)
	Set(preset Preset)
	Get(key string) (string, error)
}

// Publisher hands a finished post to its destination.
type Publisher interface {
	Publish(ctx context.Context, post *Post) error
}

// LineEditor opens an interactive editor on initial and returns the result.
type LineEditor interface {
	Edit(ctx context.Context, initial []byte) ([]byte, error)
}

// ImageStore persists numbered candidates and loads the fallback image.
type ImageStore interface {
	SaveCandidate(img image.Image, n int) (string, error)
	DefaultImage() (image.Image, error)
}

// Collaborators groups everything the builder and session delegate to.
type Collaborators struct {
	Text       TextGenerator
	Images     ImageGenerator
	Editor     ImageEditor
	Presets    PresetManager
	Publisher  Publisher
	LineEditor LineEditor
	Store      ImageStore
}
