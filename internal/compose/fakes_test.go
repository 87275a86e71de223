package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/blacktop/postcraft/internal/menu"
)

// markedImage records every step applied to it so tests can inspect the
// pipeline that produced a post.
type markedImage struct {
	image.Image
	marks []string
}

func newMarked(mark string) markedImage {
	return markedImage{Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), marks: []string{mark}}
}

func marksOf(img image.Image) []string {
	if m, ok := img.(markedImage); ok {
		return m.marks
	}
	return nil
}

func (m markedImage) with(mark string) markedImage {
	marks := append(append([]string(nil), m.marks...), mark)
	return markedImage{Image: m.Image, marks: marks}
}

type recordingEditor struct{}

func (recordingEditor) CropCenter(img image.Image) image.Image { return img.(markedImage).with("crop") }
func (recordingEditor) Blur(img image.Image) image.Image       { return img.(markedImage).with("blur") }
func (recordingEditor) Fade(img image.Image) image.Image       { return img.(markedImage).with("fade") }
func (recordingEditor) WriteText(img image.Image, text string) image.Image {
	return img.(markedImage).with("text:" + text)
}
func (recordingEditor) WriteCount(img image.Image, count int) image.Image {
	return img.(markedImage).with(fmt.Sprintf("count:%d", count))
}
func (recordingEditor) WriteBrand(img image.Image) image.Image {
	return img.(markedImage).with("brand")
}

type textFunc func(ctx context.Context, prompt string) ([]string, error)

func (f textFunc) Generate(ctx context.Context, prompt string) ([]string, error) {
	return f(ctx, prompt)
}

type imageFunc func(ctx context.Context, prompt string) ([]image.Image, error)

func (f imageFunc) Generate(ctx context.Context, prompt string) ([]image.Image, error) {
	return f(ctx, prompt)
}

type editorFunc func(initial string) string

func (f editorFunc) Edit(_ context.Context, initial []byte) ([]byte, error) {
	return []byte(f(string(initial))), nil
}

type fakePresets struct {
	presets []Preset
	active  *Preset
	sets    int
}

func (f *fakePresets) Presets(context.Context) ([]Preset, error) { return f.presets, nil }

func (f *fakePresets) Set(p Preset) {
	f.sets++
	f.active = &p
}

func (f *fakePresets) Get(key string) (string, error) {
	if f.active == nil {
		return "", ErrNoActivePreset
	}
	v, ok := f.active.Templates[key]
	if !ok {
		return "", ErrTemplateMissing
	}
	return v, nil
}

type recordingPublisher struct {
	posts  []*Post
	failAt int
}

func (r *recordingPublisher) Publish(_ context.Context, post *Post) error {
	if r.failAt > 0 && len(r.posts)+1 == r.failAt {
		return errors.New("network unreachable")
	}
	r.posts = append(r.posts, post)
	return nil
}

type fakeStore struct {
	saved []int
}

func (s *fakeStore) SaveCandidate(_ image.Image, n int) (string, error) {
	s.saved = append(s.saved, n)
	return fmt.Sprintf("%d.jpg", n), nil
}

func (s *fakeStore) DefaultImage() (image.Image, error) { return newMarked("default"), nil }

var testPreset = Preset{
	Name: "news",
	Templates: map[string]string{
		TemplateInstruction:     "Write about {topic}.",
		TemplateInstructionTags: "Tags for: {text}",
	},
}

type harness struct {
	out       *bytes.Buffer
	prompter  *menu.Prompter
	presets   *fakePresets
	publisher *recordingPublisher
	store     *fakeStore
	prompts   []string
	collab    Collaborators
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	h := &harness{
		out:       &bytes.Buffer{},
		presets:   &fakePresets{presets: []Preset{testPreset}},
		publisher: &recordingPublisher{},
		store:     &fakeStore{},
	}
	active := testPreset
	h.presets.active = &active
	h.prompter = menu.NewPrompter(strings.NewReader(input), h.out, ">")
	h.collab = Collaborators{
		Text: textFunc(func(_ context.Context, prompt string) ([]string, error) {
			h.prompts = append(h.prompts, prompt)
			return []string{"first", "second"}, nil
		}),
		Images: imageFunc(func(context.Context, string) ([]image.Image, error) {
			return []image.Image{newMarked("gen:1"), newMarked("gen:2"), newMarked("gen:3")}, nil
		}),
		Editor:     recordingEditor{},
		Presets:    h.presets,
		Publisher:  h.publisher,
		LineEditor: editorFunc(func(initial string) string { return initial + "edited" }),
		Store:      h.store,
	}
	return h
}
