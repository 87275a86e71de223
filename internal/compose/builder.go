package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/menu"
)

// Builder walks the operator through one post: caption, tags, image, and
// the mandatory edit.
type Builder struct {
	prompter *menu.Prompter
	c        Collaborators
}

// NewBuilder returns a builder that prompts through p.
func NewBuilder(p *menu.Prompter, c Collaborators) *Builder {
	return &Builder{prompter: p, c: c}
}

// Build assembles the post at position index (1-based) of the current batch.
// menu.SignalQuit means the operator abandoned the post and nil is returned.
func (b *Builder) Build(ctx context.Context, index int) (*Post, menu.Signal, error) {
	caption, sig, err := b.chooseCaption(ctx)
	if err != nil || sig == menu.SignalQuit {
		return nil, sig, err
	}

	tags, sig, err := b.chooseTags(ctx, caption)
	if err != nil || sig == menu.SignalQuit {
		return nil, sig, err
	}

	img, sig, err := b.chooseImage(ctx, caption)
	if err != nil || sig == menu.SignalQuit {
		return nil, sig, err
	}

	logutil.Debugf("editing image for post %d", index)
	final := EditPipeline(b.c.Editor, img, caption, index)

	return &Post{
		Image:   final,
		Caption: caption,
		Tags:    tags,
	}, menu.SignalPick, nil
}

func (b *Builder) chooseCaption(ctx context.Context) (string, menu.Signal, error) {
	generate, err := b.prompter.AskBinary(ctx, "Do you want to generate text?")
	if err != nil {
		return "", menu.SignalQuit, err
	}
	if !generate {
		caption, err := b.edit(ctx, "")
		return caption, menu.SignalPick, err
	}

	tmpl, err := b.c.Presets.Get(TemplateInstruction)
	if err != nil {
		return "", menu.SignalQuit, err
	}
	topic, err := b.prompter.ReadLine(ctx, "Make the prompt more specific (if the preset allows): ")
	if err != nil {
		return "", menu.SignalQuit, err
	}
	prompt := strings.ReplaceAll(tmpl, PlaceholderTopic, topic)

	text, sig, err := menu.SelectOne(ctx, b.prompter, menu.Round[string]{
		Announce: "Generating texts...",
		Generate: func(ctx context.Context) ([]string, error) {
			return b.c.Text.Generate(ctx, prompt)
		},
		Render: func(texts []string) error {
			b.prompter.PrintList(texts)
			return nil
		},
		Hint: []string{"Choose the used text.", menu.RerunHint, menu.QuitHint},
	})
	if err != nil || sig == menu.SignalQuit {
		return "", sig, err
	}

	caption, err := b.edit(ctx, text)
	return caption, menu.SignalPick, err
}

func (b *Builder) edit(ctx context.Context, initial string) (string, error) {
	out, err := b.c.LineEditor.Edit(ctx, []byte(initial))
	if err != nil {
		return "", fmt.Errorf("edit caption: %w", err)
	}
	return string(bytes.ToValidUTF8(out, []byte("\uFFFD"))), nil
}

func (b *Builder) chooseTags(ctx context.Context, caption string) ([]string, menu.Signal, error) {
	generate, err := b.prompter.AskBinary(ctx, "Do you want to generate tags?")
	if err != nil {
		return nil, menu.SignalQuit, err
	}
	if !generate {
		return []string{}, menu.SignalPick, nil
	}

	tmpl, err := b.c.Presets.Get(TemplateInstructionTags)
	if err != nil {
		return nil, menu.SignalQuit, err
	}
	prompt := strings.ReplaceAll(tmpl, PlaceholderText, caption)

	return menu.SelectOne(ctx, b.prompter, menu.Round[[]string]{
		Announce: "Generating tags...",
		Generate: func(ctx context.Context) ([][]string, error) {
			candidates, err := b.c.Text.Generate(ctx, prompt)
			if err != nil {
				return nil, err
			}
			batches := make([][]string, 0, len(candidates))
			for _, candidate := range candidates {
				batches = append(batches, ParseTags(candidate))
			}
			return batches, nil
		},
		Render: func(batches [][]string) error {
			lines := make([]string, 0, len(batches))
			for _, batch := range batches {
				lines = append(lines, strings.Join(batch, " "))
			}
			b.prompter.PrintList(lines)
			return nil
		},
		Hint: []string{"Type your choice to use a tag batch.", menu.RerunHint, menu.QuitHint},
	})
}

func (b *Builder) chooseImage(ctx context.Context, caption string) (image.Image, menu.Signal, error) {
	generate, err := b.prompter.AskBinary(ctx, "Do you want to generate images?")
	if err != nil {
		return nil, menu.SignalQuit, err
	}
	if !generate {
		img, err := b.c.Store.DefaultImage()
		if err != nil {
			return nil, menu.SignalQuit, fmt.Errorf("load default image: %w", err)
		}
		return img, menu.SignalPick, nil
	}

	return menu.SelectOne(ctx, b.prompter, menu.Round[image.Image]{
		Announce: "Generating images...",
		Generate: func(ctx context.Context) ([]image.Image, error) {
			return b.c.Images.Generate(ctx, caption)
		},
		Render: func(images []image.Image) error {
			for i, img := range images {
				path, err := b.c.Store.SaveCandidate(img, i+1)
				if err != nil {
					return fmt.Errorf("save candidate %d: %w", i+1, err)
				}
				b.prompter.Say(fmt.Sprintf("Saving image %s...", path))
			}
			return nil
		},
		Hint: []string{"Type your choice to use an image.", menu.RerunHint, menu.QuitHint},
	})
}
