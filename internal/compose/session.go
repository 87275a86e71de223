package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/menu"
)

const (
	choosePreset = 1
	createPosts  = 2
)

// Session is the top-level menu loop.
type Session struct {
	prompter  *menu.Prompter
	builder   *Builder
	presets   PresetManager
	publisher Publisher
}

// NewSession wires a session and its post builder to the same prompter.
func NewSession(p *menu.Prompter, c Collaborators) *Session {
	return &Session{
		prompter:  p,
		builder:   NewBuilder(p, c),
		presets:   c.Presets,
		publisher: c.Publisher,
	}
}

// Run loops on the main menu until the operator quits, the input closes or
// ctx is cancelled, all of which end the session cleanly. Collaborator
// failures are returned.
func (s *Session) Run(ctx context.Context) error {
	for {
		s.prompter.Say(
			"Type '1' to choose a preset.",
			"Type '2' to create posts.",
			"Type 'q' to exit.",
		)
		sel, err := s.prompter.ReadChoice(ctx, createPosts)
		if err != nil {
			return s.finish(ctx, err)
		}

		switch sel.Signal {
		case menu.SignalQuit:
			return s.finish(ctx, nil)
		case menu.SignalRerun:
			continue
		}

		switch sel.Pick {
		case choosePreset:
			err = s.choosePreset(ctx)
		case createPosts:
			err = s.createPosts(ctx)
		}
		if err != nil {
			return s.finish(ctx, err)
		}
	}
}

// finish ends the session. Interrupts count as a quit whether they arrive
// while waiting for input or while a collaborator call is running.
func (s *Session) finish(ctx context.Context, err error) error {
	if err != nil && !interrupted(ctx, err) && !errors.Is(err, menu.ErrInputClosed) {
		return err
	}
	s.prompter.Say("Goodbye!")
	return nil
}

func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, menu.ErrInterrupted) || errors.Is(err, context.Canceled) || ctx.Err() != nil
}

func (s *Session) choosePreset(ctx context.Context) error {
	presets, err := s.presets.Presets(ctx)
	if err != nil {
		return fmt.Errorf("list presets: %w", err)
	}
	if len(presets) == 0 {
		s.prompter.Complain("No presets available!")
		return nil
	}

	names := make([]string, 0, len(presets))
	for _, preset := range presets {
		names = append(names, preset.Name)
	}

	for {
		s.prompter.PrintList(names)
		s.prompter.Say("Choose your new preset.")
		sel, err := s.prompter.ReadChoice(ctx, len(presets))
		if err != nil {
			return err
		}
		switch sel.Signal {
		case menu.SignalQuit:
			s.prompter.Say("Keeping the current preset.")
			return nil
		case menu.SignalRerun:
			continue
		}

		chosen := presets[sel.Pick-1]
		s.presets.Set(chosen)
		logutil.Infof("preset %q selected", chosen.Name)
		return nil
	}
}

func (s *Session) createPosts(ctx context.Context) error {
	count, err := s.prompter.ReadCount(ctx, "The number of posts in this group (empty means one): ")
	if err != nil {
		return err
	}

	posts := make([]*Post, 0, count)
	for i := 1; i <= count; i++ {
		if count > 1 {
			s.prompter.Say(fmt.Sprintf("Post %d of %d", i, count))
		}
		post, sig, err := s.builder.Build(ctx, i)
		if err != nil {
			return err
		}
		if sig == menu.SignalQuit {
			s.prompter.Say("Returning to main menu.")
			return nil
		}
		posts = append(posts, post)
	}

	for i, post := range posts {
		if err := s.publisher.Publish(ctx, post); err != nil {
			return fmt.Errorf("publish post %d of %d: %w", i+1, len(posts), err)
		}
		logutil.Debugf("published post %d of %d", i+1, len(posts))
	}
	return nil
}
