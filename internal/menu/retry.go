package menu

import (
	"context"
	"fmt"
)

const (
	RerunHint = "Type 'r' to rerun generation."
	QuitHint  = "Type 'q' to return to the last screen."
)

// Round describes one generate-and-choose flow.
type Round[T any] struct {
	// Announce is printed before every generation.
	Announce string
	// Generate produces a fresh candidate batch.
	Generate func(ctx context.Context) ([]T, error)
	// Render shows the batch to the operator. It may have side effects
	// such as writing candidates to disk.
	Render func(batch []T) error
	// Hint lines are printed after rendering, before the choice prompt.
	Hint []string
}

// SelectOne runs round until the operator picks a candidate or quits.
// A rerun discards the current batch and calls Generate again. Quit is
// returned to the caller as SignalQuit with the zero value; generator and
// render errors are returned as is.
func SelectOne[T any](ctx context.Context, p *Prompter, round Round[T]) (T, Signal, error) {
	var zero T
	for {
		if round.Announce != "" {
			p.Say(round.Announce)
		}
		batch, err := round.Generate(ctx)
		if err != nil {
			return zero, SignalQuit, err
		}
		if round.Render != nil {
			if err := round.Render(batch); err != nil {
				return zero, SignalQuit, err
			}
		}
		if len(batch) == 0 {
			p.Complain("No candidates were generated!")
		}
		p.Hint(round.Hint...)

		sel, err := p.ReadChoice(ctx, len(batch))
		if err != nil {
			return zero, SignalQuit, err
		}
		switch sel.Signal {
		case SignalPick:
			return batch[sel.Pick-1], SignalPick, nil
		case SignalQuit:
			return zero, SignalQuit, nil
		case SignalRerun:
			continue
		default:
			return zero, SignalQuit, fmt.Errorf("unexpected signal %s", sel.Signal)
		}
	}
}
