package menu

import (
	"errors"
	"strconv"
	"strings"
)

// Signal tells a menu loop what the operator asked for.
type Signal int

const (
	// SignalPick carries a numeric selection.
	SignalPick Signal = iota
	// SignalQuit asks to leave the current screen.
	SignalQuit
	// SignalRerun asks to regenerate the current candidates.
	SignalRerun
)

func (s Signal) String() string {
	switch s {
	case SignalPick:
		return "pick"
	case SignalQuit:
		return "quit"
	case SignalRerun:
		return "rerun"
	default:
		return "unknown"
	}
}

const (
	QuitSentinel  = 'q'
	RerunSentinel = 'r'
)

var (
	errUnknownChoice = errors.New("unknown choice")
	errOutOfRange    = errors.New("choice out of range")
)

// Selection is the parsed result of one line of menu input. Pick is only
// meaningful when Signal is SignalPick and is always within 1..max.
type Selection struct {
	Signal Signal
	Pick   int
}

// ParseChoice interprets a single input line against a menu of max entries.
// The quit and rerun sentinels are matched on the first character only, so
// "quit" and "rerun!" behave like "q" and "r".
func ParseChoice(line string, max int) (Selection, error) {
	if line != "" {
		switch line[0] {
		case QuitSentinel:
			return Selection{Signal: SignalQuit}, nil
		case RerunSentinel:
			return Selection{Signal: SignalRerun}, nil
		}
	}

	value, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return Selection{}, errUnknownChoice
	}
	if value < 1 || value > max {
		return Selection{}, errOutOfRange
	}
	return Selection{Signal: SignalPick, Pick: value}, nil
}

func complaint(err error) string {
	if errors.Is(err, errOutOfRange) {
		return "Out of range choice!"
	}
	return "Unknown choice!"
}
