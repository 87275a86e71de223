package textgen

import (
	"context"
	"fmt"
	"strings"
)

const mockSubjectLimit = 60

// Mock returns deterministic drafts derived from the prompt, for offline use.
type Mock struct {
	Candidates int
}

func (m Mock) Generate(_ context.Context, prompt string) ([]string, error) {
	n := m.Candidates
	if n < 1 {
		n = 1
	}
	subject := strings.Join(strings.Fields(prompt), " ")
	if runes := []rune(subject); len(runes) > mockSubjectLimit {
		subject = string(runes[:mockSubjectLimit]) + "..."
	}

	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Draft %d: %s", i+1, subject)
	}
	return out, nil
}
