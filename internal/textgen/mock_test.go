package textgen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerate(t *testing.T) {
	texts, err := Mock{Candidates: 3}.Generate(context.Background(), "Write   about\ncats")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Draft 1: Write about cats",
		"Draft 2: Write about cats",
		"Draft 3: Write about cats",
	}, texts)

	texts, err = Mock{}.Generate(context.Background(), strings.Repeat("x", 100))
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.True(t, strings.HasSuffix(texts[0], "..."))
}
