package mastodon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/postcraft/internal/compose"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(envServer, " https://mastodon.example ")
	t.Setenv(envAccessToken, "token")
	t.Setenv(envClientID, "")
	t.Setenv(envClientSecret, "")
	t.Setenv(envLanguage, "de")

	cfg, err := loadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://mastodon.example", cfg.Server)
	assert.Equal(t, "token", cfg.AccessToken)
	assert.Equal(t, "de", cfg.Language)
}

func TestLoadConfigFromEnvMissing(t *testing.T) {
	t.Setenv(envServer, "")
	t.Setenv(envAccessToken, "")

	_, err := loadConfigFromEnv()
	var missing compose.MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{envServer, envAccessToken}, missing.Variables)
}
