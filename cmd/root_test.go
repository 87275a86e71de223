package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/postcraft/internal/config"
	"github.com/blacktop/postcraft/internal/imagegen"
	"github.com/blacktop/postcraft/internal/preset"
	"github.com/blacktop/postcraft/internal/textgen"
	"github.com/blacktop/postcraft/internal/xpost"
)

const presetsYAML = `- name: news
  templates:
    instruction: "Write about {topic}"
    instruction_tags: "Tags for {text}"
`

func writePresets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(presetsYAML), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"POSTCRAFT_PROMPT_PREFIX", "POSTCRAFT_PRESETS", "POSTCRAFT_PRESET", "POSTCRAFT_REDIS_URL",
		"POSTCRAFT_CANDIDATES", "POSTCRAFT_OUT_DIR", "POSTCRAFT_TARGETS",
		"POSTCRAFT_TEXT_PROVIDER", "POSTCRAFT_IMAGE_PROVIDER",
	} {
		t.Setenv(key, "")
	}
}

func TestNormalizeTargets(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{name: "default", in: nil, want: []string{"bluesky", "mastodon", "twitter"}},
		{name: "all", in: []string{"twitter", "ALL"}, want: []string{"bluesky", "mastodon", "s3", "twitter"}},
		{name: "dedupe", in: []string{" Mastodon ", "mastodon", "s3"}, want: []string{"mastodon", "s3"}},
		{name: "unsupported", in: []string{"myspace"}, wantErr: true},
		{name: "blank", in: []string{" ", ""}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeTargets(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--prefix", "$", "--candidates", "5", "--target", "s3", "--text-provider", "mock",
	}))

	cfg := &config.Config{Prefix: ">", Candidates: 3, Targets: []string{"twitter"}, TextProvider: "openai", OutDir: "out"}
	applyFlags(cmd, cfg)

	assert.Equal(t, "$", cfg.Prefix)
	assert.Equal(t, 5, cfg.Candidates)
	assert.Equal(t, []string{"s3"}, cfg.Targets)
	assert.Equal(t, "mock", cfg.TextProvider)
	assert.Equal(t, "out", cfg.OutDir, "unset flags keep the configured value")
}

func TestBuildGenerators(t *testing.T) {
	cfg := &config.Config{Candidates: 2, TextProvider: "Mock", ImageProvider: "mock"}

	text, err := buildTextGenerator(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, textgen.Mock{Candidates: 2}, text)

	images, err := buildImageGenerator(cfg)
	require.NoError(t, err)
	assert.Equal(t, imagegen.Mock{Candidates: 2}, images)

	cfg.TextProvider = "parrot"
	_, err = buildTextGenerator(context.Background(), cfg)
	assert.Error(t, err)

	cfg.ImageProvider = "crayons"
	_, err = buildImageGenerator(cfg)
	assert.Error(t, err)
}

func TestBuildPresetStore(t *testing.T) {
	missing := &config.Config{PresetsPath: filepath.Join(t.TempDir(), "nope.yaml")}
	store, err := buildPresetStore(context.Background(), missing)
	require.NoError(t, err)
	assert.Equal(t, preset.Builtin, store)

	file := &config.Config{PresetsPath: writePresets(t)}
	store, err = buildPresetStore(context.Background(), file)
	require.NoError(t, err)
	presets, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "news", presets[0].Name)
}

func TestNamedPostersDoNotPublish(t *testing.T) {
	posters := namedPosters([]string{"mastodon"})
	require.Len(t, posters, 1)
	assert.Equal(t, "mastodon", posters[0].Name())
	assert.Error(t, posters[0].Post(context.Background(), xpost.Request{}))
}

func TestPresetsCommand(t *testing.T) {
	clearEnv(t)
	path := writePresets(t)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"presets", "--presets", path})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, "news\tinstruction, instruction_tags\n", out.String())
}

func TestPresetsPushToRedis(t *testing.T) {
	clearEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("POSTCRAFT_REDIS_URL", "redis://"+mr.Addr())
	path := writePresets(t)

	cmd := newRootCommand()
	cmd.SetArgs([]string{"presets", "push", "--presets", path})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var out bytes.Buffer
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"presets"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "news\t")
}

func TestPresetsPushNeedsRedis(t *testing.T) {
	clearEnv(t)
	cmd := newRootCommand()
	cmd.SetArgs([]string{"presets", "push", "--presets", writePresets(t)})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRootDryRunSession(t *testing.T) {
	clearEnv(t)
	t.Setenv("VISUAL", "true")
	outDir := t.TempDir()

	input := "1\n1\n" + // choose the news preset
		"2\n\n" + // create one post
		"y\ntopic\n1\n" + // generated caption, kept as is by the editor
		"y\n1\n" + // generated tags
		"y\n1\n" + // generated image
		"q\n"

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetIn(bytes.NewBufferString(input))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--dry-run", "--target", "mastodon",
		"--presets", writePresets(t), "--out-dir", outDir,
		"--text-provider", "mock", "--image-provider", "mock", "--candidates", "2",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `[dry-run] would post to mastodon: "Draft 1: Write about topic`)
	assert.Contains(t, out.String(), "Goodbye!")
	assert.FileExists(t, filepath.Join(outDir, "1.jpg"))
	assert.FileExists(t, filepath.Join(outDir, "2.jpg"))

	finals, err := filepath.Glob(filepath.Join(outDir, "posts", "*.jpg"))
	require.NoError(t, err)
	assert.Len(t, finals, 1)
}

func TestRootFlagFixesInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTCRAFT_CANDIDATES", "0")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"presets", "--presets", writePresets(t)})
	require.Error(t, cmd.ExecuteContext(context.Background()), "zero candidates is rejected")

	var out bytes.Buffer
	cmd = newRootCommand()
	cmd.SetIn(bytes.NewBufferString("q\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--dry-run", "--candidates", "3", "--out-dir", t.TempDir(),
		"--presets", writePresets(t), "--text-provider", "mock", "--image-provider", "mock",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRootActivatesOnlyPreset(t *testing.T) {
	clearEnv(t)
	t.Setenv("VISUAL", "true")

	input := "2\n\n" + // create one post without choosing a preset
		"y\ntopic\n1\n" +
		"n\n" +
		"y\n1\n" +
		"q\n"

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetIn(bytes.NewBufferString(input))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--dry-run", "--target", "s3", "--out-dir", t.TempDir(),
		"--presets", filepath.Join(t.TempDir(), "missing.yaml"),
		"--text-provider", "mock", "--image-provider", "mock", "--candidates", "1",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "[dry-run] would post to s3")
	assert.Contains(t, out.String(), "Goodbye!")
}
