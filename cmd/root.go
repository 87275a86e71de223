/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/config"
	"github.com/blacktop/postcraft/internal/editor"
	"github.com/blacktop/postcraft/internal/imgedit"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/menu"
	"github.com/blacktop/postcraft/internal/preset"
	"github.com/blacktop/postcraft/internal/xpost"
)

var (
	prefixFlag        string
	targetsFlag       []string
	dryRun            bool
	verbose           bool
	presetsPath       string
	presetName        string
	defaultImagePath  string
	brandFlag         string
	brandLogoFlag     string
	candidatesFlag    int
	outDirFlag        string
	textProviderFlag  string
	imageProviderFlag string
)

// Execute runs the root command. An interrupt cancels the command context,
// which ends the interactive session cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postcraft",
		Short: "Compose and cross-post social media posts interactively",
		Long: "postcraft walks you through writing a caption, picking hashtags and choosing an image " +
			"for one or more posts, then publishes them to Twitter/X, Mastodon, Bluesky or an S3 archive.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {
			logutil.SetVerbose(verbose)
		},
		RunE: runRoot,
		Example: `  postcraft --preset news --target mastodon
  postcraft --dry-run --text-provider mock --image-provider mock
  postcraft presets --presets ./presets.yaml`,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&presetsPath, "presets", "", "Path to the presets YAML file")

	cmd.Flags().StringVar(&prefixFlag, "prefix", "", "Prompt prefix shown when a choice is expected (default \">\")")
	cmd.Flags().StringSliceVar(&targetsFlag, "target", nil, "Targets to post to (twitter, mastodon, bluesky, s3, or all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print posts instead of publishing them")
	cmd.Flags().StringVar(&presetName, "preset", "", "Preset to activate at startup")
	cmd.Flags().StringVar(&defaultImagePath, "default-image", "", "Image used when image generation is skipped")
	cmd.Flags().StringVar(&brandFlag, "brand", "", "Brand text written on every image")
	cmd.Flags().StringVar(&brandLogoFlag, "brand-logo", "", "Logo placed in the bottom right corner of every image")
	cmd.Flags().IntVar(&candidatesFlag, "candidates", 0, "Number of candidates requested per generation (default 3)")
	cmd.Flags().StringVar(&outDirFlag, "out-dir", "", "Directory for candidate and final images")
	cmd.Flags().StringVar(&textProviderFlag, "text-provider", "", "Text generator (openai, gemini, mock)")
	cmd.Flags().StringVar(&imageProviderFlag, "image-provider", "", "Image generator (openai, mock)")
	cmd.Flags().SortFlags = false

	cmd.AddCommand(newPresetsCommand())
	cmd.AddCommand(newCompletionCommand())

	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	targets, err := normalizeTargets(cfg.Targets)
	if err != nil {
		return err
	}

	store, err := buildPresetStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(store)

	presets := preset.NewManager(store)
	if cfg.Preset != "" {
		if err := presets.Activate(ctx, cfg.Preset); err != nil {
			return err
		}
	} else if _, err := presets.ActivateSole(ctx); err != nil {
		return err
	}

	text, err := buildTextGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(text)

	images, err := buildImageGenerator(cfg)
	if err != nil {
		return err
	}

	imageEditor, err := imgedit.New(imgedit.Options{Brand: cfg.Brand, LogoPath: cfg.BrandLogo})
	if err != nil {
		return err
	}
	imageStore := imgedit.Store{Dir: cfg.OutDir, DefaultPath: cfg.DefaultImage}

	var posters []xpost.Poster
	if dryRun {
		posters = namedPosters(targets)
	} else if posters, err = buildPosters(ctx, targets); err != nil {
		return err
	}

	if !editor.Interactive(os.Stdin) {
		logutil.Warnf("stdin is not a terminal; the external editor may not work")
	}

	prompter := menu.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Prefix)
	session := compose.NewSession(prompter, compose.Collaborators{
		Text:       text,
		Images:     images,
		Editor:     imageEditor,
		Presets:    presets,
		Publisher:  xpost.NewPublisher(posters, imageStore, cmd.OutOrStdout(), dryRun),
		LineEditor: editor.New(),
		Store:      imageStore,
	})

	return session.Run(ctx)
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("prefix") {
		cfg.Prefix = prefixFlag
	}
	if flags.Changed("target") {
		cfg.Targets = targetsFlag
	}
	if flags.Changed("presets") {
		cfg.PresetsPath = presetsPath
	}
	if flags.Changed("preset") {
		cfg.Preset = presetName
	}
	if flags.Changed("default-image") {
		cfg.DefaultImage = defaultImagePath
	}
	if flags.Changed("brand") {
		cfg.Brand = brandFlag
	}
	if flags.Changed("brand-logo") {
		cfg.BrandLogo = brandLogoFlag
	}
	if flags.Changed("candidates") {
		cfg.Candidates = candidatesFlag
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = outDirFlag
	}
	if flags.Changed("text-provider") {
		cfg.TextProvider = textProviderFlag
	}
	if flags.Changed("image-provider") {
		cfg.ImageProvider = imageProviderFlag
	}
}

func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logutil.Debugf("close: %v", err)
		}
	}
}
