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
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/config"
	"github.com/blacktop/postcraft/internal/imagegen"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/preset"
	"github.com/blacktop/postcraft/internal/textgen"
	"github.com/blacktop/postcraft/internal/xpost"
	"github.com/blacktop/postcraft/internal/xpost/bluesky"
	"github.com/blacktop/postcraft/internal/xpost/mastodon"
	"github.com/blacktop/postcraft/internal/xpost/s3archive"
	"github.com/blacktop/postcraft/internal/xpost/twitter"
)

const defaultBlueskyPDSURL = "https://bsky.social"

var supportedTargets = map[string]struct{}{
	"bluesky":  {},
	"mastodon": {},
	"s3":       {},
	"twitter":  {},
}

func allTargets() []string {
	out := make([]string, 0, len(supportedTargets))
	for target := range supportedTargets {
		out = append(out, target)
	}
	return sortedTargets(out)
}

func normalizeTargets(values []string) ([]string, error) {
	if len(values) == 0 {
		return sortedTargets([]string{"twitter", "mastodon", "bluesky"}), nil
	}

	result := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		if raw == "all" {
			return allTargets(), nil
		}
		if _, ok := supportedTargets[raw]; !ok {
			return nil, fmt.Errorf("unsupported target %q", raw)
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		result = append(result, raw)
	}

	if len(result) == 0 {
		return nil, errors.New("no targets selected")
	}

	return sortedTargets(result), nil
}

func sortedTargets(targets []string) []string {
	out := append([]string(nil), targets...)
	sort.Strings(out)
	return out
}

func buildPosters(ctx context.Context, targets []string) ([]xpost.Poster, error) {
	constructors := map[string]func(context.Context) (xpost.Poster, error){
		"bluesky": func(ctx context.Context) (xpost.Poster, error) {
			return bluesky.New(ctx, bluesky.Config{PDSURL: defaultBlueskyPDSURL})
		},
		"mastodon": func(ctx context.Context) (xpost.Poster, error) {
			return mastodon.New(ctx)
		},
		"s3": func(ctx context.Context) (xpost.Poster, error) {
			return s3archive.New(ctx)
		},
		"twitter": func(ctx context.Context) (xpost.Poster, error) {
			return twitter.New(ctx)
		},
	}

	posters := make([]xpost.Poster, 0, len(targets))
	var errs []error
	for _, target := range targets {
		constructor, ok := constructors[target]
		if !ok {
			errs = append(errs, fmt.Errorf("target %q is not implemented", target))
			continue
		}
		poster, err := constructor(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}
		posters = append(posters, poster)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(posters) == 0 {
		return nil, errors.New("no targets available")
	}
	return posters, nil
}

// namedPoster stands in for a real target during a dry run, so no
// credentials are needed.
type namedPoster string

func (n namedPoster) Name() string { return string(n) }

func (n namedPoster) Post(context.Context, xpost.Request) error {
	return fmt.Errorf("%s: dry-run poster cannot publish", n)
}

func namedPosters(targets []string) []xpost.Poster {
	posters := make([]xpost.Poster, 0, len(targets))
	for _, target := range targets {
		posters = append(posters, namedPoster(target))
	}
	return posters
}

func buildTextGenerator(ctx context.Context, cfg *config.Config) (compose.TextGenerator, error) {
	switch strings.ToLower(cfg.TextProvider) {
	case "openai":
		oc, err := textgen.LoadOpenAIConfig(cfg.Candidates)
		if err != nil {
			return nil, err
		}
		return textgen.NewOpenAI(oc)
	case "gemini":
		gc, err := textgen.LoadGeminiConfig(cfg.Candidates)
		if err != nil {
			return nil, err
		}
		return textgen.NewGemini(ctx, gc)
	case "mock":
		return textgen.Mock{Candidates: cfg.Candidates}, nil
	default:
		return nil, fmt.Errorf("unsupported text provider %q", cfg.TextProvider)
	}
}

func buildImageGenerator(cfg *config.Config) (compose.ImageGenerator, error) {
	switch strings.ToLower(cfg.ImageProvider) {
	case "openai":
		oc, err := imagegen.LoadOpenAIConfig(cfg.Candidates)
		if err != nil {
			return nil, err
		}
		return imagegen.NewOpenAI(oc)
	case "mock":
		return imagegen.Mock{Candidates: cfg.Candidates}, nil
	default:
		return nil, fmt.Errorf("unsupported image provider %q", cfg.ImageProvider)
	}
}

// buildPresetStore prefers Redis when a URL is configured, then the preset
// file, then the built-in presets when the file does not exist.
func buildPresetStore(ctx context.Context, cfg *config.Config) (preset.Store, error) {
	if cfg.RedisURL != "" {
		return preset.DialRedis(ctx, cfg.RedisURL)
	}
	if _, err := os.Stat(cfg.PresetsPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logutil.Warnf("preset file %s not found, using built-in presets", cfg.PresetsPath)
			return preset.Builtin, nil
		}
		return nil, fmt.Errorf("stat presets: %w", err)
	}
	return preset.FileStore{Path: cfg.PresetsPath}, nil
}
