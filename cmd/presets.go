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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/config"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/preset"
)

func newPresetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the presets available to a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := buildPresetStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeQuietly(store)

			presets, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(presets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No presets available!")
				return nil
			}
			for _, p := range presets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, strings.Join(templateKeys(p), ", "))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Copy presets from the preset file into Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return pushPresets(cmd, cfg)
		},
	})

	return cmd
}

func pushPresets(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.RedisURL == "" {
		return compose.MissingEnvError{Provider: "redis", Variables: []string{"POSTCRAFT_REDIS_URL"}}
	}

	presets, err := preset.FileStore{Path: cfg.PresetsPath}.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(presets) == 0 {
		return errors.New("preset file is empty")
	}

	store, err := preset.DialRedis(cmd.Context(), cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeQuietly(store)

	if err := store.Save(cmd.Context(), presets...); err != nil {
		return err
	}
	logutil.Infof("pushed %d presets from %s", len(presets), cfg.PresetsPath)
	return nil
}

func templateKeys(p compose.Preset) []string {
	keys := make([]string, 0, len(p.Templates))
	for key := range p.Templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
