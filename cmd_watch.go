package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/config"
	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/watch"
)

func newWatchCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [script.kiln]",
		Short: "Re-render whenever the script, its meshes or the settings change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := scriptArg(args)
			script, err := LoadScript(path)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, gf, script.Dir)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}

			files, err := watchedFiles(cmd.Context(), app, script, path)
			if err != nil {
				return err
			}
			delay, err := cfg.DebounceDuration()
			if err != nil {
				return err
			}

			w, err := watch.New(files, delay, func(ctx context.Context) {
				if _, err := rerun(ctx, cmd, gf, script, path); err != nil {
					logging.LogError("%v", err)
					return
				}
				logging.LogInfo("Watching %d files for changes", len(files))
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
}

// rerun reloads the script and the settings, then renders. Flags still
// override the settings file.
func rerun(ctx context.Context, cmd *cobra.Command, gf *globalFlags, script *Script, path string) (*engine.Result, error) {
	current := script
	if path != "" {
		loaded, err := LoadScript(path)
		if err != nil {
			return nil, err
		}
		current = loaded
	}
	cfg, err := loadConfig(cmd, gf, current.Dir)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return nil, err
	}
	return app.Run(ctx, current)
}

// watchedFiles lists the script, the meshes it loads and the settings file.
func watchedFiles(ctx context.Context, app *App, script *Script, path string) ([]string, error) {
	res, err := app.DryRun(ctx, script)
	if err != nil {
		return nil, err
	}
	var files []string
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	for _, l := range res.Loads {
		files = append(files, l.Path)
	}
	files = append(files, filepath.Join(script.Dir, config.FileName))
	return files, nil
}
