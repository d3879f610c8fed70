package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/kiln/pkg/config"
	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/host/blender"
	"github.com/chazu/kiln/pkg/host/raster"
	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/scene"
)

// App runs render scripts against the configured host.
type App struct {
	cfg  *config.Config
	host host.Host
}

// Script is a render script and the directory its relative paths resolve
// against.
type Script struct {
	Name   string
	Source string
	Dir    string
}

// LoadScript reads the script at path. An empty path selects the built-in
// teapot script rooted at the working directory.
func LoadScript(path string) (*Script, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return &Script{Name: defaultScriptName, Source: defaultScript, Dir: wd}, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return &Script{Name: filepath.Base(abs), Source: string(src), Dir: filepath.Dir(abs)}, nil
}

// NewApp creates an App with the host selected by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	h, err := newHost(cfg)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, host: h}, nil
}

// newHost builds the backend named by cfg.Backend.
func newHost(cfg *config.Config) (host.Host, error) {
	switch cfg.Backend {
	case config.BackendBlender:
		b := blender.New(blender.Options{
			Binary:          cfg.Blender.Binary,
			Args:            cfg.Blender.Args,
			DisableImporter: cfg.DisableImporter,
			Stream:          cfg.Blender.Stream,
		})
		if !b.Available() {
			return nil, fmt.Errorf("blender binary %q not found", cfg.Blender.Binary)
		}
		return b, nil
	case config.BackendRaster, "":
		return raster.New(raster.Options{
			DisableImporter: cfg.DisableImporter,
			MaxSupersample:  cfg.Raster.MaxSupersample,
			SmoothAngle:     cfg.Raster.SmoothAngle,
		}), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Run evaluates script and renders its outputs. Script errors are logged
// with their line numbers and returned as one error.
func (a *App) Run(ctx context.Context, script *Script) (*engine.Result, error) {
	return a.run(ctx, script, a.host, engine.Options{
		OnLoad: logLoad,
		OnRender: func(o engine.Output) {
			logging.LogInfo("Generated %s", filepath.Base(o.Path))
		},
	})
}

// DryRun evaluates script without rendering. Imports still go through the
// host so the reported mesh sizes are real.
func (a *App) DryRun(ctx context.Context, script *Script) (*engine.Result, error) {
	return a.run(ctx, script, &dryRunHost{Host: a.host}, engine.Options{})
}

// logLoad reports which path produced a mesh.
func logLoad(l engine.Load) {
	how := "importer"
	if l.Fallback {
		how = "fallback parser"
	}
	logging.LogInfo("Loaded %s from %s via %s", l.Name, filepath.Base(l.Path), how)
}

// run evaluates script on h. Only the hooks of opts are used.
func (a *App) run(ctx context.Context, script *Script, h host.Host, opts engine.Options) (*engine.Result, error) {
	timeout, err := a.cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	dir := script.Dir
	if a.cfg.OutputDir != "" {
		dir = a.cfg.OutputDir
	}
	eng, err := engine.NewEngine(engine.Options{
		Host:     h,
		Dir:      dir,
		Timeout:  timeout,
		OnRender: opts.OnRender,
		OnLoad:   opts.OnLoad,
	})
	if err != nil {
		return nil, err
	}

	logging.LogDebug("running %s with the %s host in %s", script.Name, eng.Host().Name(), dir)
	res, evalErrs, err := eng.Run(ctx, script.Source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, 0, len(evalErrs))
		for _, e := range evalErrs {
			logging.LogError("%s: %s", script.Name, e.Error())
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("%s: %s", script.Name, strings.Join(msgs, "; "))
	}

	for _, w := range res.Warnings {
		logging.LogWarn("%s: %s", script.Name, w.Message)
	}
	return res, nil
}

var _ host.Host = (*dryRunHost)(nil)

// dryRunHost forwards imports and skips renders.
type dryRunHost struct {
	host.Host
}

func (h *dryRunHost) Name() string {
	return h.Host.Name() + " (dry run)"
}

func (h *dryRunHost) Render(ctx context.Context, s *scene.Scene) error {
	if err := s.Render.Validate(); err != nil {
		return err
	}
	if s.ActiveCamera() == nil {
		return errors.New("scene has no active camera")
	}
	return ctx.Err()
}
