package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/config"
	"github.com/chazu/kiln/pkg/logging"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	backend    string
	logLevel   string
	noImporter bool
	timeout    time.Duration
	blender    string
	outputDir  string
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}
	root := &cobra.Command{
		Use:           "kiln",
		Short:         "Render application icons from a 3D mesh",
		Long:          `kiln runs a render script that sets up a scene around an OBJ mesh and writes PNG icons, including maskable variants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "Settings file (default: kiln.toml next to the script)")
	pf.StringVarP(&gf.backend, "backend", "b", "", "Host backend: raster or blender")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&gf.noImporter, "no-importer", false, "Skip the host OBJ importer and use the built-in parser")
	pf.DurationVar(&gf.timeout, "timeout", 0, "Abort the run after this long")
	pf.StringVar(&gf.blender, "blender", "", "Blender executable for the blender backend")
	pf.StringVarP(&gf.outputDir, "output", "o", "", "Directory relative paths resolve against (default: the script's directory)")

	root.AddCommand(
		newRenderCmd(gf),
		newWatchCmd(gf),
		newInspectCmd(gf),
		newConfigCmd(gf),
	)
	return root
}

// loadConfig reads the settings file for a script in dir and applies any
// flags the user set.
func loadConfig(cmd *cobra.Command, gf *globalFlags, dir string) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if gf.configPath != "" {
		path = gf.configPath
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.Find(dir)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = gf.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = gf.logLevel
	}
	if flags.Changed("no-importer") {
		cfg.DisableImporter = gf.noImporter
	}
	if flags.Changed("timeout") {
		cfg.Timeout = gf.timeout.String()
	}
	if flags.Changed("blender") {
		cfg.Blender.Binary = gf.blender
	}
	if flags.Changed("output") {
		abs, err := filepath.Abs(gf.outputDir)
		if err != nil {
			return nil, err
		}
		cfg.OutputDir = abs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logging.SetCaller(cfg.LogLevel == "debug")
	if path != "" {
		logging.LogDebug("loaded settings from %s", path)
	}
	return cfg, nil
}

// scriptArg returns the optional script argument.
func scriptArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newRenderCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "render [script.kiln]",
		Short: "Render the icons described by a script",
		Long:  `Run a render script once. Without a script the built-in teapot script renders teapot.obj from the current directory.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := LoadScript(scriptArg(args))
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
			res, err := app.Run(cmd.Context(), script)
			if err != nil {
				return err
			}
			logging.LogInfo("All %d icons generated successfully", len(res.Outputs))
			return nil
		},
	}
}

func newConfigCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config [dir]",
		Short: "Print the effective settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := loadConfig(cmd, gf, dir)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
