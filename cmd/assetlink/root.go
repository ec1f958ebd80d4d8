package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/assetlink/pkg/assetlink/config"
	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
	"github.com/jamesainslie/assetlink/pkg/assetlink/output"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	projectDir   string
	outputFormat string
	verbose      bool
	quiet        bool

	rootCmd = &cobra.Command{
		Use:   "assetlink",
		Short: "Link font, image, audio and other assets into native projects",
		Long: `assetlink copies and registers a project's asset files in its Android
and iOS native projects, and keeps them in sync as assets are added,
changed or removed.

Each platform keeps a link-assets-manifest.json recording what was linked,
so repeated runs only apply the difference.

Examples:
  assetlink link                 # Link every configured platform
  assetlink link -p android      # Link Android only
  assetlink link --watch         # Re-link whenever an asset changes
  assetlink status               # Show what a link would change
  assetlink history              # View past runs
  assetlink config init          # Write a starter assetlink.yaml`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <project>/assetlink.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "project root (default: working directory)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "pretty", "output format: pretty, plain, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "errors only on stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// app is the state a command builds from configuration.
type app struct {
	cfg     *config.Config
	project *config.Project
	log     *logging.Logger
	history *history.Store
}

// loadConfig reads configuration for the selected project.
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{Dir: projectDir, File: cfgFile})
}

// bootstrap loads and resolves configuration, starts logging and, when
// withHistory is set and history is enabled, opens the run journal. A
// journal that cannot be opened is logged and skipped.
func bootstrap(withHistory bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	project, err := cfg.Resolve()
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	a := &app{cfg: cfg, project: project, log: log}
	if withHistory && cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryDir())
		if err != nil {
			log.Warn("run history unavailable", "error", err)
		} else {
			a.history = store
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	_ = a.log.Close()
}

// newLogger builds the root logger. The console shows warnings by default,
// debug output with --verbose and errors only with --quiet.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.LogPath(),
		Rotation:     logging.DefaultRotationConfig(),
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel(cfg.Logging.ConsoleLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return log, nil
}

func consoleLevel(configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	case configured != "":
		return configured
	default:
		return "warn"
	}
}

// render formats with the selected output format and writes to out.
func render(out io.Writer, format func(output.Formatter, *bytes.Buffer) error) error {
	formatter, err := output.Get(outputFormat)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := format(formatter, &buf); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(out io.Writer, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
