package main

import (
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/assetlink/pkg/assetlink/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage project configuration",
	Long: `Manage the project's assetlink.yaml.

Configuration is read from <project>/assetlink.yaml, or the file given
with --config. Environment variables override file settings using the
ASSETLINK_ prefix, with dots replaced by underscores:
  ASSETLINK_ANDROID_ENABLED=false
  ASSETLINK_IOS_PATH=apps/ios
  ASSETLINK_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after defaults, file and environment are merged, and the platforms it resolves to.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter assetlink.yaml",
	Long:  `Write a starter assetlink.yaml into the project root if none exists.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// effectiveConfig is the yaml shape printed by config show.
type effectiveConfig struct {
	File         string            `yaml:"file"`
	Root         string            `yaml:"root"`
	Assets       []string          `yaml:"assets"`
	Dependencies []string          `yaml:"dependencies"`
	Exclude      []string          `yaml:"exclude"`
	Android      map[string]string `yaml:"android"`
	IOS          map[string]string `yaml:"ios"`
	Logging      map[string]string `yaml:"logging"`
	History      map[string]string `yaml:"history"`
	Resolved     *resolvedConfig   `yaml:"resolved,omitempty"`
	ResolveError string            `yaml:"resolve_error,omitempty"`
}

type resolvedConfig struct {
	Assets  []string `yaml:"assets"`
	Android string   `yaml:"android,omitempty"`
	IOS     string   `yaml:"ios,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file := cfg.File
	if file == "" {
		file = "(defaults, no file found)"
	}
	logPath := cfg.LogPath()
	if logPath == "" {
		logPath = "(default)"
	}

	show := effectiveConfig{
		File:         file,
		Root:         cfg.Root,
		Assets:       cfg.Assets,
		Dependencies: cfg.Dependencies,
		Exclude:      cfg.Exclude,
		Android: map[string]string{
			"enabled":     cfg.Android.Enabled,
			"path":        cfg.Android.Path,
			"app_name":    cfg.Android.AppName,
			"entry_point": cfg.Android.EntryPoint,
		},
		IOS: map[string]string{
			"enabled":    cfg.IOS.Enabled,
			"path":       cfg.IOS.Path,
			"project":    cfg.IOS.Project,
			"info_plist": cfg.IOS.InfoPlist,
		},
		Logging: map[string]string{
			"level":         cfg.Logging.Level,
			"path":          logPath,
			"console_level": cfg.Logging.ConsoleLevel,
		},
		History: map[string]string{
			"enabled":        fmt.Sprintf("%t", cfg.History.Enabled),
			"path":           cfg.HistoryDir(),
			"retention_days": fmt.Sprintf("%d", cfg.History.RetentionDays),
		},
	}

	if project, err := cfg.Resolve(); err != nil {
		show.ResolveError = err.Error()
	} else {
		show.Resolved = &resolvedConfig{Assets: project.Assets}
		if project.Android != nil {
			show.Resolved.Android = project.Android.Dir
		}
		if project.IOS != nil {
			show.Resolved.IOS = project.IOS.Dir
		}
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	if err := encoder.Encode(show); err != nil {
		return err
	}
	return encoder.Close()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, created, err := config.WriteDefault(cfg.Root)
	if err != nil {
		return err
	}
	if created {
		printInfo(cmd.OutOrStdout(), "Created %s", path)
	} else {
		printInfo(cmd.OutOrStdout(), "Config file already exists: %s", path)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.File
	if path == "" {
		path = filepath.Join(cfg.Root, config.FileName+".yaml")
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
