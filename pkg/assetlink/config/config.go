package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// ErrNoNativeDir is returned when no native project directory can be
// resolved, or an explicitly enabled one does not exist.
var ErrNoNativeDir = errors.New("no native project directory")

// AndroidConfig configures the Android platform.
type AndroidConfig struct {
	// Enabled is "auto", or a boolean. Auto links the platform when its
	// directory exists.
	Enabled    string `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	AppName    string `mapstructure:"app_name"`
	EntryPoint string `mapstructure:"entry_point"`
}

// IOSConfig configures the Apple platform.
type IOSConfig struct {
	Enabled   string `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Project   string `mapstructure:"project"`
	InfoPlist string `mapstructure:"info_plist"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Components   map[string]string `mapstructure:"components"`
}

// HistoryConfig configures the run journal.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config is the project configuration.
type Config struct {
	// Assets are the declared asset roots, relative to the project root.
	Assets []string `mapstructure:"assets"`

	// Dependencies are directories whose own assetlink.yaml declares more
	// asset roots.
	Dependencies []string `mapstructure:"dependencies"`

	// Exclude holds doublestar patterns relative to the project root.
	Exclude []string `mapstructure:"exclude"`

	Android AndroidConfig `mapstructure:"android"`
	IOS     IOSConfig     `mapstructure:"ios"`
	Logging LoggingConfig `mapstructure:"logging"`
	History HistoryConfig `mapstructure:"history"`

	// Root is the project root directory.
	Root string `mapstructure:"-"`

	// File is the configuration file that was read, or "" if none.
	File string `mapstructure:"-"`
}

// LoadOptions selects what Load reads.
type LoadOptions struct {
	// Dir is the project root. Defaults to the working directory.
	Dir string

	// File is an explicit configuration file. It must exist.
	File string
}

// Load reads the project configuration from <Dir>/assetlink.yaml (or
// File) and ASSETLINK_ environment variables, over built-in defaults.
// A missing project file is not an error.
func Load(opts LoadOptions) (*Config, error) {
	root := opts.Dir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	v := viper.New()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(root)
	}

	v.SetEnvPrefix("ASSETLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Root = root
	if used := v.ConfigFileUsed(); used != "" {
		if cfg.File, err = filepath.Abs(used); err != nil {
			return nil, fmt.Errorf("failed to resolve config file: %w", err)
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assets", []string{})
	v.SetDefault("dependencies", []string{})
	v.SetDefault("exclude", DefaultExclusions)

	v.SetDefault("android.enabled", EnabledAuto)
	v.SetDefault("android.path", DefaultAndroidPath)
	v.SetDefault("android.app_name", DefaultAppName)
	v.SetDefault("android.entry_point", "")

	v.SetDefault("ios.enabled", EnabledAuto)
	v.SetDefault("ios.path", DefaultIOSPath)
	v.SetDefault("ios.project", "")
	v.SetDefault("ios.info_plist", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means $XDG_STATE_HOME/assetlink/assetlink.log
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.components", map[string]string{})

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means $XDG_DATA_HOME/assetlink/history
	v.SetDefault("history.retention_days", DefaultRetentionDays)
}

// HistoryDir returns the configured history directory or the XDG default.
func (c *Config) HistoryDir() string {
	if c.History.Path != "" {
		return expandHome(c.History.Path)
	}
	return filepath.Join(xdg.DataHome, "assetlink", "history")
}

// LogPath returns the configured log file or "" for the default.
func (c *Config) LogPath() string {
	return expandHome(c.Logging.Path)
}

// enabled parses an enabled setting. auto reports explicit=false.
func enabled(s string) (on, explicit bool, err error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == EnabledAuto {
		return true, false, nil
	}
	on, err = strconv.ParseBool(s)
	if err != nil {
		return false, false, fmt.Errorf("invalid enabled value %q: want auto, true or false", s)
	}
	return on, true, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// WriteDefault writes a starter assetlink.yaml into dir unless one exists.
// It returns the file path and whether it was created.
func WriteDefault(dir string) (string, bool, error) {
	path := filepath.Join(dir, FileName+".yaml")
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	content := fmt.Sprintf(`# assetlink project configuration

# Asset roots, files or directories, relative to this file.
assets:
  - assets

# Directories whose own assetlink.yaml declares more asset roots.
dependencies: []

# Patterns never linked.
exclude:
  - "**/*.psd"
  - "**/*.sketch"

android:
  # auto links when the directory exists; true makes a missing directory an error.
  enabled: %s
  path: %s
  app_name: %s
  # MainApplication.java or .kt; discovered when empty.
  entry_point: ""

ios:
  enabled: %s
  path: %s
  # .xcodeproj to edit; discovered when empty.
  project: ""
  # Info.plist for UIAppFonts; read from the project when empty.
  info_plist: ""

logging:
  level: info
  # Empty means $XDG_STATE_HOME/assetlink/assetlink.log
  path: ""

history:
  enabled: true
  retention_days: %d
`, EnabledAuto, DefaultAndroidPath, DefaultAppName, EnabledAuto, DefaultIOSPath, DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}
