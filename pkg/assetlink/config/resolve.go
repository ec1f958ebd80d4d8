package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AndroidProject is a resolved Android platform.
type AndroidProject struct {
	// Dir is the absolute Android project directory.
	Dir        string
	AppName    string
	EntryPoint string
}

// IOSProject is a resolved Apple platform.
type IOSProject struct {
	// Dir is the absolute iOS directory.
	Dir       string
	Project   string
	InfoPlist string
}

// Project is a configuration resolved against the filesystem: absolute
// asset roots in declaration order and the platforms to link.
type Project struct {
	Root    string
	Assets  []string
	Exclude []string

	// Android is nil when the platform is disabled or absent.
	Android *AndroidProject

	// IOS is nil when the platform is disabled or absent.
	IOS *IOSProject
}

// Resolve makes every path absolute, appends dependency asset roots after
// the project's own roots, and decides which platforms to link. A platform
// left on auto is skipped when its directory is missing; an explicitly
// enabled one is an error, as is resolving no platform at all.
func (c *Config) Resolve() (*Project, error) {
	p := &Project{
		Root:    c.Root,
		Exclude: append([]string(nil), c.Exclude...),
	}

	for _, a := range c.Assets {
		p.Assets = append(p.Assets, absJoin(c.Root, a))
	}
	for _, dep := range c.Dependencies {
		roots, err := dependencyAssets(absJoin(c.Root, dep))
		if err != nil {
			return nil, err
		}
		p.Assets = append(p.Assets, roots...)
	}

	androidDir, androidOn, err := c.platformDir("android", c.Android.Enabled, c.Android.Path)
	if err != nil {
		return nil, err
	}
	if androidOn {
		p.Android = &AndroidProject{
			Dir:        androidDir,
			AppName:    c.Android.AppName,
			EntryPoint: c.Android.EntryPoint,
		}
	}

	iosDir, iosOn, err := c.platformDir("ios", c.IOS.Enabled, c.IOS.Path)
	if err != nil {
		return nil, err
	}
	if iosOn {
		p.IOS = &IOSProject{
			Dir:       iosDir,
			Project:   c.IOS.Project,
			InfoPlist: c.IOS.InfoPlist,
		}
	}

	if p.Android == nil && p.IOS == nil {
		androidSetting, _, _ := enabled(c.Android.Enabled)
		iosSetting, _, _ := enabled(c.IOS.Enabled)
		if androidSetting || iosSetting {
			return nil, fmt.Errorf("%w: neither %s nor %s exists", ErrNoNativeDir, androidDir, iosDir)
		}
	}
	return p, nil
}

// platformDir resolves a platform directory and whether to link it.
func (c *Config) platformDir(name, setting, dir string) (string, bool, error) {
	on, explicit, err := enabled(setting)
	if err != nil {
		return "", false, fmt.Errorf("%s.enabled: %w", name, err)
	}
	abs := absJoin(c.Root, dir)
	if !on {
		return abs, false, nil
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		return abs, true, nil
	case explicit:
		return abs, false, fmt.Errorf("%w: %s project at %s", ErrNoNativeDir, name, abs)
	default:
		return abs, false, nil
	}
}

// dependencyAssets reads the asset roots a dependency declares in its own
// assetlink.yaml. A dependency without one contributes nothing.
func dependencyAssets(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("dependency %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("dependency %s: %w", dir, err)
	}

	var roots []string
	for _, a := range v.GetStringSlice("assets") {
		roots = append(roots, absJoin(dir, a))
	}
	return roots, nil
}

func absJoin(base, p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
