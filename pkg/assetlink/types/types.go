// Package types provides the core data types shared by the asset linking
// packages: tracked assets, extension groups, platforms and per-group link
// options.
package types

import (
	"path"
	"path/filepath"
	"strings"
)

// Asset is a single non-code file tracked by path and content hash.
type Asset struct {
	// Path is the absolute filesystem path of the asset.
	Path string `json:"path"`

	// Hash is the hex-encoded content digest of the file bytes.
	Hash string `json:"hash"`

	// Relink marks an asset whose linking strategy changed across a
	// manifest schema upgrade. Set only by migrations.
	Relink bool `json:"relinkFlag,omitempty"`
}

// Name returns the basename of the asset.
func (a Asset) Name() string {
	return path.Base(filepath.ToSlash(a.Path))
}

// Ext returns the lowercased extension of the asset including the dot.
func (a Asset) Ext() string {
	return strings.ToLower(path.Ext(a.Name()))
}

// Group returns the extension group the asset belongs to.
func (a Asset) Group() Group {
	return GroupForExt(a.Ext())
}

// Platform identifies a native host project.
type Platform string

// Supported platforms.
const (
	Android Platform = "android"
	Apple   Platform = "ios"
)

// Platforms lists every platform in processing order.
var Platforms = []Platform{Android, Apple}

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}

// Group is a partition of assets by file type. It selects the linking
// strategy applied to an asset.
type Group string

// Extension groups, in processing order.
const (
	GroupFont   Group = "font"
	GroupImage  Group = "image"
	GroupAudio  Group = "audio"
	GroupCustom Group = "custom"
)

// Groups lists every extension group in processing order. GroupCustom is the
// catch-all and must stay last.
var Groups = []Group{GroupFont, GroupImage, GroupAudio, GroupCustom}

// groupExtensions maps each non-custom group to its extensions.
var groupExtensions = map[Group][]string{
	GroupFont:  {".ttf", ".otf"},
	GroupImage: {".png", ".jpg", ".jpeg", ".gif", ".webp"},
	GroupAudio: {".mp3", ".wav", ".m4a", ".aac", ".ogg", ".mp4"},
}

// Extensions returns the extensions belonging to the group. GroupCustom has
// none; it matches everything the other groups do not.
func (g Group) Extensions() []string {
	return groupExtensions[g]
}

// GroupForExt returns the group for a lowercased extension including the dot.
func GroupForExt(ext string) Group {
	ext = strings.ToLower(ext)
	for _, g := range Groups {
		for _, e := range groupExtensions[g] {
			if e == ext {
				return g
			}
		}
	}
	return GroupCustom
}

// AndroidStrategy selects how an Android linker places an asset.
type AndroidStrategy int

const (
	// StrategyCopy copies the file verbatim under its original name.
	StrategyCopy AndroidStrategy = iota

	// StrategyResource copies the file under a sanitized resource name.
	StrategyResource

	// StrategyFontXML copies fonts under a sanitized resource name and
	// registers them in a font-family XML resource plus a runtime
	// registration call in the application entry point.
	StrategyFontXML
)

// String returns the strategy name.
func (s AndroidStrategy) String() string {
	switch s {
	case StrategyCopy:
		return "copy"
	case StrategyResource:
		return "resource"
	case StrategyFontXML:
		return "font-xml"
	default:
		return "unknown"
	}
}

// AndroidOptions configures how one extension group is linked on Android.
type AndroidOptions struct {
	// Path is the destination directory, relative to the application module
	// directory (<android>/<app_name>).
	Path string

	// Strategy selects copy, resource-name copy or the font XML registry.
	Strategy AndroidStrategy
}

// AppleOptions configures how one extension group is linked on Apple.
type AppleOptions struct {
	// IsFont registers the asset basenames in the Info.plist UIAppFonts array.
	IsFont bool
}

// DefaultAndroidOptions returns the per-group Android options.
func DefaultAndroidOptions() map[Group]AndroidOptions {
	return map[Group]AndroidOptions{
		GroupFont:   {Path: "src/main/res/font", Strategy: StrategyFontXML},
		GroupImage:  {Path: "src/main/res/drawable", Strategy: StrategyResource},
		GroupAudio:  {Path: "src/main/res/raw", Strategy: StrategyResource},
		GroupCustom: {Path: "src/main/assets/custom", Strategy: StrategyCopy},
	}
}

// LegacyAndroidOptions returns the options assets were linked with before
// the font XML registry existed. Assets flagged for relink are cleaned with
// these.
func LegacyAndroidOptions() map[Group]AndroidOptions {
	opts := DefaultAndroidOptions()
	opts[GroupFont] = AndroidOptions{Path: "src/main/assets/fonts", Strategy: StrategyCopy}
	return opts
}

// DefaultAppleOptions returns the per-group Apple options.
func DefaultAppleOptions() map[Group]AppleOptions {
	return map[Group]AppleOptions{
		GroupFont:   {IsFont: true},
		GroupImage:  {},
		GroupAudio:  {},
		GroupCustom: {},
	}
}

// ResourceName converts a basename into an Android resource file name:
// lowercased, every byte outside [a-z0-9_] replaced with '_', original
// extension appended. "image.png" becomes "image_png.png".
func ResourceName(name string) string {
	return ResourceIdentifier(name) + strings.ToLower(path.Ext(name))
}

// ResourceIdentifier returns the sanitized identifier for a name without
// any extension appended.
func ResourceIdentifier(name string) string {
	lower := strings.ToLower(name)
	b := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b[i] = c
		} else {
			b[i] = '_'
		}
	}
	return string(b)
}
