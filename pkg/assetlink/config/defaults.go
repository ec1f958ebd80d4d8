// Package config loads assetlink project configuration.
package config

// Default configuration values for assetlink.
const (
	// FileName is the project configuration file name without extension.
	FileName = "assetlink"

	// DefaultAndroidPath is the Android project directory.
	DefaultAndroidPath = "android"

	// DefaultAppName is the Android application module directory.
	DefaultAppName = "app"

	// DefaultIOSPath is the iOS project directory.
	DefaultIOSPath = "ios"

	// DefaultRetentionDays is how long run history is kept.
	DefaultRetentionDays = 90

	// EnabledAuto links a platform only when its directory exists.
	EnabledAuto = "auto"
)

// DefaultExclusions are never linked.
var DefaultExclusions = []string{
	"**/*.psd",
	"**/*.sketch",
}
