package manifest

import (
	"strings"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// Migration is a pure transform of the stored record set. Migrations never
// touch the filesystem and must be total over the record shape produced by
// the migrations before them.
type Migration struct {
	// Version is the schema version the migration produces.
	Version int

	// Name describes the migration.
	Name string

	// Apply transforms the stored records. Paths are in stored form,
	// relative to the project root.
	Apply func(assets []types.Asset, platform types.Platform) []types.Asset
}

// Schema versions:
// 0 - baseline record shape
// 1 - slash-normalized relative paths
// 2 - Android fonts flagged for relink onto the font XML registry
var migrations = []Migration{
	{Version: 0, Name: "baseline", Apply: migrateBaseline},
	{Version: 1, Name: "normalize-paths", Apply: migrateNormalizePaths},
	{Version: 2, Name: "android-font-xml", Apply: migrateAndroidFontXML},
}

// Migrations returns the ordered migration list.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// CurrentSchemaVersion is the version written by this build: the number of
// migrations minus one.
func CurrentSchemaVersion() int {
	return len(migrations) - 1
}

// Migrate applies every migration whose version exceeds from, in order, and
// returns the upgraded records with the resulting version. Records already at
// the current version are returned unchanged.
func Migrate(assets []types.Asset, from int, platform types.Platform) ([]types.Asset, int) {
	return migrateWith(migrations, assets, from, platform)
}

func migrateWith(list []Migration, assets []types.Asset, from int, platform types.Platform) ([]types.Asset, int) {
	version := from
	for _, m := range list {
		if m.Version <= version {
			continue
		}
		assets = m.Apply(cloneAssets(assets), platform)
		version = m.Version
	}
	return assets, version
}

func cloneAssets(in []types.Asset) []types.Asset {
	out := make([]types.Asset, len(in))
	copy(out, in)
	return out
}

func migrateBaseline(assets []types.Asset, _ types.Platform) []types.Asset {
	return assets
}

// migrateNormalizePaths rewrites backslash separators and drops "./"
// prefixes so stored paths compare equal across hosts.
func migrateNormalizePaths(assets []types.Asset, _ types.Platform) []types.Asset {
	for i := range assets {
		p := strings.ReplaceAll(assets[i].Path, `\`, "/")
		for strings.HasPrefix(p, "./") {
			p = strings.TrimPrefix(p, "./")
		}
		assets[i].Path = p
	}
	return assets
}

// migrateAndroidFontXML flags every Android font for relinking: fonts move
// from a flat copy under assets/fonts to the res/font XML registry.
func migrateAndroidFontXML(assets []types.Asset, platform types.Platform) []types.Asset {
	if platform != types.Android {
		return assets
	}
	for i := range assets {
		if assets[i].Group() == types.GroupFont {
			assets[i].Relink = true
		}
	}
	return assets
}
