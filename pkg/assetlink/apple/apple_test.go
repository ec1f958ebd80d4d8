package apple

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

const pbxproj = `// !$*UTF8*$!
{
	archiveVersion = 1;
	classes = {
	};
	objectVersion = 46;
	objects = {

/* Begin PBXGroup section */
		83CBB9F61A601CBA00E9B192 = {
			isa = PBXGroup;
			children = (
				13B07FAE1A68108700A75B9A /* App */,
				%RESOURCES%
			);
			indentWidth = 2;
			sourceTree = "<group>";
		};
		13B07FAE1A68108700A75B9A /* App */ = {
			isa = PBXGroup;
			children = (
			);
			name = App;
			sourceTree = "<group>";
		};
		%RESOURCES_GROUP%
/* End PBXGroup section */

/* Begin PBXNativeTarget section */
		13B07F861A680F5B00A75B9A /* App */ = {
			isa = PBXNativeTarget;
			buildConfigurationList = 13B07F931A680F5B00A75B9A;
			buildPhases = (
				13B07F8E1A680F5B00A75B9A /* Resources */,
			);
			name = App;
		};
/* End PBXNativeTarget section */

/* Begin PBXProject section */
		83CBB9F71A601CBA00E9B192 /* Project object */ = {
			isa = PBXProject;
			mainGroup = 83CBB9F61A601CBA00E9B192;
			targets = (
				13B07F861A680F5B00A75B9A /* App */,
			);
		};
/* End PBXProject section */

/* Begin PBXResourcesBuildPhase section */
		13B07F8E1A680F5B00A75B9A /* Resources */ = {
			isa = PBXResourcesBuildPhase;
			files = (
			);
		};
/* End PBXResourcesBuildPhase section */

/* Begin XCBuildConfiguration section */
		13B07F941A680F5B00A75B9A /* Debug */ = {
			isa = XCBuildConfiguration;
			buildSettings = {
				INFOPLIST_FILE = "%INFOPLIST%";
			};
			name = Debug;
		};
/* End XCBuildConfiguration section */

/* Begin XCConfigurationList section */
		13B07F931A680F5B00A75B9A = {
			isa = XCConfigurationList;
			buildConfigurations = (
				13B07F941A680F5B00A75B9A /* Debug */,
			);
		};
/* End XCConfigurationList section */
	};
	rootObject = 83CBB9F71A601CBA00E9B192 /* Project object */;
}
`

const infoPlistXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>App</string>
</dict>
</plist>
`

type fixture struct {
	root    string
	ios     string
	pbxproj string
	plist   string
	linker  *Linker
}

type fixtureOptions struct {
	withResources bool
	infoPlist     string
}

func newFixture(t *testing.T, fo fixtureOptions) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{root: root, ios: filepath.Join(root, "ios")}
	f.pbxproj = filepath.Join(f.ios, "App.xcodeproj", "project.pbxproj")
	f.plist = filepath.Join(f.ios, "App", "Info.plist")

	src := pbxproj
	if fo.withResources {
		src = strings.Replace(src, "%RESOURCES%", "2D16E6891FA4F8E400B85C8A /* Resources */,", 1)
		src = strings.Replace(src, "%RESOURCES_GROUP%", `2D16E6891FA4F8E400B85C8A /* Resources */ = {
			isa = PBXGroup;
			children = (
			);
			name = Resources;
			sourceTree = "<group>";
		};`, 1)
	} else {
		src = strings.Replace(src, "%RESOURCES%", "", 1)
		src = strings.Replace(src, "%RESOURCES_GROUP%", "", 1)
	}
	src = strings.Replace(src, "%INFOPLIST%", fo.infoPlist, 1)

	require.NoError(t, os.MkdirAll(filepath.Dir(f.pbxproj), 0o755))
	require.NoError(t, os.WriteFile(f.pbxproj, []byte(src), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.plist), 0o755))
	require.NoError(t, os.WriteFile(f.plist, []byte(infoPlistXML), 0o644))

	f.linker = New(Options{Dir: f.ios})
	return f
}

func (f *fixture) asset(t *testing.T, rel string) types.Asset {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	return types.Asset{Path: p, Hash: rel}
}

func (f *fixture) appFonts(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.plist)
	require.NoError(t, err)
	var dict map[string]interface{}
	format, err := plist.Unmarshal(data, &dict)
	require.NoError(t, err)
	require.Equal(t, plist.XMLFormat, format)
	return strs(dict, appFontsKey)
}

func countRefs(t *testing.T, p *PBXProject, relPath string) (refs, buildFiles int) {
	t.Helper()
	var fileID string
	for id := range p.objects {
		if p.isa(id) == "PBXFileReference" && str(p.object(id), "path") == relPath {
			refs++
			fileID = id
		}
	}
	for id := range p.objects {
		if p.isa(id) == "PBXBuildFile" && fileID != "" && str(p.object(id), "fileRef") == fileID {
			buildFiles++
		}
	}
	return refs, buildFiles
}

func TestCopy_AddsReferencesAndFonts(t *testing.T) {
	f := newFixture(t, fixtureOptions{withResources: true, infoPlist: "App/Info.plist"})
	font := f.asset(t, "assets/fonts/Foo-Bold.ttf")
	ctx := context.Background()

	n, err := f.linker.Copy(ctx, []types.Asset{font}, types.AppleOptions{IsFont: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(f.pbxproj)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), pbxHeader))

	p, err := OpenProject(f.pbxproj)
	require.NoError(t, err)
	refs, builds := countRefs(t, p, "../assets/fonts/Foo-Bold.ttf")
	assert.Equal(t, 1, refs)
	assert.Equal(t, 1, builds)
	assert.Equal(t, []string{"Foo-Bold.ttf"}, f.appFonts(t))

	// A second add is a no-op.
	n, err = f.linker.Copy(ctx, []types.Asset{font}, types.AppleOptions{IsFont: true})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	p, err = OpenProject(f.pbxproj)
	require.NoError(t, err)
	refs, _ = countRefs(t, p, "../assets/fonts/Foo-Bold.ttf")
	assert.Equal(t, 1, refs)
	assert.Equal(t, []string{"Foo-Bold.ttf"}, f.appFonts(t))
}

func TestCopy_PlainResourceLeavesInfoPlist(t *testing.T) {
	f := newFixture(t, fixtureOptions{withResources: true, infoPlist: "App/Info.plist"})
	img := f.asset(t, "assets/img/logo.png")

	_, err := f.linker.Copy(context.Background(), []types.Asset{img}, types.AppleOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(f.plist)
	require.NoError(t, err)
	assert.Equal(t, infoPlistXML, string(data))
}

func TestClean_RemovesReferencesAndFonts(t *testing.T) {
	f := newFixture(t, fixtureOptions{withResources: true, infoPlist: "$(SRCROOT)/App/Info.plist"})
	a := f.asset(t, "assets/fonts/A.ttf")
	b := f.asset(t, "assets/fonts/B.otf")
	ctx := context.Background()

	_, err := f.linker.Copy(ctx, []types.Asset{a, b}, types.AppleOptions{IsFont: true})
	require.NoError(t, err)
	require.Equal(t, []string{"A.ttf", "B.otf"}, f.appFonts(t))

	require.NoError(t, f.linker.Clean(ctx, []types.Asset{a}, types.AppleOptions{IsFont: true}))

	p, err := OpenProject(f.pbxproj)
	require.NoError(t, err)
	refs, _ := countRefs(t, p, "../assets/fonts/A.ttf")
	assert.Equal(t, 0, refs)
	refs, builds := countRefs(t, p, "../assets/fonts/B.otf")
	assert.Equal(t, 1, refs)
	assert.Equal(t, 1, builds)
	for id := range p.objects {
		if p.isa(id) == "PBXBuildFile" {
			assert.NotNil(t, p.object(str(p.object(id), "fileRef")), "dangling build file %s", id)
		}
	}
	assert.Equal(t, []string{"B.otf"}, f.appFonts(t))

	// Removing again is a no-op.
	require.NoError(t, f.linker.Clean(ctx, []types.Asset{a}, types.AppleOptions{IsFont: true}))
}

func TestCopy_CreatesResourcesGroup(t *testing.T) {
	f := newFixture(t, fixtureOptions{infoPlist: "App/Info.plist"})
	img := f.asset(t, "assets/img/logo.png")

	_, err := f.linker.Copy(context.Background(), []types.Asset{img}, types.AppleOptions{})
	require.NoError(t, err)

	p, err := OpenProject(f.pbxproj)
	require.NoError(t, err)
	id := p.findGroup(ResourcesGroup)
	require.NotEmpty(t, id)
	main, err := p.mainGroup()
	require.NoError(t, err)
	assert.Contains(t, strs(main, "children"), id)
	assert.Len(t, strs(p.object(id), "children"), 1)
}

func TestInfoPlistPath_Resolution(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{withResources: true})
		l := New(Options{Dir: f.ios, InfoPlist: "Other/Info.plist"})
		p, err := OpenProject(f.pbxproj)
		require.NoError(t, err)

		got, err := l.InfoPlistPath(p)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(f.ios, "Other", "Info.plist"), got)
	})

	t.Run("build setting", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{withResources: true, infoPlist: "${SRCROOT}/App/Info.plist"})
		p, err := OpenProject(f.pbxproj)
		require.NoError(t, err)

		got, err := f.linker.InfoPlistPath(p)
		require.NoError(t, err)
		assert.Equal(t, f.plist, got)
	})

	t.Run("glob fallback skips pods and tests", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{withResources: true})
		for _, dir := range []string{"AppTests", "Pods"} {
			require.NoError(t, os.MkdirAll(filepath.Join(f.ios, dir), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(f.ios, dir, "Info.plist"), []byte(infoPlistXML), 0o644))
		}
		p, err := OpenProject(f.pbxproj)
		require.NoError(t, err)

		got, err := f.linker.InfoPlistPath(p)
		require.NoError(t, err)
		assert.Equal(t, f.plist, got)
	})
}

func TestFindProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Pods.xcodeproj"), 0o755))

	_, err := FindProject(dir)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "App.xcodeproj"), 0o755))
	got, err := FindProject(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "App.xcodeproj", "project.pbxproj"), got)
}

type fakeStore struct {
	files   map[string]bool
	created bool
	saves   int
}

func (s *fakeStore) EnsureGroup(string) (bool, error) { return s.created, nil }

func (s *fakeStore) AddFile(_, rel string) (bool, error) {
	if s.files[rel] {
		return false, nil
	}
	s.files[rel] = true
	return true, nil
}

func (s *fakeStore) RemoveFile(_, rel string) (bool, error) {
	had := s.files[rel]
	delete(s.files, rel)
	return had, nil
}

func (s *fakeStore) InfoPlistSetting() string { return "App/Info.plist" }

func (s *fakeStore) Save() error {
	s.saves++
	return nil
}

func TestLinker_UsesInjectedStore(t *testing.T) {
	f := newFixture(t, fixtureOptions{withResources: true})
	store := &fakeStore{files: map[string]bool{}}
	l := New(Options{Dir: f.ios, Open: func(string) (ProjectStore, error) { return store, nil }})
	img := f.asset(t, "assets/img/a.png")

	n, err := l.Copy(context.Background(), []types.Asset{img}, types.AppleOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, store.files["../assets/img/a.png"])

	require.NoError(t, l.Clean(context.Background(), []types.Asset{img}, types.AppleOptions{}))
	assert.Empty(t, store.files)
	assert.Equal(t, 2, store.saves)
}
