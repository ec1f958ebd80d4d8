package differ

import (
	"testing"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asset(path, hash string) types.Asset {
	return types.Asset{Path: path, Hash: hash}
}

func flagged(path, hash string) types.Asset {
	return types.Asset{Path: path, Hash: hash, Relink: true}
}

func TestCompute_FirstRunAddsEverything(t *testing.T) {
	current := []types.Asset{
		asset("/p/a.ttf", "1"),
		asset("/p/b.png", "2"),
		asset("/p/c.mp3", "3"),
		asset("/p/d.pdf", "4"),
	}

	d := Compute(current, nil)

	require.Len(t, d.Groups, len(types.Groups))
	for i, g := range types.Groups {
		assert.Equal(t, g, d.Groups[i].Group)
		assert.Len(t, d.Groups[i].Add, 1, "group %s", g)
	}
	assert.Equal(t, Totals{Added: 4}, d.Totals())
}

func TestCompute_NoChangeIsEmpty(t *testing.T) {
	set := []types.Asset{asset("/p/a.png", "1"), asset("/p/b.ttf", "2")}

	d := Compute(set, set)

	assert.True(t, d.Empty())
	assert.Equal(t, Totals{Unchanged: 2}, d.Totals())
}

func TestCompute_RemovedAsset(t *testing.T) {
	d := Compute(nil, []types.Asset{asset("/p/image.png", "1")})

	img := d.Group(types.GroupImage)
	require.NotNil(t, img)
	assert.Equal(t, []types.Asset{asset("/p/image.png", "1")}, img.Remove)
	assert.Empty(t, img.Add)
}

func TestCompute_ContentChangeIsRemovePlusAdd(t *testing.T) {
	d := Compute(
		[]types.Asset{asset("/p/a.png", "new")},
		[]types.Asset{asset("/p/a.png", "old")},
	)

	img := d.Group(types.GroupImage)
	assert.Equal(t, []types.Asset{asset("/p/a.png", "old")}, img.Remove)
	assert.Equal(t, []types.Asset{asset("/p/a.png", "new")}, img.Add)
}

func TestCompute_RenameIsRemovePlusAdd(t *testing.T) {
	d := Compute(
		[]types.Asset{asset("/p/b.png", "same")},
		[]types.Asset{asset("/p/a.png", "same")},
	)

	img := d.Group(types.GroupImage)
	assert.Len(t, img.Remove, 1)
	assert.Len(t, img.Add, 1)
}

func TestCompute_RelinkClaimsAddAndRemove(t *testing.T) {
	tests := []struct {
		name        string
		current     []types.Asset
		previous    []types.Asset
		wantCurrent *types.Asset
	}{
		{
			name:        "unchanged content",
			current:     []types.Asset{asset("/p/Foo.ttf", "h")},
			previous:    []types.Asset{flagged("/p/Foo.ttf", "h")},
			wantCurrent: &types.Asset{Path: "/p/Foo.ttf", Hash: "h"},
		},
		{
			name:        "changed content",
			current:     []types.Asset{asset("/p/Foo.ttf", "new")},
			previous:    []types.Asset{flagged("/p/Foo.ttf", "old")},
			wantCurrent: &types.Asset{Path: "/p/Foo.ttf", Hash: "new"},
		},
		{
			name:     "no longer declared",
			previous: []types.Asset{flagged("/p/Foo.ttf", "old")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			font := Compute(tt.current, tt.previous).Group(types.GroupFont)

			require.Len(t, font.Relink, 1)
			assert.Equal(t, tt.previous[0], font.Relink[0].Previous)
			assert.Equal(t, tt.wantCurrent, font.Relink[0].Current)
			assert.Empty(t, font.Add)
			assert.Empty(t, font.Remove)
			assert.Empty(t, font.Unchanged)
		})
	}
}

func TestCompute_AtMostOneOperationPerAsset(t *testing.T) {
	current := []types.Asset{
		asset("/p/A.ttf", "a2"),
		asset("/p/B.ttf", "b"),
		asset("/p/C.ttf", "c"),
	}
	previous := []types.Asset{
		flagged("/p/A.ttf", "a1"),
		flagged("/p/B.ttf", "b"),
		flagged("/p/D.ttf", "d"),
		asset("/p/E.ttf", "e"),
	}

	font := Compute(current, previous).Group(types.GroupFont)

	seen := map[string]int{}
	for _, r := range font.Relink {
		seen[r.Previous.Path]++
	}
	for _, a := range font.Add {
		seen[a.Path]++
	}
	for _, a := range font.Remove {
		seen[a.Path]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "asset %s processed %d times", p, n)
	}
	assert.Len(t, font.Relink, 3)
	assert.Equal(t, []types.Asset{asset("/p/C.ttf", "c")}, font.Add)
	assert.Equal(t, []types.Asset{asset("/p/E.ttf", "e")}, font.Remove)
}

func TestCompute_GroupsAreIndependent(t *testing.T) {
	d := Compute(
		[]types.Asset{asset("/p/x.png", "1")},
		[]types.Asset{flagged("/p/y.ttf", "2")},
	)

	assert.Len(t, d.Group(types.GroupImage).Add, 1)
	assert.Empty(t, d.Group(types.GroupImage).Relink)
	assert.Len(t, d.Group(types.GroupFont).Relink, 1)
}

func TestCompute_DoesNotModifyInputs(t *testing.T) {
	current := []types.Asset{asset("/p/a.ttf", "1")}
	previous := []types.Asset{flagged("/p/a.ttf", "1")}

	_ = Compute(current, previous)

	assert.False(t, current[0].Relink)
	assert.True(t, previous[0].Relink)
}
