package manifest

import (
	"testing"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

func TestCurrentSchemaVersion(t *testing.T) {
	if got := CurrentSchemaVersion(); got != len(Migrations())-1 {
		t.Errorf("Expected %d, got %d", len(Migrations())-1, got)
	}
	for i, m := range Migrations() {
		if m.Version != i {
			t.Errorf("Migration %q at index %d has version %d", m.Name, i, m.Version)
		}
	}
}

func TestMigrate_AppliesOnlyNewerSteps(t *testing.T) {
	var applied []int
	list := []Migration{
		{Version: 0, Apply: func(a []types.Asset, _ types.Platform) []types.Asset { applied = append(applied, 0); return a }},
		{Version: 1, Apply: func(a []types.Asset, _ types.Platform) []types.Asset { applied = append(applied, 1); return a }},
		{Version: 2, Apply: func(a []types.Asset, _ types.Platform) []types.Asset { applied = append(applied, 2); return a }},
	}

	_, version := migrateWith(list, nil, 0, types.Android)
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
	if len(applied) != 2 || applied[0] != 1 || applied[1] != 2 {
		t.Errorf("Expected steps [1 2], got %v", applied)
	}
}

func TestMigrate_DoesNotMutateInput(t *testing.T) {
	in := []types.Asset{{Path: `a\b.ttf`, Hash: "h"}}

	out, _ := Migrate(in, 0, types.Android)
	if in[0].Path != `a\b.ttf` || in[0].Relink {
		t.Errorf("Input was mutated: %+v", in[0])
	}
	if out[0].Path != "a/b.ttf" || !out[0].Relink {
		t.Errorf("Unexpected output: %+v", out[0])
	}
}

func TestMigrateNormalizePaths(t *testing.T) {
	got := migrateNormalizePaths([]types.Asset{
		{Path: `.\assets\x.png`},
		{Path: "././y.png"},
		{Path: "z.png"},
	}, types.Apple)

	want := []string{"assets/x.png", "y.png", "z.png"}
	for i, w := range want {
		if got[i].Path != w {
			t.Errorf("Entry %d: expected %q, got %q", i, w, got[i].Path)
		}
	}
}
