// Package differ partitions assets into the operations a platform linker
// must apply to move from the previously linked set to the current one.
//
// Comparison is by (path, hash) per extension group. A rename with
// identical content is a remove plus an add. Assets flagged for relink by a
// manifest migration are claimed by the relink set first; the add and
// remove sets never contain an asset the relink set already covers.
package differ

import (
	"path/filepath"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// Relink pairs a previously linked asset whose strategy changed with the
// current asset at the same path, if it is still declared.
type Relink struct {
	// Previous is cleaned with the legacy options.
	Previous types.Asset

	// Current is copied with the current options. Nil when the asset is no
	// longer declared.
	Current *types.Asset
}

// GroupDiff is the partition for one extension group.
type GroupDiff struct {
	Group     types.Group
	Add       []types.Asset
	Remove    []types.Asset
	Relink    []Relink
	Unchanged []types.Asset
}

// Empty reports whether the group needs no linking work.
func (g *GroupDiff) Empty() bool {
	return len(g.Add) == 0 && len(g.Remove) == 0 && len(g.Relink) == 0
}

// Diff holds one GroupDiff per extension group in types.Groups order.
type Diff struct {
	Groups []GroupDiff
}

// Group returns the partition for g, or nil if g is unknown.
func (d *Diff) Group(g types.Group) *GroupDiff {
	for i := range d.Groups {
		if d.Groups[i].Group == g {
			return &d.Groups[i]
		}
	}
	return nil
}

// Empty reports whether no group needs work.
func (d *Diff) Empty() bool {
	for i := range d.Groups {
		if !d.Groups[i].Empty() {
			return false
		}
	}
	return true
}

// Totals sums the partition sizes across groups.
type Totals struct {
	Added     int
	Removed   int
	Relinked  int
	Unchanged int
}

// Totals returns the summed partition sizes.
func (d *Diff) Totals() Totals {
	var t Totals
	for _, g := range d.Groups {
		t.Added += len(g.Add)
		t.Removed += len(g.Remove)
		t.Relinked += len(g.Relink)
		t.Unchanged += len(g.Unchanged)
	}
	return t
}

type key struct {
	path string
	hash string
}

func keyOf(a types.Asset) key {
	return key{path: filepath.Clean(a.Path), hash: a.Hash}
}

// Compute diffs current against previous. Neither input is modified.
func Compute(current, previous []types.Asset) *Diff {
	d := &Diff{Groups: make([]GroupDiff, 0, len(types.Groups))}
	for _, g := range types.Groups {
		d.Groups = append(d.Groups, computeGroup(g, filterGroup(current, g), filterGroup(previous, g)))
	}
	return d
}

func computeGroup(g types.Group, current, previous []types.Asset) GroupDiff {
	gd := GroupDiff{Group: g}

	currentByPath := make(map[string]int, len(current))
	currentKeys := make(map[key]bool, len(current))
	for i, a := range current {
		currentByPath[filepath.Clean(a.Path)] = i
		currentKeys[keyOf(a)] = true
	}

	claimedPrev := make(map[key]bool)
	claimedCur := make(map[int]bool)
	for _, p := range previous {
		if !p.Relink {
			continue
		}
		r := Relink{Previous: p}
		if i, ok := currentByPath[filepath.Clean(p.Path)]; ok && !claimedCur[i] {
			c := current[i]
			r.Current = &c
			claimedCur[i] = true
		}
		claimedPrev[keyOf(p)] = true
		gd.Relink = append(gd.Relink, r)
	}

	previousKeys := make(map[key]bool, len(previous))
	for _, p := range previous {
		k := keyOf(p)
		previousKeys[k] = true
		if claimedPrev[k] || currentKeys[k] {
			continue
		}
		gd.Remove = append(gd.Remove, p)
	}

	for i, c := range current {
		if claimedCur[i] {
			continue
		}
		if previousKeys[keyOf(c)] {
			gd.Unchanged = append(gd.Unchanged, c)
			continue
		}
		gd.Add = append(gd.Add, c)
	}
	return gd
}

func filterGroup(assets []types.Asset, g types.Group) []types.Asset {
	var out []types.Asset
	for _, a := range assets {
		if a.Group() == g {
			out = append(out, a)
		}
	}
	return out
}
