// Package linker drives a full link run: scan the declared asset roots,
// then for each enabled platform read and migrate its manifest, diff, apply
// relink, remove and add operations through the platform linker, and write
// the new manifest.
//
// Platforms are independent. A platform that fails keeps its previous
// manifest, so the next run retries the same operations; the other platform
// still completes.
package linker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/jamesainslie/assetlink/pkg/assetlink/android"
	"github.com/jamesainslie/assetlink/pkg/assetlink/apple"
	"github.com/jamesainslie/assetlink/pkg/assetlink/config"
	"github.com/jamesainslie/assetlink/pkg/assetlink/differ"
	"github.com/jamesainslie/assetlink/pkg/assetlink/hash"
	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
	"github.com/jamesainslie/assetlink/pkg/assetlink/manifest"
	"github.com/jamesainslie/assetlink/pkg/assetlink/scanner"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// ErrPlatformNotConfigured is returned when a requested platform is not
// enabled in the project.
var ErrPlatformNotConfigured = errors.New("platform not configured")

// Recorder journals successful runs.
type Recorder interface {
	Record(run *history.Run) error
}

// Options configures LinkAssets.
type Options struct {
	// Platforms restricts the run. Empty links every configured platform.
	Platforms []types.Platform

	// DryRun computes the diff and report without touching native
	// projects or manifests.
	DryRun bool

	// Hasher defaults to SHA-1.
	Hasher hash.Hasher

	// Logger defaults to Nop.
	Logger *logging.Logger

	// Recorder receives one run per successfully linked platform. Optional.
	Recorder Recorder
}

// platform is the clean/copy surface a platform linker exposes to the run.
type platform interface {
	id() types.Platform
	dir() string
	validate(assets []types.Asset) error
	clean(ctx context.Context, g types.Group, assets []types.Asset, legacy bool) error
	copy(ctx context.Context, g types.Group, assets []types.Asset) (int64, error)
}

// LinkAssets links the project's declared assets into every selected
// platform. The returned error joins a *PlatformError per failed platform;
// the Result is non-nil whenever scanning succeeded.
func LinkAssets(ctx context.Context, project *config.Project, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	log := opts.Logger.Component("linker")

	platforms, err := selectPlatforms(project, opts)
	if err != nil {
		return nil, err
	}

	scanned, err := scanner.New(scanner.Options{
		Roots:   project.Assets,
		BaseDir: project.Root,
		Exclude: project.Exclude,
		Hasher:  opts.Hasher,
		Logger:  opts.Logger.Component("scanner"),
	}).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning assets: %w", err)
	}

	res := &Result{
		Project:    project.Root,
		DryRun:     opts.DryRun,
		Assets:     len(scanned.Assets),
		Scanned:    scanned.FilesScanned,
		Duplicates: scanned.Duplicates,
	}

	var errs []error
	for _, p := range platforms {
		pr, err := linkPlatform(ctx, project.Root, p, scanned.Assets, opts)
		if err != nil {
			pr.Error = err.Error()
			errs = append(errs, &PlatformError{Platform: p.id(), Err: err})
			log.Error("platform link failed", "platform", p.id(), "error", err)
		} else if !opts.DryRun {
			log.Info("platform linked", "platform", p.id(), "added", pr.Added,
				"removed", pr.Removed, "relinked", pr.Relinked, "unchanged", pr.Unchanged)
			record(opts.Recorder, project.Root, pr, log)
		}
		res.Platforms = append(res.Platforms, *pr)
	}

	res.Duration = time.Since(start)
	return res, errors.Join(errs...)
}

func selectPlatforms(project *config.Project, opts Options) ([]platform, error) {
	want := func(p types.Platform) bool {
		return len(opts.Platforms) == 0 || slices.Contains(opts.Platforms, p)
	}
	for _, p := range opts.Platforms {
		if (p == types.Android && project.Android == nil) || (p == types.Apple && project.IOS == nil) {
			return nil, fmt.Errorf("%w: %s", ErrPlatformNotConfigured, p)
		}
	}

	var out []platform
	if project.Android != nil && want(types.Android) {
		out = append(out, newAndroidPlatform(project.Android, opts.Logger.Component("android")))
	}
	if project.IOS != nil && want(types.Apple) {
		out = append(out, newApplePlatform(project.IOS, opts.Logger.Component("apple")))
	}
	return out, nil
}

func linkPlatform(ctx context.Context, root string, p platform, current []types.Asset, opts Options) (*PlatformResult, error) {
	start := time.Now()
	store := manifest.NewStore(p.id(), p.dir(), root)
	pr := &PlatformResult{Platform: p.id(), Manifest: store.Path()}

	previous, err := store.Read()
	if err != nil {
		return pr, fmt.Errorf("reading manifest: %w", err)
	}

	d := differ.Compute(current, previous)
	summarize(pr, d, root)
	if err := p.validate(current); err != nil {
		return pr, err
	}
	if opts.DryRun {
		pr.Duration = time.Since(start)
		return pr, nil
	}

	for _, g := range d.Groups {
		n, err := apply(ctx, p, &g)
		pr.BytesCopied += n
		if err != nil {
			return pr, fmt.Errorf("%s assets: %w", g.Group, err)
		}
	}

	if err := store.Write(current); err != nil {
		return pr, fmt.Errorf("writing manifest: %w", err)
	}
	pr.Duration = time.Since(start)
	return pr, nil
}

// apply runs one group's operations: relink (clean with the legacy
// options, copy with the current ones), then remove, then add.
func apply(ctx context.Context, p platform, g *differ.GroupDiff) (int64, error) {
	var copied int64

	if len(g.Relink) > 0 {
		previous := make([]types.Asset, 0, len(g.Relink))
		var current []types.Asset
		for _, r := range g.Relink {
			previous = append(previous, r.Previous)
			if r.Current != nil {
				current = append(current, *r.Current)
			}
		}
		if err := p.clean(ctx, g.Group, previous, true); err != nil {
			return copied, fmt.Errorf("relink clean: %w", err)
		}
		n, err := p.copy(ctx, g.Group, current)
		copied += n
		if err != nil {
			return copied, fmt.Errorf("relink copy: %w", err)
		}
	}

	if err := p.clean(ctx, g.Group, g.Remove, false); err != nil {
		return copied, fmt.Errorf("clean: %w", err)
	}
	n, err := p.copy(ctx, g.Group, g.Add)
	copied += n
	if err != nil {
		return copied, fmt.Errorf("copy: %w", err)
	}
	return copied, nil
}

func summarize(pr *PlatformResult, d *differ.Diff, root string) {
	for _, g := range d.Groups {
		gr := GroupResult{Group: g.Group, Unchanged: len(g.Unchanged)}
		for _, a := range g.Add {
			gr.Added = append(gr.Added, relative(root, a.Path))
		}
		for _, a := range g.Remove {
			gr.Removed = append(gr.Removed, relative(root, a.Path))
		}
		for _, r := range g.Relink {
			gr.Relinked = append(gr.Relinked, relative(root, r.Previous.Path))
		}
		pr.Groups = append(pr.Groups, gr)
	}
	t := d.Totals()
	pr.Added, pr.Removed, pr.Relinked, pr.Unchanged = t.Added, t.Removed, t.Relinked, t.Unchanged
}

func record(rec Recorder, root string, pr *PlatformResult, log *logging.Logger) {
	if rec == nil {
		return
	}
	run := &history.Run{
		Project:     root,
		Platform:    string(pr.Platform),
		Unchanged:   pr.Unchanged,
		BytesCopied: pr.BytesCopied,
		Duration:    pr.Duration,
	}
	for _, g := range pr.Groups {
		run.Added = append(run.Added, g.Added...)
		run.Removed = append(run.Removed, g.Removed...)
		run.Relinked = append(run.Relinked, g.Relinked...)
	}
	if err := rec.Record(run); err != nil {
		log.Warn("failed to record run history", "platform", pr.Platform, "error", err)
	}
}

func relative(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

type androidPlatform struct {
	path    string
	linker  *android.Linker
	current map[types.Group]types.AndroidOptions
	legacy  map[types.Group]types.AndroidOptions
}

func newAndroidPlatform(cfg *config.AndroidProject, log *logging.Logger) *androidPlatform {
	return &androidPlatform{
		path: cfg.Dir,
		linker: android.New(android.Options{
			Dir:        cfg.Dir,
			AppName:    cfg.AppName,
			EntryPoint: cfg.EntryPoint,
			Logger:     log,
		}),
		current: types.DefaultAndroidOptions(),
		legacy:  types.LegacyAndroidOptions(),
	}
}

func (a *androidPlatform) id() types.Platform { return types.Android }
func (a *androidPlatform) dir() string        { return a.path }

// validate rejects assets of one group that share a resource name.
func (a *androidPlatform) validate(assets []types.Asset) error {
	byGroup := map[types.Group][]types.Asset{}
	for _, as := range assets {
		byGroup[as.Group()] = append(byGroup[as.Group()], as)
	}
	var errs []error
	for _, g := range types.Groups {
		if err := a.linker.CheckCollisions(byGroup[g], a.current[g]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *androidPlatform) clean(ctx context.Context, g types.Group, assets []types.Asset, legacy bool) error {
	if len(assets) == 0 {
		return nil
	}
	opts := a.current[g]
	if legacy {
		opts = a.legacy[g]
	}
	return a.linker.Clean(ctx, assets, opts)
}

func (a *androidPlatform) copy(ctx context.Context, g types.Group, assets []types.Asset) (int64, error) {
	if len(assets) == 0 {
		return 0, nil
	}
	return a.linker.Copy(ctx, assets, a.current[g])
}

type applePlatform struct {
	path   string
	linker *apple.Linker
	opts   map[types.Group]types.AppleOptions
}

func newApplePlatform(cfg *config.IOSProject, log *logging.Logger) *applePlatform {
	return &applePlatform{
		path: cfg.Dir,
		linker: apple.New(apple.Options{
			Dir:       cfg.Dir,
			Project:   cfg.Project,
			InfoPlist: cfg.InfoPlist,
			Logger:    log,
		}),
		opts: types.DefaultAppleOptions(),
	}
}

func (a *applePlatform) id() types.Platform { return types.Apple }
func (a *applePlatform) dir() string        { return a.path }

// validate accepts everything; references keep their full paths.
func (a *applePlatform) validate([]types.Asset) error { return nil }

// clean ignores legacy: no Apple strategy has changed across schema
// versions.
func (a *applePlatform) clean(ctx context.Context, g types.Group, assets []types.Asset, _ bool) error {
	return a.linker.Clean(ctx, assets, a.opts[g])
}

// copy returns zero bytes; Apple assets are referenced in place.
func (a *applePlatform) copy(ctx context.Context, g types.Group, assets []types.Asset) (int64, error) {
	_, err := a.linker.Copy(ctx, assets, a.opts[g])
	return 0, err
}
