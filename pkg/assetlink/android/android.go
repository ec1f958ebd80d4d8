// Package android links assets into an Android application module.
//
// Plain assets are copied into resource directories, either verbatim or
// under a sanitized resource name. Fonts under the font XML strategy are
// also registered in a res/font/<family>.xml resource and through a
// ReactFontManager call in the application's MainApplication source file.
package android

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/assetlink/pkg/assetlink/fontinfo"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// ErrNameCollision is returned when two assets install to the same
// resource file.
var ErrNameCollision = errors.New("resource name collision")

// Options configures a Linker.
type Options struct {
	// Dir is the Android project directory.
	Dir string

	// AppName is the application module directory inside Dir. Defaults to "app".
	AppName string

	// EntryPoint overrides MainApplication discovery. Relative paths are
	// resolved against Dir.
	EntryPoint string

	// Logger defaults to Nop.
	Logger *logging.Logger
}

// Linker applies clean and copy operations to one Android project.
type Linker struct {
	moduleDir  string
	entryPoint string
	log        *logging.Logger
}

// New creates a Linker.
func New(opts Options) *Linker {
	if opts.AppName == "" {
		opts.AppName = "app"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	ep := opts.EntryPoint
	if ep != "" && !filepath.IsAbs(ep) {
		ep = filepath.Join(opts.Dir, ep)
	}
	return &Linker{
		moduleDir:  filepath.Join(opts.Dir, opts.AppName),
		entryPoint: ep,
		log:        opts.Logger,
	}
}

// Destination returns where asset is installed under opts.
func (l *Linker) Destination(asset types.Asset, opts types.AndroidOptions) string {
	return filepath.Join(l.moduleDir, filepath.FromSlash(opts.Path), installedName(asset, opts))
}

func installedName(asset types.Asset, opts types.AndroidOptions) string {
	if opts.Strategy == types.StrategyCopy {
		return asset.Name()
	}
	return types.ResourceName(asset.Name())
}

// CheckCollisions reports every pair of assets that would install to the
// same file under opts. Resource names fold case and punctuation, so
// "my-icon.png" and "my_icon.png" collide.
func (l *Linker) CheckCollisions(assets []types.Asset, opts types.AndroidOptions) error {
	claimed := make(map[string]types.Asset, len(assets))
	var errs []error
	for _, a := range assets {
		dst := installedName(a, opts)
		if prev, ok := claimed[dst]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both install to %s",
				ErrNameCollision, prev.Path, a.Path, filepath.Join(filepath.FromSlash(opts.Path), dst)))
			continue
		}
		claimed[dst] = a
	}
	return errors.Join(errs...)
}

// fontRef is the @font reference and R.font identifier of an installed font.
func fontRef(asset types.Asset) string {
	return types.ResourceIdentifier(asset.Name())
}

// Copy installs assets under opts and returns the number of bytes copied.
func (l *Linker) Copy(ctx context.Context, assets []types.Asset, opts types.AndroidOptions) (int64, error) {
	if opts.Strategy == types.StrategyFontXML {
		return l.copyFonts(ctx, assets, opts)
	}

	var total int64
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := copyFile(a.Path, l.Destination(a, opts))
		total += n
		if err != nil {
			return total, err
		}
		l.log.Debug("copied asset", "asset", a.Name(), "strategy", opts.Strategy)
	}
	return total, nil
}

// Clean removes installed copies of assets under opts. Missing files are
// not an error.
func (l *Linker) Clean(ctx context.Context, assets []types.Asset, opts types.AndroidOptions) error {
	if opts.Strategy == types.StrategyFontXML {
		return l.cleanFonts(ctx, assets, opts)
	}

	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := removeFile(l.Destination(a, opts)); err != nil {
			return err
		}
		l.log.Debug("removed asset", "asset", a.Name(), "strategy", opts.Strategy)
	}
	return nil
}

type parsedFont struct {
	asset types.Asset
	info  *fontinfo.Info
}

// copyFonts parses every font before touching the project, so a corrupt
// font fails the group without partial edits.
func (l *Linker) copyFonts(ctx context.Context, assets []types.Asset, opts types.AndroidOptions) (int64, error) {
	if len(assets) == 0 {
		return 0, nil
	}

	parsed := make([]parsedFont, 0, len(assets))
	for _, a := range assets {
		info, err := fontinfo.ParseFile(a.Path)
		if err != nil {
			return 0, fmt.Errorf("reading font metadata: %w", err)
		}
		parsed = append(parsed, parsedFont{asset: a, info: info})
	}

	ep, err := l.loadEntryPoint()
	if err != nil {
		return 0, err
	}

	var total int64
	families := map[string]*fontFamily{}
	for _, p := range parsed {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := copyFile(p.asset.Path, l.Destination(p.asset, opts))
		total += n
		if err != nil {
			return total, err
		}

		id := types.ResourceIdentifier(p.info.Family)
		fam, ok := families[id]
		if !ok {
			fam, err = loadFontFamily(l.familyPath(id, opts))
			if err != nil {
				return total, err
			}
			families[id] = fam
		}
		fam.set("@font/"+fontRef(p.asset), p.info.Weight, p.info.Style())

		if err := ep.addRegistration(p.info.Family, id); err != nil {
			return total, err
		}
		l.log.Debug("registered font", "asset", p.asset.Name(), "family", p.info.Family,
			"weight", p.info.Weight, "style", p.info.Style())
	}

	for _, fam := range families {
		if err := fam.save(); err != nil {
			return total, err
		}
	}
	return total, ep.save()
}

// cleanFonts reads each installed font's family, drops its XML entry, and
// removes the family resource and its registration once the family is
// empty. When the installed copy is already gone, the family is found by
// its @font reference instead.
func (l *Linker) cleanFonts(ctx context.Context, assets []types.Asset, opts types.AndroidOptions) error {
	if len(assets) == 0 {
		return nil
	}

	var ep *entryPoint
	families := map[string]*fontFamily{}
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := "@font/" + fontRef(a)
		installed := l.Destination(a, opts)

		var id string
		info, err := fontinfo.ParseFile(installed)
		switch {
		case errors.Is(err, os.ErrNotExist):
			id, err = l.familyReferencing(ref, opts, families)
			if err != nil {
				return err
			}
			if id == "" {
				l.log.Debug("font not registered, nothing to clean", "asset", a.Name())
				continue
			}
			l.log.Warn("installed font missing, cleaning registration by reference", "asset", a.Name(), "family", id)
		case err != nil:
			return fmt.Errorf("reading installed font metadata: %w", err)
		default:
			id = types.ResourceIdentifier(info.Family)
			if _, ok := families[id]; !ok {
				fam, err := loadFontFamily(l.familyPath(id, opts))
				if err != nil {
					return err
				}
				families[id] = fam
			}
		}
		families[id].remove(ref)

		if err := removeFile(installed); err != nil {
			return err
		}
		l.log.Debug("unregistered font", "asset", a.Name(), "family", id)
	}

	for id, fam := range families {
		if !fam.empty() {
			if err := fam.save(); err != nil {
				return err
			}
			continue
		}
		if err := removeFile(fam.path); err != nil {
			return err
		}
		if ep == nil {
			var err error
			if ep, err = l.loadEntryPoint(); err != nil {
				return err
			}
		}
		ep.removeRegistration(id)
	}

	if ep == nil {
		return nil
	}
	return ep.save()
}

// familyReferencing returns the id of the family resource under opts that
// lists ref, loading it into families. It returns "" when none does.
func (l *Linker) familyReferencing(ref string, opts types.AndroidOptions, families map[string]*fontFamily) (string, error) {
	for id, fam := range families {
		if fam.has(ref) {
			return id, nil
		}
	}

	dir := filepath.Join(l.moduleDir, filepath.FromSlash(opts.Path))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("listing font resources: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".xml")
		if _, loaded := families[id]; loaded {
			continue
		}
		fam, err := loadFontFamily(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", err
		}
		if fam.has(ref) {
			families[id] = fam
			return id, nil
		}
	}
	return "", nil
}

func (l *Linker) familyPath(id string, opts types.AndroidOptions) string {
	return filepath.Join(l.moduleDir, filepath.FromSlash(opts.Path), id+".xml")
}

func (l *Linker) loadEntryPoint() (*entryPoint, error) {
	path := l.entryPoint
	if path == "" {
		found, err := findEntryPoint(l.moduleDir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	return loadEntryPoint(path)
}

// copyFile copies src to dst, creating parent directories.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening asset: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("creating resource directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("creating resource file: %w", err)
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	return n, nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
