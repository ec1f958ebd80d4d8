package apple

import (
	"bytes"
	"fmt"
	"os"

	"howett.net/plist"
)

const appFontsKey = "UIAppFonts"

// infoPlist is a decoded Info.plist. It is written back in the format it
// was read in.
type infoPlist struct {
	path   string
	format int
	dict   map[string]interface{}
	dirty  bool
}

func loadInfoPlist(path string) (*infoPlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading Info.plist: %w", err)
	}
	var dict map[string]interface{}
	format, err := plist.Unmarshal(data, &dict)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if dict == nil {
		dict = map[string]interface{}{}
	}
	return &infoPlist{path: path, format: format, dict: dict}, nil
}

// fonts returns the UIAppFonts entries.
func (p *infoPlist) fonts() []string {
	return strs(p.dict, appFontsKey)
}

// addFonts appends names missing from UIAppFonts.
func (p *infoPlist) addFonts(names []string) {
	present := make(map[string]bool)
	fonts := list(p.dict, appFontsKey)
	for _, f := range p.fonts() {
		present[f] = true
	}
	for _, n := range names {
		if present[n] {
			continue
		}
		present[n] = true
		fonts = append(fonts, n)
		p.dirty = true
	}
	if p.dirty {
		p.dict[appFontsKey] = fonts
	}
}

// removeFonts drops names from UIAppFonts.
func (p *infoPlist) removeFonts(names []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	fonts := list(p.dict, appFontsKey)
	kept := make([]interface{}, 0, len(fonts))
	for _, f := range fonts {
		if s, _ := f.(string); drop[s] {
			p.dirty = true
			continue
		}
		kept = append(kept, f)
	}
	if p.dirty {
		p.dict[appFontsKey] = kept
	}
}

func (p *infoPlist) save() error {
	if !p.dirty {
		return nil
	}
	var buf bytes.Buffer
	enc := plist.NewEncoderForFormat(&buf, p.format)
	if p.format != plist.BinaryFormat {
		enc.Indent("\t")
	}
	if err := enc.Encode(p.dict); err != nil {
		return fmt.Errorf("encoding Info.plist: %w", err)
	}
	if p.format == plist.XMLFormat {
		buf.WriteByte('\n')
	}

	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("stat Info.plist: %w", err)
	}
	if err := os.WriteFile(p.path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing Info.plist: %w", err)
	}
	p.dirty = false
	return nil
}
