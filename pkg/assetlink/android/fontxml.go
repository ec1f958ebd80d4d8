package android

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

const appNamespace = "http://schemas.android.com/apk/res-auto"

// fontFamily is a res/font/<family>.xml resource:
//
//	<font-family xmlns:app="http://schemas.android.com/apk/res-auto">
//	    <font app:fontStyle="normal" app:fontWeight="700" app:font="@font/foo_bold_ttf"/>
//	</font-family>
type fontFamily struct {
	path string
	doc  *etree.Document
	root *etree.Element
}

// loadFontFamily reads the family resource at path, or starts an empty one
// if the file does not exist.
func loadFontFamily(path string) (*fontFamily, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading font family %s: %w", path, err)
		}
		doc = etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	}

	root := doc.Root()
	if root == nil {
		root = doc.CreateElement("font-family")
	}
	if root.Tag != "font-family" {
		return nil, fmt.Errorf("font family %s: unexpected root element <%s>", path, root.FullTag())
	}
	if root.SelectAttr("xmlns:app") == nil {
		root.CreateAttr("xmlns:app", appNamespace)
	}
	return &fontFamily{path: path, doc: doc, root: root}, nil
}

// fonts returns the <font> entries.
func (f *fontFamily) fonts() []*etree.Element {
	return f.root.SelectElements("font")
}

// set adds an entry for ref. An existing entry for the same ref or the same
// weight and style is replaced.
func (f *fontFamily) set(ref string, weight int, style string) {
	w := strconv.Itoa(weight)
	for _, el := range f.fonts() {
		sameFace := el.SelectAttrValue("app:fontWeight", "") == w && el.SelectAttrValue("app:fontStyle", "") == style
		if sameFace || el.SelectAttrValue("app:font", "") == ref {
			f.root.RemoveChild(el)
		}
	}

	el := f.root.CreateElement("font")
	el.CreateAttr("app:fontStyle", style)
	el.CreateAttr("app:fontWeight", w)
	el.CreateAttr("app:font", ref)
}

// remove drops the entry for ref and reports whether one existed.
func (f *fontFamily) remove(ref string) bool {
	removed := false
	for _, el := range f.fonts() {
		if el.SelectAttrValue("app:font", "") == ref {
			f.root.RemoveChild(el)
			removed = true
		}
	}
	return removed
}

func (f *fontFamily) has(ref string) bool {
	for _, el := range f.fonts() {
		if el.SelectAttrValue("app:font", "") == ref {
			return true
		}
	}
	return false
}

func (f *fontFamily) empty() bool {
	return len(f.fonts()) == 0
}

func (f *fontFamily) save() error {
	f.doc.Indent(4)
	if err := f.doc.WriteToFile(f.path); err != nil {
		return fmt.Errorf("writing font family %s: %w", f.path, err)
	}
	return nil
}
