package apple

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"howett.net/plist"
)

// ProjectStore is the capability the Apple linker needs from an Xcode
// project. Implementations keep the object graph private.
type ProjectStore interface {
	// EnsureGroup returns the group named name, creating it under the main
	// group if absent. created reports whether it was created.
	EnsureGroup(name string) (created bool, err error)

	// AddFile adds a file reference at relPath to the group and to the
	// resources build phase of the first native target. It reports false
	// when the reference already exists.
	AddFile(group, relPath string) (bool, error)

	// RemoveFile removes the file reference at relPath from the group and
	// every resources build phase. It reports false when no reference
	// existed.
	RemoveFile(group, relPath string) (bool, error)

	// InfoPlistSetting returns the first INFOPLIST_FILE build setting of the
	// first native target, or "" if none is set.
	InfoPlistSetting() string

	// Save writes the project back to disk if it changed.
	Save() error
}

// pbxHeader is the encoding marker Xcode writes on the first line.
const pbxHeader = "// !$*UTF8*$!\n"

// PBXProject is a project.pbxproj file decoded into its object graph.
type PBXProject struct {
	path    string
	root    map[string]interface{}
	objects map[string]interface{}
	dirty   bool
}

var _ ProjectStore = (*PBXProject)(nil)

// OpenProject reads and decodes a project.pbxproj file.
func OpenProject(p string) (*PBXProject, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}

	var root map[string]interface{}
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	objects, ok := root["objects"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("parsing %s: missing objects", p)
	}
	return &PBXProject{path: p, root: root, objects: objects}, nil
}

// Path returns the pbxproj file path.
func (p *PBXProject) Path() string {
	return p.path
}

func (p *PBXProject) object(id string) map[string]interface{} {
	obj, _ := p.objects[id].(map[string]interface{})
	return obj
}

func (p *PBXProject) isa(id string) string {
	return str(p.object(id), "isa")
}

func (p *PBXProject) project() map[string]interface{} {
	return p.object(str(p.root, "rootObject"))
}

func (p *PBXProject) mainGroup() (map[string]interface{}, error) {
	group := p.object(str(p.project(), "mainGroup"))
	if group == nil {
		return nil, fmt.Errorf("%s: project has no main group", p.path)
	}
	return group, nil
}

// findGroup returns the id of the group whose name or path is name,
// looking at the main group's children first.
func (p *PBXProject) findGroup(name string) string {
	matches := func(id string) bool {
		obj := p.object(id)
		return p.isa(id) == "PBXGroup" && (str(obj, "name") == name || str(obj, "path") == name)
	}

	if main, err := p.mainGroup(); err == nil {
		for _, id := range strs(main, "children") {
			if matches(id) {
				return id
			}
		}
	}
	for _, id := range p.sortedIDs() {
		if matches(id) {
			return id
		}
	}
	return ""
}

// EnsureGroup implements ProjectStore.
func (p *PBXProject) EnsureGroup(name string) (bool, error) {
	if p.findGroup(name) != "" {
		return false, nil
	}
	main, err := p.mainGroup()
	if err != nil {
		return false, err
	}

	id := p.newID()
	p.objects[id] = map[string]interface{}{
		"isa":        "PBXGroup",
		"children":   []interface{}{},
		"name":       name,
		"sourceTree": "<group>",
	}
	main["children"] = append(list(main, "children"), id)
	p.dirty = true
	return true, nil
}

// fileInGroup returns the id of the file reference at relPath in group.
func (p *PBXProject) fileInGroup(group map[string]interface{}, relPath string) string {
	for _, id := range strs(group, "children") {
		if p.isa(id) == "PBXFileReference" && str(p.object(id), "path") == relPath {
			return id
		}
	}
	return ""
}

// AddFile implements ProjectStore.
func (p *PBXProject) AddFile(groupName, relPath string) (bool, error) {
	group := p.object(p.findGroup(groupName))
	if group == nil {
		return false, fmt.Errorf("%s: group %q not found", p.path, groupName)
	}
	if p.fileInGroup(group, relPath) != "" {
		return false, nil
	}

	fileID := p.newID()
	p.objects[fileID] = map[string]interface{}{
		"isa":               "PBXFileReference",
		"lastKnownFileType": fileType(relPath),
		"name":              path.Base(relPath),
		"path":              relPath,
		"sourceTree":        "<group>",
	}
	group["children"] = append(list(group, "children"), fileID)

	if phase := p.resourcesPhase(); phase != nil {
		buildID := p.newID()
		p.objects[buildID] = map[string]interface{}{
			"isa":     "PBXBuildFile",
			"fileRef": fileID,
		}
		phase["files"] = append(list(phase, "files"), buildID)
	}

	p.dirty = true
	return true, nil
}

// RemoveFile implements ProjectStore.
func (p *PBXProject) RemoveFile(groupName, relPath string) (bool, error) {
	group := p.object(p.findGroup(groupName))
	if group == nil {
		return false, nil
	}
	fileID := p.fileInGroup(group, relPath)
	if fileID == "" {
		return false, nil
	}

	group["children"] = without(list(group, "children"), fileID)
	delete(p.objects, fileID)

	for _, id := range p.sortedIDs() {
		if p.isa(id) != "PBXResourcesBuildPhase" {
			continue
		}
		phase := p.object(id)
		for _, buildID := range strs(phase, "files") {
			if str(p.object(buildID), "fileRef") == fileID {
				phase["files"] = without(list(phase, "files"), buildID)
				delete(p.objects, buildID)
			}
		}
	}

	p.dirty = true
	return true, nil
}

// firstTarget returns the first PBXNativeTarget listed by the project.
func (p *PBXProject) firstTarget() map[string]interface{} {
	for _, id := range strs(p.project(), "targets") {
		if p.isa(id) == "PBXNativeTarget" {
			return p.object(id)
		}
	}
	return nil
}

func (p *PBXProject) resourcesPhase() map[string]interface{} {
	target := p.firstTarget()
	for _, id := range strs(target, "buildPhases") {
		if p.isa(id) == "PBXResourcesBuildPhase" {
			return p.object(id)
		}
	}
	return nil
}

// InfoPlistSetting implements ProjectStore.
func (p *PBXProject) InfoPlistSetting() string {
	target := p.firstTarget()
	configList := p.object(str(target, "buildConfigurationList"))
	for _, id := range strs(configList, "buildConfigurations") {
		settings, _ := p.object(id)["buildSettings"].(map[string]interface{})
		if v := str(settings, "INFOPLIST_FILE"); v != "" {
			return v
		}
	}
	return ""
}

// Save implements ProjectStore. The project is written in OpenStep format
// behind the UTF-8 marker line, with objects in key order. The /* */
// annotations and section markers are not written back; Xcode restores
// them the next time it saves the project.
func (p *PBXProject) Save() error {
	if !p.dirty {
		return nil
	}
	data, err := plist.MarshalIndent(p.root, plist.OpenStepFormat, "\t")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(pbxHeader)
	buf.Write(data)
	buf.WriteByte('\n')

	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("stat project: %w", err)
	}
	if err := os.WriteFile(p.path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	p.dirty = false
	return nil
}

// newID returns an unused 24 character uppercase hex object id.
func (p *PBXProject) newID() string {
	for {
		u := uuid.New()
		id := strings.ToUpper(fmt.Sprintf("%x", u[:12]))
		if _, taken := p.objects[id]; !taken {
			return id
		}
	}
}

func (p *PBXProject) sortedIDs() []string {
	ids := make([]string, 0, len(p.objects))
	for id := range p.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var fileTypes = map[string]string{
	".ttf":  "file",
	".otf":  "file",
	".png":  "image.png",
	".jpg":  "image.jpeg",
	".jpeg": "image.jpeg",
	".gif":  "image.gif",
	".webp": "file",
	".mp3":  "audio.mp3",
	".wav":  "audio.wav",
	".m4a":  "file",
	".aac":  "file",
	".mp4":  "file",
	".json": "text.json",
	".pdf":  "image.pdf",
}

func fileType(p string) string {
	if t, ok := fileTypes[strings.ToLower(path.Ext(p))]; ok {
		return t
	}
	return "file"
}

func str(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func list(obj map[string]interface{}, key string) []interface{} {
	l, _ := obj[key].([]interface{})
	return l
}

func strs(obj map[string]interface{}, key string) []string {
	var out []string
	for _, v := range list(obj, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func without(l []interface{}, id string) []interface{} {
	out := make([]interface{}, 0, len(l))
	for _, v := range l {
		if s, _ := v.(string); s != id {
			out = append(out, v)
		}
	}
	return out
}
