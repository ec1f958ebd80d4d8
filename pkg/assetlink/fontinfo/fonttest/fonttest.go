// Package fonttest synthesizes minimal sfnt fonts for tests. The fonts carry
// only the tables fontinfo reads and do not render.
package fonttest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"unicode/utf16"
)

// Name is one name table record, encoded as Windows Unicode BMP.
type Name struct {
	ID       uint16
	Language uint16
	Value    string
}

// Spec describes a synthesized font.
type Spec struct {
	// Family is written as an English name ID 1 record.
	Family string

	// PreferredFamily is written as an English name ID 16 record when set.
	PreferredFamily string

	// Names holds extra name records.
	Names []Name

	// Weight is the OS/2 usWeightClass.
	Weight uint16

	// FsSelection is the OS/2 fsSelection field.
	FsSelection uint16

	// MacStyle is the head macStyle field.
	MacStyle uint16

	// ItalicAngle is the post italicAngle as 16.16 fixed point.
	ItalicAngle int32

	// NoOS2 omits the OS/2 table.
	NoOS2 bool
}

// Build returns the font bytes for spec.
func Build(spec Spec) []byte {
	tables := map[string][]byte{
		"name": nameTable(spec),
		"head": headTable(spec),
		"post": postTable(spec),
	}
	if !spec.NoOS2 {
		tables["OS/2"] = os2Table(spec)
	}
	return assemble(tables)
}

// Write builds spec into dir/name and returns the path.
func Write(t testing.TB, dir, name string, spec Spec) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("creating font directory: %v", err)
	}
	if err := os.WriteFile(p, Build(spec), 0o644); err != nil {
		t.Fatalf("writing font: %v", err)
	}
	return p
}

func assemble(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	header := make([]byte, 12+16*len(tags))
	binary.BigEndian.PutUint32(header[0:4], 0x00010000)
	binary.BigEndian.PutUint16(header[4:6], uint16(len(tags)))

	body := []byte{}
	offset := len(header)
	for i, tag := range tags {
		data := tables[tag]
		rec := header[12+16*i : 28+16*i]
		copy(rec[0:4], tag)
		binary.BigEndian.PutUint32(rec[8:12], uint32(offset+len(body)))
		binary.BigEndian.PutUint32(rec[12:16], uint32(len(data)))
		body = append(body, data...)
		for len(body)%4 != 0 {
			body = append(body, 0)
		}
	}
	return append(header, body...)
}

func nameTable(spec Spec) []byte {
	names := append([]Name(nil), spec.Names...)
	if spec.Family != "" {
		names = append(names, Name{ID: 1, Language: 0x0409, Value: spec.Family})
	}
	if spec.PreferredFamily != "" {
		names = append(names, Name{ID: 16, Language: 0x0409, Value: spec.PreferredFamily})
	}

	storageOffset := 6 + 12*len(names)
	header := make([]byte, storageOffset)
	binary.BigEndian.PutUint16(header[2:4], uint16(len(names)))
	binary.BigEndian.PutUint16(header[4:6], uint16(storageOffset))

	var storage []byte
	for i, n := range names {
		encoded := utf16BE(n.Value)
		rec := header[6+12*i : 18+12*i]
		binary.BigEndian.PutUint16(rec[0:2], 3)
		binary.BigEndian.PutUint16(rec[2:4], 1)
		binary.BigEndian.PutUint16(rec[4:6], n.Language)
		binary.BigEndian.PutUint16(rec[6:8], n.ID)
		binary.BigEndian.PutUint16(rec[8:10], uint16(len(encoded)))
		binary.BigEndian.PutUint16(rec[10:12], uint16(len(storage)))
		storage = append(storage, encoded...)
	}
	return append(header, storage...)
}

func os2Table(spec Spec) []byte {
	t := make([]byte, 78)
	binary.BigEndian.PutUint16(t[0:2], 4)
	binary.BigEndian.PutUint16(t[4:6], spec.Weight)
	binary.BigEndian.PutUint16(t[62:64], spec.FsSelection)
	return t
}

func headTable(spec Spec) []byte {
	t := make([]byte, 54)
	binary.BigEndian.PutUint16(t[0:2], 1)
	binary.BigEndian.PutUint32(t[12:16], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(t[18:20], 1000)
	binary.BigEndian.PutUint16(t[44:46], spec.MacStyle)
	return t
}

func postTable(spec Spec) []byte {
	t := make([]byte, 32)
	binary.BigEndian.PutUint32(t[0:4], 0x00030000)
	binary.BigEndian.PutUint32(t[4:8], uint32(spec.ItalicAngle))
	return t
}

func utf16BE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(out[2*i:], u)
	}
	return out
}
