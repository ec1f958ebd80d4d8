// Package fontinfo reads the family, weight and italic style of TrueType and
// OpenType fonts from their name, OS/2, head and post tables.
package fontinfo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrNotSFNT is returned when the data is not a TrueType or OpenType font.
	ErrNotSFNT = errors.New("not an sfnt font")

	// ErrNoFamily is returned when the name table carries no family name.
	ErrNoFamily = errors.New("font has no family name")
)

// Name table IDs.
const (
	nameFamily          = 1
	nameSubfamily       = 2
	namePreferredFamily = 16
)

// Platform IDs used by name records.
const (
	platformUnicode   = 0
	platformMacintosh = 1
	platformWindows   = 3
)

// Info is the metadata needed to register a font in a family resource.
type Info struct {
	// Family is the preferred family name, else the legacy family name.
	Family string

	// Subfamily is the legacy style name, e.g. "Bold Italic".
	Subfamily string

	// Weight is the CSS weight, a multiple of 100 in [100, 900].
	Weight int

	// Italic reports whether the face is italic.
	Italic bool
}

// Style returns "italic" or "normal".
func (i Info) Style() string {
	if i.Italic {
		return "italic"
	}
	return "normal"
}

// ParseFile reads and parses the font at path.
func ParseFile(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	info, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Parse extracts Info from raw font bytes.
func Parse(data []byte) (*Info, error) {
	tables, err := readTableDirectory(data)
	if err != nil {
		return nil, err
	}

	names, err := readNames(tables["name"])
	if err != nil {
		return nil, err
	}
	family := names.pick(namePreferredFamily)
	if family == "" {
		family = names.pick(nameFamily)
	}
	if family == "" {
		return nil, ErrNoFamily
	}

	info := &Info{
		Family:    family,
		Subfamily: names.pick(nameSubfamily),
		Weight:    400,
	}

	var fsSelection uint16
	if os2 := tables["OS/2"]; len(os2) >= 64 {
		if w := int(binary.BigEndian.Uint16(os2[4:6])); w > 0 {
			info.Weight = w
		}
		fsSelection = binary.BigEndian.Uint16(os2[62:64])
	}
	info.Weight = NormalizeWeight(info.Weight)

	var macStyle uint16
	if head := tables["head"]; len(head) >= 46 {
		macStyle = binary.BigEndian.Uint16(head[44:46])
	}

	var italicAngle int32
	if post := tables["post"]; len(post) >= 8 {
		italicAngle = int32(binary.BigEndian.Uint32(post[4:8]))
	}

	info.Italic = (fsSelection&0x1 != 0 && macStyle&0x2 != 0) || italicAngle != 0
	return info, nil
}

// NormalizeWeight rounds w to a multiple of 100 following the CSS font
// matching fallback: weights up to 500 round down, heavier weights round
// up. The result is clamped to [100, 900].
func NormalizeWeight(w int) int {
	if w <= 500 {
		return max(int(math.Floor(float64(w)/100))*100, 100)
	}
	return min(int(math.Ceil(float64(w)/100))*100, 900)
}

// readTableDirectory maps table tags to their bytes.
func readTableDirectory(data []byte) (map[string][]byte, error) {
	if len(data) < 12 {
		return nil, ErrNotSFNT
	}
	switch binary.BigEndian.Uint32(data[0:4]) {
	case 0x00010000, 0x4F54544F, 0x74727565: // 1.0, 'OTTO', 'true'
	default:
		return nil, ErrNotSFNT
	}

	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	if len(data) < 12+16*numTables {
		return nil, fmt.Errorf("%w: truncated table directory", ErrNotSFNT)
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < numTables; i++ {
		rec := data[12+16*i : 28+16*i]
		tag := string(rec[0:4])
		off := int64(binary.BigEndian.Uint32(rec[8:12]))
		length := int64(binary.BigEndian.Uint32(rec[12:16]))
		if off+length > int64(len(data)) {
			return nil, fmt.Errorf("%w: table %q out of bounds", ErrNotSFNT, tag)
		}
		tables[tag] = data[off : off+length]
	}
	return tables, nil
}

type nameRecord struct {
	platform uint16
	language uint16
	id       uint16
	value    string
}

func (r nameRecord) english() bool {
	switch r.platform {
	case platformWindows:
		return r.language&0xFF == 0x09
	case platformMacintosh:
		return r.language == 0
	}
	return false
}

type nameTable []nameRecord

// pick returns the English value for id, else the first value in any
// locale.
func (n nameTable) pick(id uint16) string {
	var fallback string
	for _, r := range n {
		if r.id != id || r.value == "" {
			continue
		}
		if r.english() {
			return r.value
		}
		if fallback == "" {
			fallback = r.value
		}
	}
	return fallback
}

func readNames(table []byte) (nameTable, error) {
	if len(table) < 6 {
		return nil, fmt.Errorf("%w: missing name table", ErrNoFamily)
	}
	count := int(binary.BigEndian.Uint16(table[2:4]))
	storage := int(binary.BigEndian.Uint16(table[4:6]))
	if len(table) < 6+12*count {
		return nil, fmt.Errorf("%w: truncated name table", ErrNotSFNT)
	}

	names := make(nameTable, 0, count)
	for i := 0; i < count; i++ {
		rec := table[6+12*i : 18+12*i]
		r := nameRecord{
			platform: binary.BigEndian.Uint16(rec[0:2]),
			language: binary.BigEndian.Uint16(rec[4:6]),
			id:       binary.BigEndian.Uint16(rec[6:8]),
		}
		encoding := binary.BigEndian.Uint16(rec[2:4])
		length := int(binary.BigEndian.Uint16(rec[8:10]))
		off := storage + int(binary.BigEndian.Uint16(rec[10:12]))
		if off+length > len(table) {
			continue
		}

		value, ok := decodeName(r.platform, encoding, table[off:off+length])
		if !ok {
			continue
		}
		r.value = value
		names = append(names, r)
	}
	return names, nil
}

func decodeName(platform, encoding uint16, raw []byte) (string, bool) {
	switch {
	case platform == platformUnicode, platform == platformWindows:
		b, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(b), true
	case platform == platformMacintosh && encoding == 0:
		b, err := charmap.Macintosh.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}
