package manifest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidManifest is returned when a manifest file does not match the
// manifest document shape.
var ErrInvalidManifest = errors.New("invalid manifest")

// ErrUnsupportedVersion is returned when a manifest was written by a newer
// schema than this build knows.
var ErrUnsupportedVersion = errors.New("unsupported manifest schema version")

// documentSchema describes every manifest version. Records only ever gained
// optional fields, so one schema covers all of them.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schemaVersion", "assets"],
  "properties": {
    "schemaVersion": {"type": "integer", "minimum": 0},
    "assets": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["path", "hash"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "hash": {"type": "string"},
          "relinkFlag": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// validate checks raw manifest bytes against the document schema.
func validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
}
