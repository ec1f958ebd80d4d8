package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
)

// JSONFormatter writes a single indented JSON document.
type JSONFormatter struct{}

// Format writes the link report.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *linker.Result) error {
	return f.encode(w, buildReport(r))
}

// FormatHistory writes the runs as a JSON array.
func (f *JSONFormatter) FormatHistory(w *bytes.Buffer, runs []history.Run) error {
	return f.encode(w, buildRuns(runs))
}

func (f *JSONFormatter) encode(w *bytes.Buffer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
