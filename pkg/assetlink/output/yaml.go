package output

import (
	"bytes"

	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes the same structure as JSONFormatter in YAML.
type YAMLFormatter struct{}

// Format writes the link report.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *linker.Result) error {
	return f.encode(w, buildReport(r))
}

// FormatHistory writes the runs as a YAML sequence.
func (f *YAMLFormatter) FormatHistory(w *bytes.Buffer, runs []history.Run) error {
	return f.encode(w, buildRuns(runs))
}

func (f *YAMLFormatter) encode(w *bytes.Buffer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
