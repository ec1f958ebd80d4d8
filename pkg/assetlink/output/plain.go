package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
)

// PlainFormatter writes unstyled tab-aligned rows for scripting: one row
// per operation, then one summary row per platform.
type PlainFormatter struct{}

// Format writes the link report.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *linker.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprintln(tw, "PLATFORM\tOP\tPATH"); err != nil {
		return err
	}
	for _, p := range r.Platforms {
		for _, g := range p.Groups {
			rows := []struct {
				op    string
				paths []string
			}{
				{"add", g.Added},
				{"relink", g.Relinked},
				{"remove", g.Removed},
			}
			for _, row := range rows {
				for _, path := range row.paths {
					if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Platform, row.op, path); err != nil {
						return err
					}
				}
			}
		}
		if p.Error != "" {
			if _, err := fmt.Fprintf(tw, "%s\terror\t%s\n", p.Platform, p.Error); err != nil {
				return err
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range r.Platforms {
		fmt.Fprintf(w, "%s: %s\n", p.Platform, counts(&p))
	}
	return nil
}

// FormatHistory writes one row per run.
func (f *PlainFormatter) FormatHistory(w *bytes.Buffer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTIME\tPLATFORM\tADDED\tREMOVED\tRELINKED\tBYTES"); err != nil {
		return err
	}
	for _, run := range runs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID, run.Time.Format(time.RFC3339), run.Platform,
			len(run.Added), len(run.Removed), len(run.Relinked), run.BytesCopied); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
