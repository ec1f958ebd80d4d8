package output

import (
	"time"

	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
	"github.com/jamesainslie/assetlink/pkg/assetlink/scanner"
)

// report is the structured json and yaml shape of a link result. Durations
// render as strings.
type report struct {
	Project    string              `json:"project" yaml:"project"`
	DryRun     bool                `json:"dry_run" yaml:"dry_run"`
	Assets     int                 `json:"assets" yaml:"assets"`
	Scanned    int                 `json:"files_scanned" yaml:"files_scanned"`
	Duration   string              `json:"duration" yaml:"duration"`
	Duplicates []scanner.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Platforms  []platformReport    `json:"platforms" yaml:"platforms"`
}

type platformReport struct {
	Platform    string               `json:"platform" yaml:"platform"`
	Manifest    string               `json:"manifest" yaml:"manifest"`
	Added       int                  `json:"added" yaml:"added"`
	Removed     int                  `json:"removed" yaml:"removed"`
	Relinked    int                  `json:"relinked" yaml:"relinked"`
	Unchanged   int                  `json:"unchanged" yaml:"unchanged"`
	BytesCopied int64                `json:"bytes_copied" yaml:"bytes_copied"`
	Duration    string               `json:"duration" yaml:"duration"`
	Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
	Groups      []linker.GroupResult `json:"groups" yaml:"groups"`
}

type runReport struct {
	ID          string    `json:"id" yaml:"id"`
	Time        time.Time `json:"time" yaml:"time"`
	Project     string    `json:"project" yaml:"project"`
	Platform    string    `json:"platform" yaml:"platform"`
	Added       []string  `json:"added,omitempty" yaml:"added,omitempty"`
	Removed     []string  `json:"removed,omitempty" yaml:"removed,omitempty"`
	Relinked    []string  `json:"relinked,omitempty" yaml:"relinked,omitempty"`
	Unchanged   int       `json:"unchanged" yaml:"unchanged"`
	BytesCopied int64     `json:"bytes_copied" yaml:"bytes_copied"`
	Duration    string    `json:"duration" yaml:"duration"`
}

func buildReport(r *linker.Result) report {
	out := report{
		Project:    r.Project,
		DryRun:     r.DryRun,
		Assets:     r.Assets,
		Scanned:    r.Scanned,
		Duration:   formatDurationString(r.Duration),
		Duplicates: r.Duplicates,
		Platforms:  make([]platformReport, 0, len(r.Platforms)),
	}
	for _, p := range r.Platforms {
		out.Platforms = append(out.Platforms, platformReport{
			Platform:    string(p.Platform),
			Manifest:    p.Manifest,
			Added:       p.Added,
			Removed:     p.Removed,
			Relinked:    p.Relinked,
			Unchanged:   p.Unchanged,
			BytesCopied: p.BytesCopied,
			Duration:    formatDurationString(p.Duration),
			Error:       p.Error,
			Groups:      p.Groups,
		})
	}
	return out
}

func buildRuns(runs []history.Run) []runReport {
	out := make([]runReport, 0, len(runs))
	for _, run := range runs {
		out = append(out, runReport{
			ID:          run.ID,
			Time:        run.Time,
			Project:     run.Project,
			Platform:    run.Platform,
			Added:       run.Added,
			Removed:     run.Removed,
			Relinked:    run.Relinked,
			Unchanged:   run.Unchanged,
			BytesCopied: run.BytesCopied,
			Duration:    formatDurationString(run.Duration),
		})
	}
	return out
}

// formatDurationString formats a duration for structured output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
