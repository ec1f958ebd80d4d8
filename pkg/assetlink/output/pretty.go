package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
)

// PrettyFormatter renders styled terminal output with lipgloss.
type PrettyFormatter struct{}

// Format writes the link report.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *linker.Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	for i := range r.Platforms {
		w.WriteString(f.formatPlatform(&r.Platforms[i]))
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Duplicates) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatDuplicates(r))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *linker.Result) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Project:"), ValueStyle.Render(r.Project)))
	lines = append(lines, fmt.Sprintf("%s %s  %s %s",
		LabelStyle.Render("Assets:"), ValueStyle.Render(fmt.Sprintf("%d", r.Assets)),
		LabelStyle.Render("Scanned:"), ValueStyle.Render(fmt.Sprintf("%d files", r.Scanned))))
	if r.DryRun {
		lines = append(lines, WarningStyle.Bold(true).Render("Dry run: no changes written"))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatPlatform(p *linker.PlatformResult) string {
	var sb strings.Builder

	title := TitleStyle.Render(string(p.Platform))
	switch {
	case p.Error != "":
		sb.WriteString(fmt.Sprintf("%s  %s\n", title, ErrorStyle.Render("failed: "+p.Error)))
	case !p.Changed():
		sb.WriteString(fmt.Sprintf("%s  %s\n", title, SuccessStyle.Render("up to date")))
	default:
		sb.WriteString(fmt.Sprintf("%s  %s\n", title, MutedStyle.Render(counts(p))))
	}

	for _, g := range p.Groups {
		for _, a := range g.Added {
			sb.WriteString("  " + SuccessStyle.Render("+ "+a) + "\n")
		}
		for _, a := range g.Relinked {
			sb.WriteString("  " + WarningStyle.Render("~ "+a) + "\n")
		}
		for _, a := range g.Removed {
			sb.WriteString("  " + ErrorStyle.Render("- "+a) + "\n")
		}
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *linker.Result) string {
	var added, removed, relinked int
	var copied int64
	for _, p := range r.Platforms {
		added += p.Added
		removed += p.Removed
		relinked += p.Relinked
		copied += p.BytesCopied
	}

	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Added:"), ValueStyle.Render(fmt.Sprintf("%d", added))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Removed:"), ValueStyle.Render(fmt.Sprintf("%d", removed))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Relinked:"), ValueStyle.Render(fmt.Sprintf("%d", relinked))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Copied:"), SizeStyle.Render(humanize.IBytes(uint64(copied)))),
		MutedStyle.Render(formatDuration(r.Duration)),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatDuplicates(r *linker.Result) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Duplicate basenames dropped:"))
	sb.WriteString("\n")
	for _, d := range r.Duplicates {
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("  %s (kept %s)", d.Dropped, d.Kept)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatHistory writes recorded runs as an aligned table.
func (f *PrettyFormatter) FormatHistory(w *bytes.Buffer, runs []history.Run) error {
	if len(runs) == 0 {
		w.WriteString(MutedStyle.Render("No runs recorded"))
		w.WriteString("\n")
		return nil
	}

	rows := [][]string{{"ID", "WHEN", "PLATFORM", "CHANGES", "COPIED"}}
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.Time(run.Time),
			run.Platform,
			fmt.Sprintf("+%d -%d ~%d", len(run.Added), len(run.Removed), len(run.Relinked)),
			humanize.IBytes(uint64(run.BytesCopied)),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			padded := cell + strings.Repeat(" ", widths[j]-lipgloss.Width(cell))
			switch {
			case i == 0:
				cells[j] = TableHeaderStyle.Render(padded)
			case j == 0:
				cells[j] = SizeStyle.Render(padded)
			default:
				cells[j] = ValueStyle.Render(padded)
			}
		}
		w.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		w.WriteString("\n")
	}
	return nil
}

func counts(p *linker.PlatformResult) string {
	return fmt.Sprintf("%d added, %d removed, %d relinked, %d unchanged",
		p.Added, p.Removed, p.Relinked, p.Unchanged)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration renders a duration at human scale.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
