package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/assetlink/pkg/assetlink/config"
	"github.com/jamesainslie/assetlink/pkg/assetlink/history"
	"github.com/jamesainslie/assetlink/pkg/assetlink/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View link run history",
	Long: `View the journal of successful link runs.

Every successful link records, per platform, which assets were
added, removed and relinked, and how many bytes were copied.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a run",
	Long:  `Display one run by its id or a unique id prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old runs",
	Long:  `Remove runs older than the retention period (history.retention_days).`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit     int
	historyOlderThan int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show (0 for all)")
	historyCleanCmd.Flags().IntVar(&historyOlderThan, "older-than", 0, "days to keep (default: history.retention_days)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the journal named by the configuration. History does
// not need a resolvable native project.
func openHistory() (*config.Config, *history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(cfg.HistoryDir())
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(historyLimit)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), func(f output.Formatter, buf *bytes.Buffer) error {
		return f.FormatHistory(buf, runs)
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" || outputFormat == "yaml" {
		return render(cmd.OutOrStdout(), func(f output.Formatter, buf *bytes.Buffer) error {
			return f.FormatHistory(buf, []history.Run{*run})
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Run Details")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:        %s\n", run.ID)
	fmt.Fprintf(out, "Time:      %s\n", run.Time.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Project:   %s\n", run.Project)
	fmt.Fprintf(out, "Platform:  %s\n", run.Platform)
	fmt.Fprintf(out, "Unchanged: %d\n", run.Unchanged)
	fmt.Fprintf(out, "Copied:    %s\n", humanize.IBytes(uint64(run.BytesCopied)))
	fmt.Fprintf(out, "Duration:  %s\n", run.Duration.Round(time.Millisecond))

	sections := []struct {
		title string
		paths []string
	}{
		{"Added", run.Added},
		{"Relinked", run.Relinked},
		{"Removed", run.Removed},
	}
	for _, s := range sections {
		if len(s.paths) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d):\n", s.title, len(s.paths))
		for _, p := range s.paths {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	return nil
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	days := historyOlderThan
	if days <= 0 {
		days = cfg.History.RetentionDays
	}
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	n, err := store.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	printInfo(cmd.OutOrStdout(), "Removed %d run(s) older than %d days.", n, days)
	return nil
}
