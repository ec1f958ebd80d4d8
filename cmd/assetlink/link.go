package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jamesainslie/assetlink/pkg/assetlink/linker"
	"github.com/jamesainslie/assetlink/pkg/assetlink/output"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
	"github.com/jamesainslie/assetlink/pkg/assetlink/watcher"
	"github.com/spf13/cobra"
)

var (
	linkWatch     bool
	linkPlatforms []string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link assets into the native projects",
	Long: `Scan the declared asset roots and bring every enabled platform in line
with them: new assets are copied or registered, removed assets are
cleaned up, and assets linked by an older version are relinked.

A platform that fails keeps its previous manifest, so the next run
retries it. The other platform still completes.`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a link would change",
	Long:  `Compute the same diff as link without touching native projects or manifests.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	linkCmd.Flags().BoolVarP(&linkWatch, "watch", "w", false, "keep running and re-link when assets change")
	linkCmd.Flags().StringSliceVarP(&linkPlatforms, "platform", "p", nil, "platforms to link: android, ios (default: all configured)")
	statusCmd.Flags().StringSliceVarP(&linkPlatforms, "platform", "p", nil, "platforms to check: android, ios (default: all configured)")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(statusCmd)
}

// parsePlatforms maps flag values onto platforms.
func parsePlatforms(values []string) ([]types.Platform, error) {
	var out []types.Platform
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "android":
			out = append(out, types.Android)
		case "ios", "apple":
			out = append(out, types.Apple)
		default:
			return nil, fmt.Errorf("unknown platform %q: want android or ios", v)
		}
	}
	return out, nil
}

func runLink(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatforms(linkPlatforms)
	if err != nil {
		return err
	}
	if _, err := output.Get(outputFormat); err != nil {
		return err
	}

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	opts := linker.Options{
		Platforms: platforms,
		Logger:    a.log,
	}
	if a.history != nil {
		opts.Recorder = a.history
	}

	link := func(ctx context.Context) error {
		res, err := linker.LinkAssets(ctx, a.project, opts)
		if res != nil {
			if rerr := render(cmd.OutOrStdout(), func(f output.Formatter, buf *bytes.Buffer) error {
				return f.Format(buf, res)
			}); rerr != nil {
				return rerr
			}
		}
		return err
	}

	if !linkWatch {
		return link(cmd.Context())
	}

	if err := link(cmd.Context()); err != nil {
		printError("%v", err)
	}
	return watch(cmd, a, link)
}

// watch re-runs link on every debounced change under the asset roots
// until interrupted.
func watch(cmd *cobra.Command, a *app, link func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watcher.Options{Logger: a.log.Component("watcher")})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	roots := a.project.Assets
	for _, root := range roots {
		if err := w.Watch(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	printInfo(cmd.ErrOrStderr(), "Watching %d asset root(s). Press Ctrl+C to stop.", len(roots))
	w.Run(ctx, func(ctx context.Context) {
		if err := link(ctx); err != nil {
			printError("%v", err)
		}
	})
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatforms(linkPlatforms)
	if err != nil {
		return err
	}

	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := linker.LinkAssets(cmd.Context(), a.project, linker.Options{
		Platforms: platforms,
		DryRun:    true,
		Logger:    a.log,
	})
	if res == nil {
		return err
	}
	if rerr := render(cmd.OutOrStdout(), func(f output.Formatter, buf *bytes.Buffer) error {
		return f.Format(buf, res)
	}); rerr != nil {
		return rerr
	}
	return err
}
