package linker

import (
	"fmt"
	"time"

	"github.com/jamesainslie/assetlink/pkg/assetlink/scanner"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// GroupResult reports the operations applied to one extension group.
// Asset entries are project-relative slash paths.
type GroupResult struct {
	Group     types.Group `json:"group" yaml:"group"`
	Added     []string    `json:"added,omitempty" yaml:"added,omitempty"`
	Removed   []string    `json:"removed,omitempty" yaml:"removed,omitempty"`
	Relinked  []string    `json:"relinked,omitempty" yaml:"relinked,omitempty"`
	Unchanged int         `json:"unchanged" yaml:"unchanged"`
}

// PlatformResult reports one platform's run.
type PlatformResult struct {
	Platform    types.Platform `json:"platform" yaml:"platform"`
	Manifest    string         `json:"manifest" yaml:"manifest"`
	Groups      []GroupResult  `json:"groups" yaml:"groups"`
	Added       int            `json:"added" yaml:"added"`
	Removed     int            `json:"removed" yaml:"removed"`
	Relinked    int            `json:"relinked" yaml:"relinked"`
	Unchanged   int            `json:"unchanged" yaml:"unchanged"`
	BytesCopied int64          `json:"bytes_copied" yaml:"bytes_copied"`
	Duration    time.Duration  `json:"duration" yaml:"duration"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Changed reports whether the platform needed any linking work.
func (p *PlatformResult) Changed() bool {
	return p.Added+p.Removed+p.Relinked > 0
}

// Result reports a whole run.
type Result struct {
	Project    string              `json:"project" yaml:"project"`
	DryRun     bool                `json:"dry_run" yaml:"dry_run"`
	Assets     int                 `json:"assets" yaml:"assets"`
	Scanned    int                 `json:"files_scanned" yaml:"files_scanned"`
	Duplicates []scanner.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Platforms  []PlatformResult    `json:"platforms" yaml:"platforms"`
	Duration   time.Duration       `json:"duration" yaml:"duration"`
}

// PlatformError wraps a failure linking one platform. The platform's
// manifest is left as it was.
type PlatformError struct {
	Platform types.Platform
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}
