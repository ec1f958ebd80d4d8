package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args against fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, projectDir, outputFormat = "", "", "pretty"
	verbose, quiet, linkWatch = false, false, false
	historyLimit, historyOlderThan = 20, 0

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

// newProject creates a project root with an Android app module and one
// image asset, and points logs and history into the test's temp dir.
func newProject(t *testing.T) string {
	t.Helper()
	state := t.TempDir()
	t.Setenv("ASSETLINK_LOGGING_PATH", filepath.Join(state, "assetlink.log"))
	t.Setenv("ASSETLINK_HISTORY_PATH", filepath.Join(state, "history"))

	root := t.TempDir()
	entry := filepath.Join(root, "android", "app", "src", "main", "java", "com", "example", "MainApplication.kt")
	require.NoError(t, os.MkdirAll(filepath.Dir(entry), 0o755))
	require.NoError(t, os.WriteFile(entry, []byte("package com.example\n\nclass MainApplication {\n  override fun onCreate() {\n    super.onCreate()\n  }\n}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "logo.png"), []byte("png"), 0o644))
	return root
}

func TestParsePlatforms(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []types.Platform
		wantErr bool
	}{
		{name: "empty", input: nil, want: nil},
		{name: "android", input: []string{"android"}, want: []types.Platform{types.Android}},
		{name: "ios aliases", input: []string{"iOS", "apple"}, want: []types.Platform{types.Apple, types.Apple}},
		{name: "unknown", input: []string{"windows"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePlatforms(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsoleLevel(t *testing.T) {
	t.Cleanup(func() { verbose, quiet = false, false })

	verbose, quiet = false, false
	assert.Equal(t, "warn", consoleLevel(""))
	assert.Equal(t, "info", consoleLevel("info"))

	quiet = true
	assert.Equal(t, "error", consoleLevel("info"))

	verbose = true
	assert.Equal(t, "debug", consoleLevel(""))
}

func TestConfigInitAndPath(t *testing.T) {
	root := newProject(t)

	out, err := execute(t, "config", "init", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, filepath.Join(root, "assetlink.yaml"))

	out, err = execute(t, "config", "init", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = execute(t, "config", "path", "-C", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "assetlink.yaml"), strings.TrimSpace(out))

	out, err = execute(t, "config", "show", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "app_name: app")
	assert.Contains(t, out, "resolved:")
}

func TestLinkStatusHistory(t *testing.T) {
	root := newProject(t)
	_, err := execute(t, "config", "init", "-C", root)
	require.NoError(t, err)

	out, err := execute(t, "link", "-C", root, "-o", "json")
	require.NoError(t, err)

	var report struct {
		Platforms []struct {
			Platform string `json:"platform"`
			Added    int    `json:"added"`
		} `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Platforms, 1)
	assert.Equal(t, "android", report.Platforms[0].Platform)
	assert.Equal(t, 1, report.Platforms[0].Added)
	assert.FileExists(t, filepath.Join(root, "android", "app", "src", "main", "res", "drawable", "logo_png.png"))

	out, err = execute(t, "status", "-C", root, "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "android: 0 added, 0 removed, 0 relinked, 1 unchanged")

	out, err = execute(t, "history", "-C", root, "-o", "plain")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "android")

	id := strings.Fields(lines[1])[0]
	out, err = execute(t, "history", "show", id[:8], "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "assets/logo.png")

	out, err = execute(t, "history", "clean", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 run(s)")
}

func TestLink_UnknownOutputFormat(t *testing.T) {
	root := newProject(t)
	_, err := execute(t, "link", "-C", root, "-o", "xml")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "android", "link-assets-manifest.json"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "assetlink dev")
}
