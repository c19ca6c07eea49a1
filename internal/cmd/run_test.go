// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aibor/vfstree/internal/cmd"
	"github.com/cavaliergopher/cpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testTime = time.Date(2026, 7, 8, 9, 10, 11, 0, time.UTC)

// syncBuffer is a [bytes.Buffer] safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func writeFiles(tb testing.TB, files map[string]string) string {
	tb.Helper()

	dir := tb.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
		require.NoError(tb, os.Chtimes(path, testTime, testTime))
	}

	return dir
}

func writeArchiveFile(tb testing.TB, files map[string]string) string {
	tb.Helper()

	var buf bytes.Buffer

	w := cpio.NewWriter(&buf)

	for name, content := range files {
		require.NoError(tb, w.WriteHeader(&cpio.Header{
			Name:    name,
			Mode:    cpio.TypeReg | 0o644,
			Size:    int64(len(content)),
			ModTime: testTime,
		}))

		_, err := w.Write([]byte(content))
		require.NoError(tb, err)
	}

	require.NoError(tb, w.Close())

	path := filepath.Join(tb.TempDir(), "patch.cpio")
	require.NoError(tb, os.WriteFile(path, buf.Bytes(), 0o600))

	return path
}

// layers returns a base and a mod directory sharing the data/maps directory.
func layers(tb testing.TB) (string, string) {
	tb.Helper()

	base := writeFiles(tb, map[string]string{
		"Data/Maps/Arena.xml": "hello",
		"readme.txt":          "abc",
	})

	mod := writeFiles(tb, map[string]string{
		"data/maps/arena.XML": "longer!",
		"data/extra.txt":      "x",
	})

	return base, mod
}

func runCommand(ctx context.Context, args ...string) (int, string, string) {
	var stdout, stderr syncBuffer

	exitCode := cmd.Run(ctx, args, cmd.IO{
		Stdout: &stdout,
		Stderr: &stderr,
	})

	return exitCode, stdout.String(), stderr.String()
}

func TestRun_ParseArgs(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		expectedExitCode int
		expectedStderr   string
	}{
		{
			name:           "help",
			args:           []string{"-help"},
			expectedStderr: "Usage of 'vfstree'",
		},
		{
			name:           "version",
			args:           []string{"-version"},
			expectedStderr: "Version: ",
		},
		{
			name:             "no mounts",
			args:             []string{"-tree"},
			expectedExitCode: -1,
			expectedStderr:   "no mounts given",
		},
		{
			name:             "invalid mount",
			args:             []string{"-dir=base"},
			expectedExitCode: -1,
			expectedStderr:   "missing '='",
		},
		{
			name:             "invalid priority",
			args:             []string{"-dir==base@high"},
			expectedExitCode: -1,
			expectedStderr:   "priority",
		},
		{
			name:             "limit out of range",
			args:             []string{"-dir==base", "-limit=1"},
			expectedExitCode: -1,
			expectedStderr:   "value is outside of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode, stdout, stderr := runCommand(t.Context(), tt.args...)
			assert.Equal(t, tt.expectedExitCode, exitCode)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.expectedStderr)
		})
	}
}

func TestRun_Stats(t *testing.T) {
	base, mod := layers(t)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-dir=="+mod+"@10",
	)
	require.Equal(t, 0, exitCode, stderr)

	assert.Equal(t, "2 mounts, 4 dirs, 3 files (1 shadowed, 0 skipped)\n", stdout)
}

func TestRun_Tree(t *testing.T) {
	base, mod := layers(t)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-dir=="+mod+"@10",
		"-tree",
	)
	require.Equal(t, 0, exitCode, stderr)

	expected := fmt.Sprintf(`readme.txt (3 bytes, %[1]s)
Data/
  extra.txt (1 bytes, %[2]s)
  Maps/
    Arena.xml (5 bytes, %[1]s)
`, base, mod)
	assert.Equal(t, expected, stdout)
}

func TestRun_Paths(t *testing.T) {
	base, mod := layers(t)
	stamp := testTime.Format(time.RFC3339)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-dir=="+mod+"@10",
		"data/maps/",
		"data/EXTRA.TXT",
		"missing",
		"DATA/MAPS/ARENA.XML",
	)
	assert.Equal(t, -1, exitCode)

	expected := "Data/Maps/ (multiple mounts):\n" +
		"  Arena.xml (5 bytes, " + stamp + ")\n" +
		"Data/extra.txt (1 bytes, " + stamp + ", dir " + mod + ", priority 10)\n" +
		"Data/Maps/Arena.xml (5 bytes, " + stamp + ", dir " + base + ", priority 0)\n"
	assert.Equal(t, expected, stdout)

	assert.Contains(t, stderr, "missing")
	assert.Contains(t, stderr, "lookup failed: 1 of 4 paths")
}

func TestRun_Filter(t *testing.T) {
	base := writeFiles(t, map[string]string{
		"Data/readme.txt": "abc",
		"notes.TXT":       "a",
		"readme.txt":      "ab",
		"other.xml":       "",
	})

	stamp := testTime.Format(time.RFC3339)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-filter=*.txt",
		".",
	)
	require.Equal(t, 0, exitCode, stderr)

	expected := ". (" + base + "):\n" +
		"  notes.TXT (1 bytes, " + stamp + ")\n" +
		"  readme.txt (2 bytes, " + stamp + ")\n"
	assert.Equal(t, expected, stdout)

	exitCode, stdout, stderr = runCommand(t.Context(),
		"-dir=="+base,
		"-dirsOnly",
		"/",
	)
	require.Equal(t, 0, exitCode, stderr)

	assert.Equal(t, ". ("+base+"):\n  Data/\n", stdout)
}

func TestRun_Archive(t *testing.T) {
	base := writeFiles(t, map[string]string{
		"pak/readme.txt": "abc",
	})
	archive := writeArchiveFile(t, map[string]string{
		"Maps/Arena.xml": "<arena/>",
	})

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-archive=PAK="+archive+"@3",
		"pak/maps/arena.XML",
		"pak/",
	)
	require.Equal(t, 0, exitCode, stderr)

	stamp := testTime.Format(time.RFC3339)
	expected := "pak/Maps/Arena.xml (8 bytes, " + stamp + ", archive " + archive + ", priority 3)\n" +
		"pak/ (multiple mounts):\n" +
		"  Maps/\n" +
		"  readme.txt (3 bytes, " + stamp + ")\n"
	assert.Equal(t, expected, stdout)
}

func TestRun_Glob(t *testing.T) {
	base, mod := layers(t)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-dir=="+mod,
		"-glob=Data/*/*.xml",
	)
	require.Equal(t, 0, exitCode, stderr)

	assert.Equal(t, "Data/Maps/Arena.xml\n", stdout)
}

func TestRun_OutOfMemory(t *testing.T) {
	files := map[string]string{}
	for idx := range 200 {
		files[fmt.Sprintf("dir%03d/file-with-a-rather-long-name-%03d.txt", idx, idx)] = ""
	}

	base := writeFiles(t, files)

	exitCode, stdout, stderr := runCommand(t.Context(),
		"-dir=="+base,
		"-limit=8",
	)
	assert.Equal(t, -1, exitCode)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "out of memory")
	assert.Contains(t, stderr, "consider raising -limit")
}

func TestRun_MissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	exitCode, stdout, stderr := runCommand(t.Context(), "-dir=="+missing)
	assert.Equal(t, -1, exitCode)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no such file or directory")
}
